// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/advisor-tui/internal/api"
	"github.com/jeranaias/advisor-tui/internal/model"
)

// View renders the chat session: viewport, status line, input.
func (m Model) View() string {
	if !m.ready {
		return "Loading chat..."
	}

	var statusLine string
	if m.loading {
		statusLine = m.spin.View() + " " + m.theme.ThinkingText.Render("Advisor is thinking...")
	} else {
		statusLine = m.renderCharCount()
	}

	input := m.theme.InputContainer.Width(m.width - 2).Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		statusLine,
		input,
	)
}

func (m Model) renderCharCount() string {
	used := len([]rune(m.input.Value()))
	count := fmt.Sprintf("%d/%d", used, inputCharLimit)
	if used > inputCharLimit*9/10 {
		return m.theme.CharCountDanger.Render(count)
	}
	return m.theme.CharCount.Render(count)
}

// refreshViewport re-renders the log into the viewport buffer.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderEntries())
}

// renderEntries renders the preloaded server history followed by the
// live log, one block per entry.
func (m Model) renderEntries() string {
	blocks := make([]string, 0, len(m.history)+m.log.Len())

	for _, h := range m.history {
		blocks = append(blocks, m.renderHistoryEntry(h))
	}
	for _, e := range m.log.Entries() {
		blocks = append(blocks, m.renderEntry(e))
	}
	return strings.Join(blocks, "\n")
}

// renderEntry picks the renderer by kind first, then role. Notices and
// user input are always plain text; only advisor chat content is
// interpreted as markdown.
func (m Model) renderEntry(e model.Entry) string {
	if e.IsNotice() {
		return m.renderNotice(e.Content)
	}
	switch e.Role {
	case model.RoleUser:
		return m.renderUser(e.Content)
	default:
		return m.renderAdvisor(e.Content)
	}
}

func (m Model) renderHistoryEntry(h api.HistoryEntry) string {
	if h.Role == "user" {
		return m.renderUser(h.Content)
	}
	return m.renderAdvisor(h.Content)
}

func (m Model) renderUser(content string) string {
	bubble := m.theme.UserBubble.MaxWidth(m.bubbleWidth()).Render(content)
	return lipgloss.PlaceHorizontal(m.viewport.Width, lipgloss.Right, bubble)
}

func (m Model) renderAdvisor(content string) string {
	return m.theme.AdvisorBubble.MaxWidth(m.bubbleWidth()).Render(m.renderMarkdown(content))
}

func (m Model) renderNotice(content string) string {
	box := m.theme.NoticeBox.MaxWidth(m.bubbleWidth()).Render(content)
	return lipgloss.PlaceHorizontal(m.viewport.Width, lipgloss.Center, box)
}

func (m Model) bubbleWidth() int {
	w := m.viewport.Width - 4
	if w < 20 {
		w = 20
	}
	return w
}

// renderMarkdown renders advisor content as terminal markdown, falling
// back to the raw text when rendering fails.
func (m Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}
