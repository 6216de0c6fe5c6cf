// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/advisor-tui/internal/auth"
)

// View renders the shell chrome around the active view.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	switch m.session.State() {
	case auth.StateResolving:
		msg := m.spin.View() + " " + m.theme.ThinkingText.Render("Restoring your session...")
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, msg)

	case auth.StateAnonymous:
		return lipgloss.JoinVertical(lipgloss.Left,
			m.renderHeader(),
			m.login.View(),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderTabs(),
		m.renderActive(),
		m.renderStatusBar(),
	)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("McGill Course Advisor")
	if user := m.session.User(); user != nil {
		name := user.DisplayName
		if name == "" {
			name = user.Email
		}
		return title + "  " + m.theme.HeaderSubtitle.Render(name)
	}
	return title
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, int(tabCount))
	for t := TabChat; t < tabCount; t++ {
		style := m.theme.Tab
		if t == m.tab {
			style = m.theme.TabActive
		}
		tabs = append(tabs, style.Render(" "+t.String()+" "))
	}
	return strings.Join(tabs, " ")
}

func (m Model) renderActive() string {
	switch m.tab {
	case TabCourses:
		return m.courses.View()
	case TabProfile:
		return m.profile.View()
	default:
		return m.chat.View()
	}
}

func (m Model) renderStatusBar() string {
	shortcuts := m.theme.ShortcutKey.Render("F2") + m.theme.ShortcutDesc.Render(" chat  ") +
		m.theme.ShortcutKey.Render("F3") + m.theme.ShortcutDesc.Render(" courses  ") +
		m.theme.ShortcutKey.Render("F4") + m.theme.ShortcutDesc.Render(" profile  ") +
		m.theme.ShortcutKey.Render("^L") + m.theme.ShortcutDesc.Render(" sign out  ") +
		m.theme.ShortcutKey.Render("^C") + m.theme.ShortcutDesc.Render(" quit")
	return m.theme.StatusBar.Width(m.width).Render(shortcuts)
}
