// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package courses

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/advisor-tui/internal/api"
	"github.com/jeranaias/advisor-tui/internal/util"
)

// View renders the browser: detail pane when open, otherwise the search
// bar, subject filter, and result list.
func (m Model) View() string {
	if m.detail != nil {
		return m.renderDetail(*m.detail)
	}

	var b strings.Builder
	b.WriteString(m.search.View())
	b.WriteString("  ")
	b.WriteString(m.renderFilter())
	b.WriteString("\n")

	if m.loading {
		b.WriteString(m.spin.View() + " " + m.theme.ThinkingText.Render("Searching..."))
		return b.String()
	}
	if m.notice != "" {
		b.WriteString(m.theme.FormHint.Render(m.notice))
		return b.String()
	}

	b.WriteString(m.renderResults())
	return b.String()
}

func (m Model) renderFilter() string {
	label := "All subjects"
	if m.subjectIdx > 0 && m.subjectIdx < len(m.subjects) {
		label = m.subjects[m.subjectIdx]
	}
	return m.theme.Tab.Render("[" + label + "]")
}

func (m Model) renderResults() string {
	if len(m.results) == 0 {
		return m.theme.FormHint.Render("Type a query and press enter.")
	}

	// Window the list around the cursor.
	start := 0
	if m.cursor >= maxVisibleRows {
		start = m.cursor - maxVisibleRows + 1
	}
	end := start + maxVisibleRows
	if end > len(m.results) {
		end = len(m.results)
	}

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, m.renderRow(m.results[i], i == m.cursor))
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderRow(c api.CourseSummary, selected bool) string {
	code := fmt.Sprintf("%s %s", c.Subject, c.Catalog)
	title := m.titler.String(strings.ToLower(c.Title))
	title = util.TruncateWidth(title, m.rowTitleWidth())

	line := fmt.Sprintf("%-10s %-*s %s", code, m.rowTitleWidth(), title, renderAverage(c.Average))
	if selected {
		return m.theme.ListItemSelected.Render("> " + line)
	}
	return m.theme.ListItem.Render("  " + line)
}

func (m Model) rowTitleWidth() int {
	w := m.width - 24
	if w < 20 {
		w = 20
	}
	if w > 60 {
		w = 60
	}
	return w
}

// =============================================================================
// DETAIL PANE
// =============================================================================

func (m Model) renderDetail(d api.CourseDetail) string {
	var b strings.Builder

	code := fmt.Sprintf("%s %s", d.Subject, d.Catalog)
	title := m.titler.String(strings.ToLower(d.Title))
	b.WriteString(m.theme.HeaderTitle.Render(code + "  " + title))
	b.WriteString("\n\n")

	b.WriteString(m.theme.DetailLabel.Render("Average grade: "))
	b.WriteString(m.theme.DetailValue.Render(renderAverage(d.AverageGrade)))
	b.WriteString("\n")
	b.WriteString(m.theme.DetailLabel.Render("Sections: "))
	b.WriteString(m.theme.DetailValue.Render(fmt.Sprintf("%d", d.NumSections)))
	b.WriteString("\n\n")

	for _, s := range d.Sections {
		b.WriteString(m.renderSection(s))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.ShortcutKey.Render("esc") + m.theme.ShortcutDesc.Render(" back"))

	box := m.theme.DetailBox.Render(b.String())
	if m.width == 0 {
		return box
	}
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Left, box)
}

func (m Model) renderSection(s api.CourseSection) string {
	instructor := "staff"
	if s.Instructor != nil && *s.Instructor != "" {
		instructor = m.titler.String(strings.ToLower(*s.Instructor))
	}
	term := ""
	if s.Term != nil {
		term = *s.Term
	}
	return fmt.Sprintf("  %-12s %-30s %s", term, util.TruncateWidth(instructor, 30), renderAverage(s.Average))
}

// renderAverage formats a nullable 4.0-scale grade average.
func renderAverage(avg *float64) string {
	if avg == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *avg)
}
