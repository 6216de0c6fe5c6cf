// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package courses

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/advisor-tui/internal/api"
)

const spinnerFPS = time.Second / 30

// SubjectsMsg delivers the subject filter values.
type SubjectsMsg struct {
	Subjects []string
	Err      error
}

// ResultsMsg delivers one search's result rows.
type ResultsMsg struct {
	Results []api.CourseSummary
	Err     error
}

// DetailMsg delivers one course's aggregated sections.
type DetailMsg struct {
	Detail *api.CourseDetail
	Err    error
}

func subjectsCmd(catalog Catalog) tea.Cmd {
	return func() tea.Msg {
		subjects, err := catalog.Subjects(context.Background())
		return SubjectsMsg{Subjects: subjects, Err: err}
	}
}

func searchCmd(catalog Catalog, query, subject string, limit int) tea.Cmd {
	return func() tea.Msg {
		results, err := catalog.SearchCourses(context.Background(), query, subject, limit)
		return ResultsMsg{Results: results, Err: err}
	}
}

func detailCmd(catalog Catalog, subject, catalogNum string) tea.Cmd {
	return func() tea.Msg {
		detail, err := catalog.Course(context.Background(), subject, catalogNum)
		return DetailMsg{Detail: detail, Err: err}
	}
}
