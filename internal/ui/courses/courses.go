// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package courses implements the course catalog browser: search with a
// subject filter, a result list, and a per-course section detail pane.
package courses

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jeranaias/advisor-tui/internal/api"
	"github.com/jeranaias/advisor-tui/internal/ui/styles"
)

const (
	searchLimit    = 25
	maxVisibleRows = 15
)

// Catalog is the slice of the API client the browser uses.
type Catalog interface {
	SearchCourses(ctx context.Context, query, subject string, limit int) ([]api.CourseSummary, error)
	Course(ctx context.Context, subject, catalog string) (*api.CourseDetail, error)
	Subjects(ctx context.Context) ([]string, error)
}

// Model is the Bubble Tea model for the catalog browser.
type Model struct {
	theme   *styles.Theme
	catalog Catalog

	search textinput.Model
	spin   spinner.Model

	// subjects[0] is the synthetic "all subjects" entry.
	subjects   []string
	subjectIdx int

	results []api.CourseSummary
	cursor  int
	// dirty marks the query as changed since the last search, so enter
	// searches instead of opening the selection.
	dirty bool

	detail *api.CourseDetail

	loading bool
	notice  string
	width   int
	height  int

	titler cases.Caser
}

// New creates the catalog browser.
func New(theme *styles.Theme, catalog Catalog) Model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "Search courses (e.g. COMP 250, linear algebra)"
	ti.CharLimit = 100
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    spinnerFPS,
	}
	sp.Style = theme.Spinner

	return Model{
		theme:    theme,
		catalog:  catalog,
		search:   ti,
		spin:     sp,
		subjects: []string{"All"},
		titler:   cases.Title(language.English),
	}
}

// Init loads the subject list for the filter.
func (m Model) Init() tea.Cmd {
	return subjectsCmd(m.catalog)
}

// Update handles messages for the browser.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case SubjectsMsg:
		if msg.Err == nil {
			m.subjects = append([]string{"All"}, msg.Subjects...)
		}
		return m, nil

	case ResultsMsg:
		m.loading = false
		if msg.Err != nil {
			m.notice = "Search failed. Is the backend running?"
			return m, nil
		}
		m.notice = ""
		m.results = msg.Results
		m.cursor = 0
		m.dirty = false
		if len(m.results) == 0 {
			m.notice = "No courses matched."
		}
		return m, nil

	case DetailMsg:
		m.loading = false
		if msg.Err != nil {
			m.notice = "Couldn't load that course."
			return m, nil
		}
		m.notice = ""
		m.detail = msg.Detail
		return m, nil
	}

	return m.updateSearch(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	// Detail pane swallows everything except its dismiss keys.
	if m.detail != nil {
		switch msg.Type {
		case tea.KeyEsc, tea.KeyBackspace, tea.KeyEnter:
			m.detail = nil
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		return m.confirm()
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case tea.KeyDown:
		if m.cursor < len(m.results)-1 {
			m.cursor++
		}
		return m, nil
	case tea.KeyCtrlF:
		m.cycleSubject()
		return m, nil
	case tea.KeyEsc:
		m.search.Reset()
		m.results = nil
		m.cursor = 0
		m.notice = ""
		m.dirty = false
		return m, nil
	}

	before := m.search.Value()
	model, cmd := m.updateSearch(msg)
	if model.search.Value() != before {
		model.dirty = true
	}
	return model, cmd
}

func (m Model) updateSearch(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// confirm either runs a search (query changed) or opens the selected
// course (results current).
func (m Model) confirm() (Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	if !m.dirty && len(m.results) > 0 {
		sel := m.results[m.cursor]
		m.loading = true
		return m, tea.Batch(m.spin.Tick, detailCmd(m.catalog, sel.Subject, sel.Catalog))
	}

	query := strings.TrimSpace(m.search.Value())
	if query == "" && m.subjectIdx == 0 {
		return m, nil
	}
	m.loading = true
	return m, tea.Batch(m.spin.Tick, searchCmd(m.catalog, query, m.subjectFilter(), searchLimit))
}

func (m *Model) cycleSubject() {
	if len(m.subjects) == 0 {
		return
	}
	m.subjectIdx = (m.subjectIdx + 1) % len(m.subjects)
	m.dirty = true
}

// subjectFilter returns the wire value of the active filter, empty for
// the "All" entry.
func (m Model) subjectFilter() string {
	if m.subjectIdx == 0 || m.subjectIdx >= len(m.subjects) {
		return ""
	}
	return m.subjects[m.subjectIdx]
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Loading reports whether a catalog request is in flight.
func (m Model) Loading() bool {
	return m.loading
}

// Results returns the current result rows.
func (m Model) Results() []api.CourseSummary {
	return m.results
}

// Detail returns the open course detail, nil when the list is showing.
func (m Model) Detail() *api.CourseDetail {
	return m.detail
}
