// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the chat session view: an ordered message log,
// an input line, and the submit pipeline to the advising backend.
package chat

import (
	"context"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/advisor-tui/internal/api"
	"github.com/jeranaias/advisor-tui/internal/model"
	"github.com/jeranaias/advisor-tui/internal/ui/styles"
)

// Layout constants.
const (
	inputCharLimit = api.MaxMessageLength

	// headerHeight etc. are the rows the chat view spends outside the
	// viewport: input container (3 with borders) plus status line.
	inputAreaHeight  = 4
	minViewportLines = 3
)

// Backend is the slice of the API client the chat view uses.
type Backend interface {
	SendMessage(ctx context.Context, userID, message string) (*api.ChatReply, error)
	History(ctx context.Context, userID string, limit int) ([]api.HistoryEntry, error)
}

// Model is the Bubble Tea model for the chat session view. The message
// log is owned exclusively by this model; nothing else reads or writes
// it.
type Model struct {
	theme *styles.Theme

	log      *model.Log
	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model

	backend      Backend
	userID       string
	historyLimit int

	// history is the server-side transcript preloaded for display above
	// the live log. Display only, never re-sent.
	history []api.HistoryEntry

	renderer *glamour.TermRenderer
	wordWrap int

	loading bool
	ready   bool
	width   int
	height  int
}

// New creates a chat view for the given user.
func New(theme *styles.Theme, backend Backend, userID string, wordWrap, historyLimit int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about courses, prerequisites, programs..."
	ti.CharLimit = inputCharLimit
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    spinnerFPS,
	}
	sp.Style = theme.Spinner

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		// Fall back to raw text rendering.
		log.Printf("chat: markdown renderer unavailable: %v", err)
		renderer = nil
	}

	return Model{
		theme:        theme,
		log:          model.NewLog(),
		input:        ti,
		spin:         sp,
		backend:      backend,
		userID:       userID,
		historyLimit: historyLimit,
		renderer:     renderer,
		wordWrap:     wordWrap,
	}
}

// Init starts the server history preload, when enabled.
func (m Model) Init() tea.Cmd {
	if m.historyLimit > 0 && m.userID != "" {
		return loadHistoryCmd(m.backend, m.userID, m.historyLimit)
	}
	return nil
}

// Update handles messages for the chat view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter {
			return m.submit()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case ReplyMsg:
		return m.handleReply(msg)

	case HistoryMsg:
		if msg.Err != nil {
			// Preload is best effort; the seeded log stands alone.
			log.Printf("chat: history preload failed: %v", msg.Err)
			return m, nil
		}
		m.history = msg.Entries
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit runs the guarded submit pipeline. Blank input is a no-op that
// leaves the field untouched; while a request is in flight further
// submits are ignored.
func (m Model) submit() (Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.loading {
		return m, nil
	}

	m.log.Append(model.NewUserEntry(text))
	m.input.Reset()
	m.loading = true
	m.refreshViewport()
	m.viewport.GotoBottom()

	return m, tea.Batch(m.spin.Tick, sendMessageCmd(m.backend, m.userID, text))
}

// handleReply settles the in-flight request. The loading flag clears on
// both paths before anything else happens, so the input can never stay
// stuck disabled.
func (m Model) handleReply(msg ReplyMsg) (Model, tea.Cmd) {
	m.loading = false

	if msg.Err != nil {
		log.Printf("chat: send failed: %v", msg.Err)
		m.log.Append(model.NewNotice(model.FallbackNotice))
	} else {
		m.log.Append(model.NewAssistantEntry(msg.Text))
	}

	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m *Model) handleResize(width, height int) {
	m.width = width
	m.height = height

	vpHeight := height - inputAreaHeight
	if vpHeight < minViewportLines {
		vpHeight = minViewportLines
	}

	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
	m.input.Width = width - 6

	m.refreshViewport()
	m.viewport.GotoBottom()
}

// SetUser rebinds the view to a different signed-in user, resetting the
// log to a fresh seeded one.
func (m *Model) SetUser(userID string) {
	if m.userID == userID {
		return
	}
	m.userID = userID
	m.log = model.NewLog()
	m.history = nil
	m.loading = false
	m.refreshViewport()
}

// SetWordWrap rebuilds the markdown renderer at a new wrap width.
func (m *Model) SetWordWrap(width int) {
	if width == m.wordWrap {
		return
	}
	m.wordWrap = width
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		log.Printf("chat: markdown renderer unavailable: %v", err)
		renderer = nil
	}
	m.renderer = renderer
	m.refreshViewport()
}

// Log exposes the entry log for tests and the app shell's status line.
func (m Model) Log() *model.Log {
	return m.log
}

// Loading reports whether a request is in flight.
func (m Model) Loading() bool {
	return m.loading
}

// InputValue returns the current input field contents.
func (m Model) InputValue() string {
	return m.input.Value()
}
