// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app implements the top-level shell: it tracks the session
// state and swaps between the resolving screen, the login form, and the
// authenticated dashboard tabs.
package app

import (
	"context"
	"log"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/advisor-tui/internal/api"
	"github.com/jeranaias/advisor-tui/internal/auth"
	"github.com/jeranaias/advisor-tui/internal/ui/chat"
	"github.com/jeranaias/advisor-tui/internal/ui/courses"
	"github.com/jeranaias/advisor-tui/internal/ui/login"
	"github.com/jeranaias/advisor-tui/internal/ui/profile"
	"github.com/jeranaias/advisor-tui/internal/ui/styles"
)

// =============================================================================
// MODEL
// =============================================================================

// Session is the slice of the session manager the shell observes and
// drives.
type Session interface {
	login.Authenticator
	profile.Updater
	State() auth.State
	User() *auth.User
	Profile() *api.Profile
	SignOut(ctx context.Context) error
}

// Backend is the union of the API surfaces the dashboard views use.
// *api.Client satisfies it.
type Backend interface {
	chat.Backend
	courses.Catalog
}

// Tab identifies one dashboard view.
type Tab int

const (
	TabChat Tab = iota
	TabCourses
	TabProfile
	tabCount
)

// String returns the tab's display label.
func (t Tab) String() string {
	switch t {
	case TabChat:
		return "Chat"
	case TabCourses:
		return "Courses"
	case TabProfile:
		return "Profile"
	default:
		return "?"
	}
}

// SessionChangedMsg tells the shell to re-read the session manager.
// The manager's change callback feeds these in via Program.Send.
type SessionChangedMsg struct{}

// ConfigReloadedMsg re-applies live-tunable settings after the config
// file changed on disk.
type ConfigReloadedMsg struct {
	WordWrap int
}

// SignedOutMsg settles a sign-out request.
type SignedOutMsg struct{ Err error }

// Rows the shell spends on chrome around the active view.
const chromeRows = 3

// Model is the root Bubble Tea model.
type Model struct {
	theme   *styles.Theme
	session Session

	tab     Tab
	login   login.Model
	chat    chat.Model
	courses courses.Model
	profile profile.Model
	spin    spinner.Model

	// userID is the signed-in user the dashboard is bound to.
	userID string

	width  int
	height int
}

// New builds the shell. The chat view starts unbound and picks up the
// user on the first authenticated session change.
func New(theme *styles.Theme, session Session, backend Backend, wordWrap, historyLimit int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    spinnerFPS,
	}
	sp.Style = theme.Spinner

	return Model{
		theme:   theme,
		session: session,
		login:   login.New(theme, session),
		chat:    chat.New(theme, backend, "", wordWrap, historyLimit),
		courses: courses.New(theme, backend),
		profile: profile.New(theme, session),
		spin:    sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.login.Init(), m.courses.Init())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		if model, cmd, handled := m.handleGlobalKey(msg); handled {
			return model, cmd
		}

	case SessionChangedMsg:
		return m.handleSessionChange()

	case ConfigReloadedMsg:
		m.chat.SetWordWrap(msg.WordWrap)
		return m, nil

	case SignedOutMsg:
		if msg.Err != nil {
			log.Printf("app: sign-out: %v", msg.Err)
		}
		return m, nil

	case spinner.TickMsg:
		if m.session.State() == auth.StateResolving {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
	}

	return m.route(msg)
}

// handleGlobalKey handles shell-level keys; everything else falls
// through to the active view.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit, true
	case tea.KeyCtrlL:
		if m.session.State() == auth.StateAuthenticated {
			return m, signOutCmd(m.session), true
		}
	case tea.KeyF2:
		return m.switchTab(TabChat)
	case tea.KeyF3:
		return m.switchTab(TabCourses)
	case tea.KeyF4:
		return m.switchTab(TabProfile)
	}
	return m, nil, false
}

func (m Model) switchTab(tab Tab) (Model, tea.Cmd, bool) {
	if m.session.State() != auth.StateAuthenticated {
		return m, nil, false
	}
	m.tab = tab
	if tab == TabProfile {
		// Refresh from the manager's cache each time the tab opens.
		m.profile.SetProfile(m.session.Profile())
	}
	return m, nil, true
}

// handleSessionChange re-reads the manager and rebinds the dashboard
// when the signed-in user changed.
func (m Model) handleSessionChange() (Model, tea.Cmd) {
	switch m.session.State() {
	case auth.StateAuthenticated:
		user := m.session.User()
		if user == nil {
			return m, nil
		}
		var cmd tea.Cmd
		if user.ID != m.userID {
			m.userID = user.ID
			m.chat.SetUser(user.ID)
			m.tab = TabChat
			cmd = m.chat.Init()
		}
		m.profile.SetProfile(m.session.Profile())
		return m, cmd

	case auth.StateAnonymous:
		if m.userID != "" {
			m.userID = ""
			m.chat.SetUser("")
			m.profile.SetProfile(nil)
			m.tab = TabChat
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	inner := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - chromeRows}
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.login, cmd = m.login.Update(inner)
	cmds = append(cmds, cmd)
	m.chat, cmd = m.chat.Update(inner)
	cmds = append(cmds, cmd)
	m.courses, cmd = m.courses.Update(inner)
	cmds = append(cmds, cmd)
	m.profile, cmd = m.profile.Update(inner)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// route forwards a message to the view the session state selects.
func (m Model) route(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.session.State() {
	case auth.StateResolving:
		return m, nil
	case auth.StateAnonymous:
		m.login, cmd = m.login.Update(msg)
		return m, cmd
	default:
		switch m.tab {
		case TabCourses:
			m.courses, cmd = m.courses.Update(msg)
		case TabProfile:
			m.profile, cmd = m.profile.Update(msg)
		default:
			m.chat, cmd = m.chat.Update(msg)
		}
		return m, cmd
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// ActiveTab returns the dashboard tab currently showing.
func (m Model) ActiveTab() Tab {
	return m.tab
}
