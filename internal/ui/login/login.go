// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login implements the sign-in / sign-up form shown while the
// session is anonymous.
package login

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/advisor-tui/internal/auth"
	"github.com/jeranaias/advisor-tui/internal/ui/styles"
)

// =============================================================================
// MODEL
// =============================================================================

// Authenticator is the slice of the session manager the form drives.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password, displayName string) (signedIn bool, err error)
}

type mode int

const (
	modeSignIn mode = iota
	modeSignUp
)

// Field indices into Model.inputs.
const (
	fieldEmail = iota
	fieldPassword
	fieldDisplayName
	fieldCount
)

const minPasswordLen = 6

// ResultMsg settles one submitted sign-in or sign-up attempt.
type ResultMsg struct {
	SignedIn bool
	// Pending means sign-up succeeded but email confirmation is
	// required before a session exists.
	Pending bool
	Err     error
}

// Model is the Bubble Tea model for the authentication form.
type Model struct {
	theme *styles.Theme
	auth  Authenticator

	mode   mode
	inputs []textinput.Model
	focus  int
	spin   spinner.Model

	errMsg     string
	infoMsg    string
	submitting bool

	width  int
	height int
}

// New creates the authentication form in sign-in mode.
func New(theme *styles.Theme, authenticator Authenticator) Model {
	inputs := make([]textinput.Model, fieldCount)

	email := textinput.New()
	email.Prompt = ""
	email.Placeholder = "you@mail.mcgill.ca"
	email.CharLimit = 254
	email.Focus()
	inputs[fieldEmail] = email

	password := textinput.New()
	password.Prompt = ""
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'
	inputs[fieldPassword] = password

	display := textinput.New()
	display.Prompt = ""
	display.Placeholder = "display name (optional)"
	display.CharLimit = 64
	inputs[fieldDisplayName] = display

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    spinnerFPS,
	}
	sp.Style = theme.Spinner

	return Model{
		theme:  theme,
		auth:   authenticator,
		inputs: inputs,
		spin:   sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case ResultMsg:
		return m.handleResult(msg)
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.submitting {
		// The form is locked while an attempt is in flight.
		return m, nil
	}

	switch msg.Type {
	case tea.KeyTab, tea.KeyDown:
		m.setFocus(m.nextField(1))
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.setFocus(m.nextField(-1))
		return m, nil
	case tea.KeyEnter:
		return m.submit()
	case tea.KeyCtrlT:
		m.toggleMode()
		return m, nil
	}

	return m.updateFocused(msg)
}

func (m Model) updateFocused(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// fieldsInUse reports how many leading fields the current mode shows.
func (m Model) fieldsInUse() int {
	if m.mode == modeSignUp {
		return fieldCount
	}
	return fieldDisplayName
}

func (m Model) nextField(dir int) int {
	n := m.fieldsInUse()
	return ((m.focus+dir)%n + n) % n
}

func (m *Model) setFocus(idx int) {
	m.inputs[m.focus].Blur()
	m.focus = idx
	m.inputs[m.focus].Focus()
}

func (m *Model) toggleMode() {
	if m.mode == modeSignIn {
		m.mode = modeSignUp
	} else {
		m.mode = modeSignIn
		if m.focus >= m.fieldsInUse() {
			m.setFocus(fieldEmail)
		}
	}
	m.errMsg = ""
	m.infoMsg = ""
}

// =============================================================================
// SUBMIT
// =============================================================================

// submit validates the form locally and dispatches the auth call. Local
// validation failures never leave the client.
func (m Model) submit() (Model, tea.Cmd) {
	email := strings.TrimSpace(m.inputs[fieldEmail].Value())
	password := m.inputs[fieldPassword].Value()

	if err := validate(email, password); err != "" {
		m.errMsg = err
		return m, nil
	}

	m.errMsg = ""
	m.infoMsg = ""
	m.submitting = true

	var attempt tea.Cmd
	if m.mode == modeSignUp {
		display := strings.TrimSpace(m.inputs[fieldDisplayName].Value())
		attempt = signUpCmd(m.auth, email, password, display)
	} else {
		attempt = signInCmd(m.auth, email, password)
	}
	return m, tea.Batch(m.spin.Tick, attempt)
}

func validate(email, password string) string {
	if email == "" {
		return "Email is required."
	}
	if !strings.Contains(email, "@") {
		return "That doesn't look like an email address."
	}
	if len(password) < minPasswordLen {
		return "Password must be at least 6 characters."
	}
	return ""
}

func (m Model) handleResult(msg ResultMsg) (Model, tea.Cmd) {
	m.submitting = false

	if msg.Err != nil {
		m.errMsg = messageFor(msg.Err)
		return m, nil
	}
	if msg.Pending {
		m.infoMsg = "Account created. Check your inbox to confirm, then sign in."
		m.mode = modeSignIn
		m.inputs[fieldPassword].Reset()
		if m.focus >= m.fieldsInUse() {
			m.setFocus(fieldEmail)
		}
		return m, nil
	}
	// Signed in: the app shell swaps views on the session change, the
	// form just clears itself.
	m.inputs[fieldPassword].Reset()
	return m, nil
}

// messageFor maps auth failures to user-facing text. Raw error strings
// stay in the log, never on screen.
func messageFor(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, auth.ErrEmailTaken):
		return "That email is already registered. Try signing in."
	default:
		return "Couldn't reach the sign-in service. Please try again."
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the centered form box.
func (m Model) View() string {
	var b strings.Builder

	title := "Sign in"
	if m.mode == modeSignUp {
		title = "Create account"
	}
	b.WriteString(m.theme.HeaderTitle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(m.renderField("Email", fieldEmail))
	b.WriteString("\n")
	b.WriteString(m.renderField("Password", fieldPassword))
	if m.mode == modeSignUp {
		b.WriteString("\n")
		b.WriteString(m.renderField("Display name", fieldDisplayName))
	}

	if m.submitting {
		b.WriteString("\n\n")
		b.WriteString(m.spin.View() + " " + m.theme.ThinkingText.Render("Signing in..."))
	} else if m.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(m.theme.FormError.Render(m.errMsg))
	} else if m.infoMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(m.theme.FormHint.Render(m.infoMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderShortcuts())

	box := m.theme.FormBox.Render(b.String())
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderField(label string, idx int) string {
	style := m.theme.FormLabel
	if m.focus == idx {
		style = m.theme.FormLabelFocus
	}
	return style.Render(label) + "\n" + m.inputs[idx].View()
}

func (m Model) renderShortcuts() string {
	other := "create account"
	if m.mode == modeSignUp {
		other = "sign in"
	}
	return m.theme.ShortcutKey.Render("enter") + m.theme.ShortcutDesc.Render(" submit  ") +
		m.theme.ShortcutKey.Render("tab") + m.theme.ShortcutDesc.Render(" next  ") +
		m.theme.ShortcutKey.Render("^t") + m.theme.ShortcutDesc.Render(" "+other)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Submitting reports whether an attempt is in flight.
func (m Model) Submitting() bool {
	return m.submitting
}

// ErrorMessage returns the inline validation or auth error, if any.
func (m Model) ErrorMessage() string {
	return m.errMsg
}

// InfoMessage returns the inline informational notice, if any.
func (m Model) InfoMessage() string {
	return m.infoMsg
}
