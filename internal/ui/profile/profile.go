// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package profile implements the profile editor form. Validation here
// mirrors the backend's ranges so bad values never leave the client.
package profile

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/advisor-tui/internal/api"
	"github.com/jeranaias/advisor-tui/internal/ui/styles"
)

// =============================================================================
// MODEL
// =============================================================================

// Updater is the slice of the session manager the editor drives.
type Updater interface {
	UpdateProfile(ctx context.Context, upd api.ProfileUpdate) (*api.Profile, error)
}

// Field indices into Model.inputs.
const (
	fieldUsername = iota
	fieldMajor
	fieldYear
	fieldInterests
	fieldGPA
	fieldCount
)

// Backend validation ranges, mirrored client-side.
const (
	usernameMin  = 3
	usernameMax  = 20
	majorMax     = 100
	yearMin      = 1
	yearMax      = 10
	interestsMax = 500
	gpaMin       = 0.0
	gpaMax       = 4.0
)

var fieldLabels = [fieldCount]string{"Username", "Major", "Year", "Interests", "GPA"}

// SavedMsg settles one save attempt with the server's copy of the
// profile.
type SavedMsg struct {
	Profile *api.Profile
	Err     error
}

// Model is the Bubble Tea model for the profile editor.
type Model struct {
	theme   *styles.Theme
	updater Updater

	inputs []textinput.Model
	focus  int
	spin   spinner.Model

	// current is the last server copy, the baseline for diffing.
	current *api.Profile

	errMsg  string
	infoMsg string
	saving  bool

	width  int
	height int
}

// New creates the profile editor.
func New(theme *styles.Theme, updater Updater) Model {
	inputs := make([]textinput.Model, fieldCount)

	placeholders := [fieldCount]string{
		"3-20 letters, digits, underscores",
		"e.g. Computer Science",
		"1-10",
		"what you're into",
		"0.0-4.0",
	}
	limits := [fieldCount]int{usernameMax, majorMax, 2, interestsMax, 4}

	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholders[i]
		ti.CharLimit = limits[i]
		inputs[i] = ti
	}
	inputs[fieldUsername].Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    spinnerFPS,
	}
	sp.Style = theme.Spinner

	return Model{
		theme:   theme,
		updater: updater,
		inputs:  inputs,
		spin:    sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetProfile loads the server copy into the form, replacing any edits.
func (m *Model) SetProfile(p *api.Profile) {
	m.current = p
	for i := range m.inputs {
		m.inputs[i].Reset()
	}
	if p == nil {
		return
	}
	if p.Username != nil {
		m.inputs[fieldUsername].SetValue(*p.Username)
	}
	if p.Major != nil {
		m.inputs[fieldMajor].SetValue(*p.Major)
	}
	if p.Year != nil {
		m.inputs[fieldYear].SetValue(strconv.Itoa(*p.Year))
	}
	if p.Interests != nil {
		m.inputs[fieldInterests].SetValue(*p.Interests)
	}
	if p.CurrentGPA != nil {
		m.inputs[fieldGPA].SetValue(strconv.FormatFloat(*p.CurrentGPA, 'f', 2, 64))
	}
}

// Update handles messages for the editor.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.saving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case SavedMsg:
		return m.handleSaved(msg)
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.saving {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyTab, tea.KeyDown:
		m.setFocus((m.focus + 1) % fieldCount)
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.setFocus((m.focus + fieldCount - 1) % fieldCount)
		return m, nil
	case tea.KeyEnter:
		return m.save()
	case tea.KeyEsc:
		// Revert to the server copy.
		m.SetProfile(m.current)
		m.errMsg = ""
		m.infoMsg = ""
		return m, nil
	}

	return m.updateFocused(msg)
}

func (m Model) updateFocused(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(idx int) {
	m.inputs[m.focus].Blur()
	m.focus = idx
	m.inputs[m.focus].Focus()
}

// =============================================================================
// SAVE
// =============================================================================

// save validates the form, diffs it against the server copy, and
// dispatches the partial update. No changes means no request.
func (m Model) save() (Model, tea.Cmd) {
	upd, errMsg := m.buildUpdate()
	if errMsg != "" {
		m.errMsg = errMsg
		m.infoMsg = ""
		return m, nil
	}
	if upd.IsEmpty() {
		m.errMsg = ""
		m.infoMsg = "Nothing to save."
		return m, nil
	}

	m.errMsg = ""
	m.infoMsg = ""
	m.saving = true
	return m, tea.Batch(m.spin.Tick, saveCmd(m.updater, upd))
}

// buildUpdate validates every field and returns the diff against the
// server copy. The first invalid field wins.
func (m Model) buildUpdate() (api.ProfileUpdate, string) {
	var upd api.ProfileUpdate

	username := strings.TrimSpace(m.inputs[fieldUsername].Value())
	if username != "" {
		if msg := validateUsername(username); msg != "" {
			return upd, msg
		}
		if m.current == nil || m.current.Username == nil || *m.current.Username != username {
			upd.Username = &username
		}
	}

	major := strings.TrimSpace(m.inputs[fieldMajor].Value())
	if major != "" {
		if len([]rune(major)) > majorMax {
			return upd, fmt.Sprintf("Major must be at most %d characters.", majorMax)
		}
		if m.current == nil || m.current.Major == nil || *m.current.Major != major {
			upd.Major = &major
		}
	}

	if raw := strings.TrimSpace(m.inputs[fieldYear].Value()); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || year < yearMin || year > yearMax {
			return upd, fmt.Sprintf("Year must be a number from %d to %d.", yearMin, yearMax)
		}
		if m.current == nil || m.current.Year == nil || *m.current.Year != year {
			upd.Year = &year
		}
	}

	interests := strings.TrimSpace(m.inputs[fieldInterests].Value())
	if interests != "" {
		if len([]rune(interests)) > interestsMax {
			return upd, fmt.Sprintf("Interests must be at most %d characters.", interestsMax)
		}
		if m.current == nil || m.current.Interests == nil || *m.current.Interests != interests {
			upd.Interests = &interests
		}
	}

	if raw := strings.TrimSpace(m.inputs[fieldGPA].Value()); raw != "" {
		gpa, err := strconv.ParseFloat(raw, 64)
		if err != nil || gpa < gpaMin || gpa > gpaMax {
			return upd, "GPA must be between 0.0 and 4.0."
		}
		if m.current == nil || m.current.CurrentGPA == nil || *m.current.CurrentGPA != gpa {
			upd.CurrentGPA = &gpa
		}
	}

	return upd, ""
}

func validateUsername(username string) string {
	runes := []rune(username)
	if len(runes) < usernameMin || len(runes) > usernameMax {
		return fmt.Sprintf("Username must be %d-%d characters.", usernameMin, usernameMax)
	}
	for _, r := range runes {
		ok := r == '_' ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9')
		if !ok {
			return "Username may only contain letters, digits, and underscores."
		}
	}
	return ""
}

func (m Model) handleSaved(msg SavedMsg) (Model, tea.Cmd) {
	m.saving = false

	if msg.Err != nil {
		m.errMsg = "Couldn't save your profile. Please try again."
		return m, nil
	}
	// The server copy is authoritative, reload the form from it.
	m.SetProfile(msg.Profile)
	m.infoMsg = "Profile saved."
	return m, nil
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the editor box.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.HeaderTitle.Render("Your profile"))
	if m.current != nil && m.current.Email != "" {
		b.WriteString("  ")
		b.WriteString(m.theme.HeaderSubtitle.Render(m.current.Email))
	}
	b.WriteString("\n\n")

	for i := 0; i < fieldCount; i++ {
		style := m.theme.FormLabel
		if m.focus == i {
			style = m.theme.FormLabelFocus
		}
		b.WriteString(style.Render(fieldLabels[i]))
		b.WriteString("\n")
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}

	if m.saving {
		b.WriteString("\n")
		b.WriteString(m.spin.View() + " " + m.theme.ThinkingText.Render("Saving..."))
	} else if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.FormError.Render(m.errMsg))
	} else if m.infoMsg != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.FormHint.Render(m.infoMsg))
	}

	b.WriteString("\n")
	b.WriteString(m.theme.ShortcutKey.Render("enter") + m.theme.ShortcutDesc.Render(" save  ") +
		m.theme.ShortcutKey.Render("tab") + m.theme.ShortcutDesc.Render(" next  ") +
		m.theme.ShortcutKey.Render("esc") + m.theme.ShortcutDesc.Render(" revert"))

	box := m.theme.FormBox.Render(b.String())
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Saving reports whether a save is in flight.
func (m Model) Saving() bool {
	return m.saving
}

// ErrorMessage returns the inline validation or save error, if any.
func (m Model) ErrorMessage() string {
	return m.errMsg
}

// Current returns the last server copy loaded into the form.
func (m Model) Current() *api.Profile {
	return m.current
}
