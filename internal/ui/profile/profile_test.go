// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package profile

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/advisor-tui/internal/api"
	"github.com/jeranaias/advisor-tui/internal/ui/styles"
)

type fakeUpdater struct {
	calls   int
	lastUpd api.ProfileUpdate
	result  *api.Profile
	err     error
}

func (f *fakeUpdater) UpdateProfile(ctx context.Context, upd api.ProfileUpdate) (*api.Profile, error) {
	f.calls++
	f.lastUpd = upd
	return f.result, f.err
}

func strp(s string) *string { return &s }
func intp(i int) *int { return &i }
func floatp(f float64) *float64 { return &f }

func serverProfile() *api.Profile {
	return &api.Profile{
		ID:         "u1",
		Email:      "a@mcgill.ca",
		Username:   strp("ada"),
		Major:      strp("Computer Science"),
		Year:       intp(2),
		CurrentGPA: floatp(3.5),
	}
}

func pressEnter(m Model) (Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid", "ada_l0velace", false},
		{"min length", "abc", false},
		{"too short", "ab", true},
		{"too long", "abcdefghijklmnopqrstu", true},
		{"space", "ada lovelace", true},
		{"punctuation", "ada!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validateUsername(tt.username)
			if (got != "") != tt.wantErr {
				t.Errorf("validateUsername(%q) = %q", tt.username, got)
			}
		})
	}
}

func TestFieldValidationBlocksSave(t *testing.T) {
	tests := []struct {
		name  string
		field int
		value string
	}{
		{"year zero", fieldYear, "0"},
		{"year eleven", fieldYear, "11"},
		{"year not a number", fieldYear, "x"},
		{"gpa over scale", fieldGPA, "4.5"},
		{"gpa not a number", fieldGPA, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fu := &fakeUpdater{}
			m := New(styles.NewTheme(), fu)
			m.inputs[tt.field].SetValue(tt.value)

			m, cmd := pressEnter(m)

			if cmd != nil || fu.calls != 0 {
				t.Error("invalid value must never leave the client")
			}
			if m.ErrorMessage() == "" {
				t.Error("want inline validation error")
			}
		})
	}
}

// =============================================================================
// DIFF AND SAVE TESTS
// =============================================================================

func TestSaveSendsOnlyChangedFields(t *testing.T) {
	m := New(styles.NewTheme(), &fakeUpdater{})
	m.SetProfile(serverProfile())

	m.inputs[fieldYear].SetValue("3")

	upd, errMsg := m.buildUpdate()
	if errMsg != "" {
		t.Fatalf("errMsg = %q", errMsg)
	}
	if upd.Year == nil || *upd.Year != 3 {
		t.Errorf("year = %v", upd.Year)
	}
	if upd.Username != nil || upd.Major != nil || upd.CurrentGPA != nil {
		t.Errorf("unchanged fields must stay nil: %+v", upd)
	}
}

func TestNoChangesSkipsRequest(t *testing.T) {
	fu := &fakeUpdater{}
	m := New(styles.NewTheme(), fu)
	m.SetProfile(serverProfile())

	m, cmd := pressEnter(m)

	if cmd != nil || fu.calls != 0 {
		t.Error("an unchanged form must not issue a request")
	}
	if m.infoMsg == "" {
		t.Error("want 'nothing to save' notice")
	}
}

func TestSavedReloadsServerCopy(t *testing.T) {
	server := serverProfile()
	server.Username = strp("ada2")
	m := New(styles.NewTheme(), &fakeUpdater{})
	m.saving = true

	m, _ = m.Update(SavedMsg{Profile: server})

	if m.Saving() {
		t.Error("saving must clear")
	}
	if m.inputs[fieldUsername].Value() != "ada2" {
		t.Errorf("username = %q, form must reload the server copy", m.inputs[fieldUsername].Value())
	}
	if m.infoMsg != "Profile saved." {
		t.Errorf("info = %q", m.infoMsg)
	}
}

func TestSaveFailureShowsFriendlyError(t *testing.T) {
	m := New(styles.NewTheme(), &fakeUpdater{})
	m.saving = true

	m, _ = m.Update(SavedMsg{Err: errors.New("500 internal")})

	if m.Saving() {
		t.Error("saving must clear on failure")
	}
	if m.ErrorMessage() == "" {
		t.Error("want friendly error")
	}
}

func TestSaveCmdCarriesUpdate(t *testing.T) {
	fu := &fakeUpdater{result: serverProfile()}
	year := 4

	msg := saveCmd(fu, api.ProfileUpdate{Year: &year})()

	saved := msg.(SavedMsg)
	if saved.Err != nil || saved.Profile == nil {
		t.Fatalf("saved = %+v", saved)
	}
	if fu.lastUpd.Year == nil || *fu.lastUpd.Year != 4 {
		t.Errorf("upd = %+v", fu.lastUpd)
	}
}

// =============================================================================
// FORM BEHAVIOR TESTS
// =============================================================================

func TestEscRevertsEdits(t *testing.T) {
	m := New(styles.NewTheme(), &fakeUpdater{})
	m.SetProfile(serverProfile())
	m.inputs[fieldMajor].SetValue("Basket Weaving")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if m.inputs[fieldMajor].Value() != "Computer Science" {
		t.Errorf("major = %q, esc must revert to the server copy", m.inputs[fieldMajor].Value())
	}
}

func TestTabCyclesAllFields(t *testing.T) {
	m := New(styles.NewTheme(), &fakeUpdater{})
	for i := 0; i < fieldCount; i++ {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	}
	if m.focus != fieldUsername {
		t.Errorf("focus = %d, want wrap to username", m.focus)
	}
}

func TestKeysIgnoredWhileSaving(t *testing.T) {
	fu := &fakeUpdater{}
	m := New(styles.NewTheme(), fu)
	m.saving = true

	m, cmd := pressEnter(m)
	if cmd != nil || fu.calls != 0 {
		t.Error("save while in flight must be ignored")
	}
}
