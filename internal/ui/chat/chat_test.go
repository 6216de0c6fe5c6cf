// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/advisor-tui/internal/api"
	"github.com/jeranaias/advisor-tui/internal/model"
	"github.com/jeranaias/advisor-tui/internal/ui/styles"
)

type fakeBackend struct {
	mu       sync.Mutex
	sends    []string
	reply    string
	sendErr  error
	history  []api.HistoryEntry
	histErr  error
}

func (f *fakeBackend) SendMessage(ctx context.Context, userID, message string) (*api.ChatReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, message)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &api.ChatReply{Response: f.reply, UserID: userID}, nil
}

func (f *fakeBackend) History(ctx context.Context, userID string, limit int) ([]api.HistoryEntry, error) {
	if f.histErr != nil {
		return nil, f.histErr
	}
	return f.history, nil
}

func (f *fakeBackend) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func newTestModel(backend Backend) Model {
	m := New(styles.NewTheme(), backend, "u1", 80, 0)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func typeInput(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

// =============================================================================
// SUBMIT TESTS
// =============================================================================

func TestSeededGreeting(t *testing.T) {
	m := newTestModel(&fakeBackend{})

	entries := m.Log().Entries()
	if len(entries) != 1 {
		t.Fatalf("log len = %d, want 1", len(entries))
	}
	if entries[0].Role != model.RoleAssistant || entries[0].Content != model.Greeting {
		t.Errorf("seed = %+v", entries[0])
	}
}

func TestBlankSubmitIsNoOp(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(backend)
	m = typeInput(m, "   ")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if cmd != nil {
		t.Error("blank submit must not produce a command")
	}
	if m.Log().Len() != 1 {
		t.Errorf("log len = %d, want 1 (unchanged)", m.Log().Len())
	}
	if m.InputValue() != "   " {
		t.Errorf("input = %q, blank submit must not clear the field", m.InputValue())
	}
	if m.Loading() {
		t.Error("loading must stay false")
	}
	if backend.sendCount() != 0 {
		t.Error("no network call may be issued")
	}
}

func TestSubmitAppendsUserEntryImmediately(t *testing.T) {
	m := newTestModel(&fakeBackend{reply: "ok"})
	m = typeInput(m, "What courses satisfy the CS minor?")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if cmd == nil {
		t.Fatal("valid submit must produce a command")
	}
	entries := m.Log().Entries()
	if len(entries) != 2 {
		t.Fatalf("log len = %d, want 2", len(entries))
	}
	last := entries[1]
	if last.Role != model.RoleUser || last.Content != "What courses satisfy the CS minor?" {
		t.Errorf("last = %+v", last)
	}
	if !m.Loading() {
		t.Error("loading must be true after submit")
	}
	if m.InputValue() != "" {
		t.Errorf("input = %q, want cleared", m.InputValue())
	}
}

func TestSubmitWhileLoadingIgnored(t *testing.T) {
	m := newTestModel(&fakeBackend{reply: "ok"})
	m = typeInput(m, "first")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m = typeInput(m, "second")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if cmd != nil {
		t.Error("submit while loading must be ignored")
	}
	if m.Log().Len() != 2 {
		t.Errorf("log len = %d, want 2", m.Log().Len())
	}
}

// =============================================================================
// SETTLEMENT TESTS
// =============================================================================

func TestReplySuccessAppendsAssistant(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m = typeInput(m, "What courses satisfy the CS minor?")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m, _ = m.Update(ReplyMsg{Text: "You need COMP 202, COMP 250, ..."})

	if m.Loading() {
		t.Error("loading must clear after settlement")
	}
	entries := m.Log().Entries()
	if len(entries) != 3 {
		t.Fatalf("log len = %d, want 3", len(entries))
	}
	last := entries[2]
	if last.Role != model.RoleAssistant || last.Kind != model.KindChat {
		t.Errorf("last = %+v", last)
	}
	if last.Content != "You need COMP 202, COMP 250, ..." {
		t.Errorf("content = %q", last.Content)
	}
}

func TestReplyFailureAppendsNotice(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m = typeInput(m, "anyone home?")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m, _ = m.Update(ReplyMsg{Err: errors.New("connection refused")})

	if m.Loading() {
		t.Error("loading must clear after failure too")
	}
	entries := m.Log().Entries()
	last := entries[len(entries)-1]
	if !last.IsNotice() {
		t.Error("failure must append a notice entry")
	}
	if last.Content != model.FallbackNotice {
		t.Errorf("content = %q, want fixed fallback", last.Content)
	}
}

func TestLogOrderIsChronological(t *testing.T) {
	m := newTestModel(&fakeBackend{})

	m = typeInput(m, "one")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(ReplyMsg{Text: "answer one"})
	m = typeInput(m, "two")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(ReplyMsg{Err: errors.New("down")})

	want := []string{model.Greeting, "one", "answer one", "two", model.FallbackNotice}
	entries := m.Log().Entries()
	if len(entries) != len(want) {
		t.Fatalf("log len = %d, want %d", len(entries), len(want))
	}
	for i, w := range want {
		if entries[i].Content != w {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i].Content, w)
		}
	}
}

// =============================================================================
// COMMAND TESTS
// =============================================================================

func TestSendMessageCmd(t *testing.T) {
	backend := &fakeBackend{reply: "COMP 202 is a great start."}

	msg := sendMessageCmd(backend, "u1", "beginner courses?")()
	reply, ok := msg.(ReplyMsg)
	if !ok {
		t.Fatalf("msg type = %T", msg)
	}
	if reply.Err != nil || reply.Text != "COMP 202 is a great start." {
		t.Errorf("reply = %+v", reply)
	}
	if backend.sendCount() != 1 || backend.sends[0] != "beginner courses?" {
		t.Errorf("sends = %v", backend.sends)
	}
}

func TestSendMessageCmdError(t *testing.T) {
	backend := &fakeBackend{sendErr: errors.New("refused")}

	msg := sendMessageCmd(backend, "u1", "hello")()
	reply := msg.(ReplyMsg)
	if reply.Err == nil {
		t.Error("error must ride in ReplyMsg.Err")
	}
}

func TestHistoryPreload(t *testing.T) {
	backend := &fakeBackend{history: []api.HistoryEntry{
		{Role: "user", Content: "old question"},
		{Role: "assistant", Content: "old answer"},
	}}
	m := New(styles.NewTheme(), backend, "u1", 80, 20)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init must start the history preload")
	}
	m, _ = m.Update(cmd().(HistoryMsg))

	// History is display-only: the live log still has only the seed.
	if m.Log().Len() != 1 {
		t.Errorf("log len = %d, want 1", m.Log().Len())
	}
	if len(m.history) != 2 {
		t.Errorf("history len = %d, want 2", len(m.history))
	}
}

func TestHistoryPreloadDisabled(t *testing.T) {
	m := New(styles.NewTheme(), &fakeBackend{}, "u1", 80, 0)
	if m.Init() != nil {
		t.Error("historyLimit 0 must disable the preload")
	}
}
