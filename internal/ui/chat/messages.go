// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/advisor-tui/internal/api"
)

// spinnerFPS paces the thinking spinner.
const spinnerFPS = time.Second / 30

// ReplyMsg settles one in-flight send: either the advisor's reply text
// or the error that prevented it. Exactly one ReplyMsg is delivered per
// submit.
type ReplyMsg struct {
	Text string
	Err  error
}

// HistoryMsg delivers the server-side transcript preload.
type HistoryMsg struct {
	Entries []api.HistoryEntry
	Err     error
}

// sendMessageCmd issues one backend call for a submitted message. The
// command always resolves to a ReplyMsg; failures ride in Err rather
// than being re-thrown, so the reply handler is the single settle point.
func sendMessageCmd(backend Backend, userID, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := backend.SendMessage(context.Background(), userID, text)
		if err != nil {
			return ReplyMsg{Err: err}
		}
		return ReplyMsg{Text: reply.Response}
	}
}

// loadHistoryCmd fetches the persisted transcript for display.
func loadHistoryCmd(backend Backend, userID string, limit int) tea.Cmd {
	return func() tea.Msg {
		entries, err := backend.History(context.Background(), userID, limit)
		return HistoryMsg{Entries: entries, Err: err}
	}
}
