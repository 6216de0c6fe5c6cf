// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const spinnerFPS = time.Second / 30

// signOutCmd revokes the session. The manager's change notification
// drives the view swap, this just reports the outcome.
func signOutCmd(session Session) tea.Cmd {
	return func() tea.Msg {
		return SignedOutMsg{Err: session.SignOut(context.Background())}
	}
}
