// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package login

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const spinnerFPS = time.Second / 30

// signInCmd runs one sign-in attempt and settles with a ResultMsg.
func signInCmd(auth Authenticator, email, password string) tea.Cmd {
	return func() tea.Msg {
		if err := auth.SignIn(context.Background(), email, password); err != nil {
			return ResultMsg{Err: err}
		}
		return ResultMsg{SignedIn: true}
	}
}

// signUpCmd runs one sign-up attempt. A nil error with SignedIn false
// means the account exists but awaits email confirmation.
func signUpCmd(auth Authenticator, email, password, displayName string) tea.Cmd {
	return func() tea.Msg {
		signedIn, err := auth.SignUp(context.Background(), email, password, displayName)
		if err != nil {
			return ResultMsg{Err: err}
		}
		return ResultMsg{SignedIn: signedIn, Pending: !signedIn}
	}
}
