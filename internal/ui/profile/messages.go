// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package profile

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/advisor-tui/internal/api"
)

const spinnerFPS = time.Second / 30

// saveCmd dispatches one partial profile update.
func saveCmd(updater Updater, upd api.ProfileUpdate) tea.Cmd {
	return func() tea.Msg {
		p, err := updater.UpdateProfile(context.Background(), upd)
		return SavedMsg{Profile: p, Err: err}
	}
}
