// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the chat log data model for the advisor client.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/advisor-tui/internal/util"
)

// Role identifies the conversational side of a chat entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Advisor"
	default:
		return string(r)
	}
}

// Kind distinguishes conversational content from system-level notices.
// A notice is not part of the conversation: it is never sent to the
// backend and is always rendered as plain text, while assistant chat
// content is interpreted as markdown. Keeping this a separate axis from
// Role means renderers and tests never have to sniff roles or strings to
// tell real content from a failure notice.
type Kind int

const (
	// KindChat is conversational content from the user or the advisor.
	KindChat Kind = iota
	// KindNotice is a system-level status or failure notice.
	KindNotice
)

// Entry is a single chat log entry. Entries are immutable after creation;
// the log owns ordering.
type Entry struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Kind      Kind      `json:"kind"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserEntry creates a conversational entry from the user.
func NewUserEntry(content string) Entry {
	return newEntry(RoleUser, KindChat, content)
}

// NewAssistantEntry creates a conversational entry from the advisor.
func NewAssistantEntry(content string) Entry {
	return newEntry(RoleAssistant, KindChat, content)
}

// NewNotice creates a system-level notice entry. Notices carry the
// assistant role for layout purposes but are never interpreted as markup
// and never leave the client.
func NewNotice(content string) Entry {
	return newEntry(RoleAssistant, KindNotice, content)
}

func newEntry(role Role, kind Kind, content string) Entry {
	return Entry{
		ID:        "ent_" + uuid.NewString(),
		Role:      role,
		Kind:      kind,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// IsNotice reports whether the entry is a system-level notice rather than
// conversational content.
func (e Entry) IsNotice() bool {
	return e.Kind == KindNotice
}

// Preview returns a truncated, single-line preview of the content.
func (e Entry) Preview(maxRunes int) string {
	return util.TruncateRunes(e.Content, maxRunes)
}
