// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Greeting is the assistant entry every new log is seeded with.
const Greeting = "Hi! I'm your McGill course advisor. Ask me about courses, prerequisites, or program planning! 🎓"

// FallbackNotice is appended when the backend cannot be reached.
const FallbackNotice = "❌ Sorry, I couldn't reach the server. Is the backend running?"

// MaxEntries caps the in-memory log. When exceeded, the oldest entries
// after the seed greeting are pruned.
const MaxEntries = 1000

// Log is an append-only ordered sequence of chat entries, seeded with the
// advisor greeting. Insertion order is display order; entries are never
// reordered or mutated. Not goroutine safe: the chat view owns the log and
// all access happens on the UI update loop.
type Log struct {
	entries []Entry
}

// NewLog creates a log seeded with the greeting entry.
func NewLog() *Log {
	return &Log{
		entries: []Entry{NewAssistantEntry(Greeting)},
	}
}

// Append adds an entry at the end of the log, pruning the oldest non-seed
// entries if the cap is exceeded.
func (l *Log) Append(e Entry) {
	l.entries = append(l.entries, e)
	if len(l.entries) > MaxEntries {
		// Keep the seed greeting at index 0.
		excess := len(l.entries) - MaxEntries
		l.entries = append(l.entries[:1], l.entries[1+excess:]...)
	}
}

// Entries returns a copy of the log in display order.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries in the log.
func (l *Log) Len() int {
	return len(l.entries)
}

// Last returns the most recent entry and true, or a zero entry and false
// when the log is empty.
func (l *Log) Last() (Entry, bool) {
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Conversational returns only the chat-kind entries, in order. This is
// what gets sent to the backend as context; notices never leave the
// client.
func (l *Log) Conversational() []Entry {
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if e.Kind == KindChat {
			out = append(out, e)
		}
	}
	return out
}
