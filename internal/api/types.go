// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

// Backend request/response shapes. Field names mirror the wire format
// exactly; the backend is the source of truth for validation ranges.

// ChatReply is the response to an authenticated chat send.
type ChatReply struct {
	Response   string `json:"response"`
	UserID     string `json:"user_id"`
	TokensUsed *int   `json:"tokens_used,omitempty"`
}

// HistoryEntry is one persisted message from the server-side history.
type HistoryEntry struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at,omitempty"`
}

// SimpleMessage is one turn of context for the unauthenticated /chat
// endpoint.
type SimpleMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CourseSummary is one row of a course search result.
type CourseSummary struct {
	ID         int      `json:"id"`
	Subject    string   `json:"subject"`
	Catalog    string   `json:"catalog"`
	Title      string   `json:"title"`
	Average    *float64 `json:"average"`
	Instructor *string  `json:"instructor"`
	Term       *string  `json:"term"`
}

// CourseDetail aggregates all sections of one course.
type CourseDetail struct {
	Subject      string          `json:"subject"`
	Catalog      string          `json:"catalog"`
	Title        string          `json:"title"`
	AverageGrade *float64        `json:"average_grade"`
	NumSections  int             `json:"num_sections"`
	Sections     []CourseSection `json:"sections"`
}

// CourseSection is one offering of a course.
type CourseSection struct {
	ID         int      `json:"id,omitempty"`
	Subject    string   `json:"subject,omitempty"`
	Catalog    string   `json:"catalog,omitempty"`
	Title      string   `json:"title,omitempty"`
	Average    *float64 `json:"average"`
	Instructor *string  `json:"instructor"`
	Term       *string  `json:"term"`
}

// Profile is the application-side user record, distinct from the auth
// provider's session identity.
type Profile struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	Username   *string  `json:"username"`
	Major      *string  `json:"major"`
	Year       *int     `json:"year"`
	Interests  *string  `json:"interests"`
	CurrentGPA *float64 `json:"current_gpa"`
	CreatedAt  *string  `json:"created_at,omitempty"`
}

// NewProfile is the payload for profile creation. ID and Email come from
// the auth provider's session.
type NewProfile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// ProfileUpdate carries partial profile changes. Nil fields are omitted
// from the request and left unchanged by the server.
type ProfileUpdate struct {
	Username   *string  `json:"username,omitempty"`
	Major      *string  `json:"major,omitempty"`
	Year       *int     `json:"year,omitempty"`
	Interests  *string  `json:"interests,omitempty"`
	CurrentGPA *float64 `json:"current_gpa,omitempty"`
}

// IsEmpty reports whether the update carries no changes. The backend
// rejects empty updates, so callers short-circuit instead.
func (u ProfileUpdate) IsEmpty() bool {
	return u.Username == nil && u.Major == nil && u.Year == nil &&
		u.Interests == nil && u.CurrentGPA == nil
}
