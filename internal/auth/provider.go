// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth manages the signed-in identity for the advisor client.
//
// A Provider wraps the external authentication service; the Manager sits
// on top of it as the single source of truth for "who is signed in",
// with an explicit Start/Close lifecycle instead of ambient global state.
package auth

import (
	"context"
	"errors"
	"time"
)

// Errors returned by providers.
var (
	// ErrInvalidCredentials indicates a rejected email/password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNoSession indicates no identity is currently signed in.
	ErrNoSession = errors.New("no active session")

	// ErrEmailTaken indicates sign-up with an already registered email.
	ErrEmailTaken = errors.New("email already registered")
)

// User is the provider-owned identity, distinct from the application-side
// profile record.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// Session is the provider's notion of a signed-in identity, including the
// bearer access token attached to backend requests.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the access token is past (or within leeway of)
// its expiry.
func (s *Session) Expired(leeway time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(leeway).After(s.ExpiresAt)
}

// Provider is the external authentication service. Implementations own
// credential verification and session persistence; the client never
// stores passwords.
//
// CurrentSession returns ErrNoSession when nobody is signed in. SignUp
// may return a nil session with a nil error when the provider requires
// email confirmation before the first sign-in.
type Provider interface {
	CurrentSession(ctx context.Context) (*Session, error)
	SignUp(ctx context.Context, email, password, displayName string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error

	// OnChange registers a callback invoked whenever the session changes
	// (sign-in, sign-out, token refresh). The callback receives the new
	// session, or nil on sign-out. The returned function unsubscribes.
	OnChange(fn func(*Session)) (unsubscribe func())
}
