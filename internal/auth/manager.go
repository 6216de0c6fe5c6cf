// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/jeranaias/advisor-tui/internal/api"
)

// =============================================================================
// STATE
// =============================================================================

// State is the manager's position in its lifecycle.
type State int

const (
	// StateResolving holds from construction until the first session
	// lookup settles. It is never re-entered afterwards.
	StateResolving State = iota

	// StateAnonymous means nobody is signed in.
	StateAnonymous

	// StateAuthenticated means a live session exists. The profile may
	// still be nil if its load failed; that does not demote the state.
	StateAuthenticated
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// ProfileAPI is the slice of the backend client the manager needs for
// profile records.
type ProfileAPI interface {
	CreateProfile(ctx context.Context, p api.NewProfile) (*api.Profile, error)
	Profile(ctx context.Context, userID string) (*api.Profile, error)
	UpdateProfile(ctx context.Context, userID string, upd api.ProfileUpdate) (*api.Profile, error)
}

// ProviderTokenSource adapts a Provider into an api.TokenSource. The
// token is looked up fresh per request; no session simply omits the
// header.
type ProviderTokenSource struct {
	Provider Provider
}

// Token implements api.TokenSource.
func (t ProviderTokenSource) Token(ctx context.Context) (string, error) {
	sess, err := t.Provider.CurrentSession(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return "", nil
		}
		return "", err
	}
	return sess.AccessToken, nil
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager is the single source of truth for the signed-in identity. It is
// constructed explicitly and passed down to the views; lifecycle is
// Start (resolve session, subscribe to provider changes) then Close
// (unsubscribe). All accessors are safe for concurrent use.
type Manager struct {
	provider Provider
	profiles ProfileAPI

	mu      sync.RWMutex
	state   State
	user    *User
	profile *api.Profile

	// profileGen serializes profile loads: each load takes the next
	// generation and only the newest generation may write its result, so
	// a slow stale fetch never overwrites a fresher one.
	profileGen uint64

	unsubscribe func()
	onChange    func()
}

// NewManager creates a manager over the given provider and profile API.
func NewManager(provider Provider, profiles ProfileAPI) *Manager {
	return &Manager{
		provider: provider,
		profiles: profiles,
		state:    StateResolving,
	}
}

// SetOnChange registers a callback invoked after every state, user, or
// profile change. Must be set before Start. The callback runs on the
// goroutine that caused the change; keep it cheap (the UI adapts it into
// a message send).
func (m *Manager) SetOnChange(fn func()) {
	m.onChange = fn
}

// Start subscribes to provider notifications and kicks off the initial
// asynchronous session resolution.
func (m *Manager) Start(ctx context.Context) {
	m.unsubscribe = m.provider.OnChange(func(sess *Session) {
		m.applySession(ctx, sess)
	})

	go func() {
		sess, err := m.provider.CurrentSession(ctx)
		if err != nil && !errors.Is(err, ErrNoSession) {
			log.Printf("auth: session resolution failed: %v", err)
		}
		m.applySession(ctx, sess)
	}()
}

// Close releases the provider subscription. The manager keeps its last
// state for readers but receives no further notifications.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// User returns the signed-in identity, or nil when anonymous.
func (m *Manager) User() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// Profile returns the application-side profile record. Nil whenever the
// user is nil, and also when the profile load failed.
func (m *Manager) Profile() *api.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile
}

// =============================================================================
// OPERATIONS
// =============================================================================

// SignUp registers a new identity and, when the provider returns a live
// session immediately, creates the application-side profile record.
// Profile creation failure is logged and swallowed: the identity exists
// either way and the profile can be created later.
//
// Returns (false, nil) when the provider requires email confirmation
// before the first sign-in.
func (m *Manager) SignUp(ctx context.Context, email, password, displayName string) (signedIn bool, err error) {
	sess, err := m.provider.SignUp(ctx, email, password, displayName)
	if err != nil {
		return false, err
	}
	if sess == nil {
		return false, nil
	}

	if _, err := m.profiles.CreateProfile(ctx, api.NewProfile{
		ID:       sess.User.ID,
		Email:    sess.User.Email,
		Username: displayName,
	}); err != nil && !errors.Is(err, api.ErrConflict) {
		log.Printf("auth: profile creation after sign-up failed: %v", err)
	}

	m.applySession(ctx, sess)
	return true, nil
}

// SignIn exchanges credentials for a session.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	sess, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	m.applySession(ctx, sess)
	return nil
}

// SignOut ends the current session. User and profile become nil.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.provider.SignOut(ctx); err != nil {
		return err
	}
	m.applySession(ctx, nil)
	return nil
}

// UpdateProfile applies a partial profile update. A no-op when not
// authenticated. On success the cached profile is replaced with the
// server's copy, which is authoritative.
func (m *Manager) UpdateProfile(ctx context.Context, upd api.ProfileUpdate) (*api.Profile, error) {
	m.mu.RLock()
	user := m.user
	m.mu.RUnlock()
	if user == nil {
		return nil, nil
	}

	profile, err := m.profiles.UpdateProfile(ctx, user.ID, upd)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	// The user may have signed out while the update was in flight.
	if m.user != nil && m.user.ID == user.ID {
		m.profile = profile
	}
	m.mu.Unlock()
	m.notify()
	return profile, nil
}

// =============================================================================
// SESSION APPLICATION
// =============================================================================

// applySession re-evaluates user and profile from a session, exactly the
// same way for the initial resolution and for every provider
// notification.
func (m *Manager) applySession(ctx context.Context, sess *Session) {
	m.mu.Lock()
	m.profileGen++
	gen := m.profileGen

	if sess == nil {
		m.state = StateAnonymous
		m.user = nil
		m.profile = nil
		m.mu.Unlock()
		m.notify()
		return
	}

	user := sess.User
	sameUser := m.user != nil && m.user.ID == user.ID
	m.state = StateAuthenticated
	m.user = &user
	if !sameUser {
		m.profile = nil
	}
	m.mu.Unlock()
	m.notify()

	go m.loadProfile(ctx, user.ID, gen)
}

// loadProfile fetches the profile record for a user. Failure is logged
// and swallowed; the user stays authenticated with a nil profile. Only
// the newest generation writes its result.
func (m *Manager) loadProfile(ctx context.Context, userID string, gen uint64) {
	profile, err := m.profiles.Profile(ctx, userID)
	if err != nil {
		log.Printf("auth: profile load failed for %s: %v", userID, err)
		return
	}

	m.mu.Lock()
	stale := gen != m.profileGen || m.user == nil || m.user.ID != userID
	if !stale {
		m.profile = profile
	}
	m.mu.Unlock()

	if !stale {
		m.notify()
	}
}

func (m *Manager) notify() {
	if m.onChange != nil {
		m.onChange()
	}
}
