// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/advisor-tui/internal/util"
)

// Configuration constants for the GoTrue provider.
const (
	// defaultAuthTimeout bounds every auth request.
	defaultAuthTimeout = 30 * time.Second

	// maxAuthResponseSize caps auth response bodies.
	maxAuthResponseSize = 1 * 1024 * 1024 // 1MB limit

	// refreshLeeway refreshes tokens slightly before they expire so a
	// request issued right at the boundary still carries a live token.
	refreshLeeway = 30 * time.Second
)

// GoTrueProvider implements Provider against a GoTrue-compatible auth
// endpoint (the API exposed by Supabase Auth). The current session is
// cached on disk with owner-only permissions so a restart resumes the
// signed-in session; that file is the provider's own storage, the rest of
// the client never touches it.
type GoTrueProvider struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client

	sessionFile string

	mu          sync.Mutex
	session     *Session
	subscribers map[int]func(*Session)
	nextSubID   int
}

// NewGoTrueProvider creates a provider for the given auth endpoint. The
// anon key is the public API key the auth service expects on every
// request. sessionFile is where the current session is persisted.
func NewGoTrueProvider(baseURL, anonKey, sessionFile string) *GoTrueProvider {
	return &GoTrueProvider{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		anonKey:     anonKey,
		httpClient:  &http.Client{Timeout: defaultAuthTimeout},
		sessionFile: sessionFile,
		subscribers: make(map[int]func(*Session)),
	}
}

// WithHTTPClient sets a custom HTTP client (used by tests).
func (p *GoTrueProvider) WithHTTPClient(hc *http.Client) *GoTrueProvider {
	p.httpClient = hc
	return p
}

// =============================================================================
// PROVIDER INTERFACE
// =============================================================================

// CurrentSession returns the cached session, refreshing it through the
// refresh token when the access token is expired. Returns ErrNoSession
// when nobody is signed in.
func (p *GoTrueProvider) CurrentSession(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	sess := p.session
	p.mu.Unlock()

	if sess == nil {
		sess = p.loadCachedSession()
		if sess == nil {
			return nil, ErrNoSession
		}
		p.mu.Lock()
		p.session = sess
		p.mu.Unlock()
	}

	if !sess.Expired(refreshLeeway) {
		return sess, nil
	}

	refreshed, err := p.refresh(ctx, sess.RefreshToken)
	if err != nil {
		// Refresh failed: the session is dead. Drop it and notify.
		log.Printf("auth: session refresh failed: %v", err)
		p.setSession(nil)
		return nil, ErrNoSession
	}
	p.setSession(refreshed)
	return refreshed, nil
}

// SignUp registers a new identity. When the provider requires email
// confirmation it returns no session; the caller signs in after
// confirming.
func (p *GoTrueProvider) SignUp(ctx context.Context, email, password, displayName string) (*Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
	}
	if displayName != "" {
		body["data"] = map[string]string{"display_name": displayName}
	}

	var resp tokenResponse
	if err := p.post(ctx, "/signup", body, &resp); err != nil {
		return nil, err
	}

	// No access token means confirmation is pending.
	if resp.AccessToken == "" {
		return nil, nil
	}

	sess := resp.toSession()
	p.setSession(sess)
	return sess, nil
}

// SignIn exchanges credentials for a session.
func (p *GoTrueProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var resp tokenResponse
	if err := p.post(ctx, "/token?grant_type=password", body, &resp); err != nil {
		return nil, err
	}

	sess := resp.toSession()
	p.setSession(sess)
	return sess, nil
}

// SignOut revokes the current session and clears the cache. Revocation
// failure is logged but the local session is dropped regardless, so the
// client always ends up signed out.
func (p *GoTrueProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	sess := p.session
	p.mu.Unlock()

	if sess != nil && sess.AccessToken != "" {
		if err := p.revoke(ctx, sess.AccessToken); err != nil {
			log.Printf("auth: logout revocation failed: %v", err)
		}
	}

	p.setSession(nil)
	return nil
}

// OnChange registers a session-change callback.
func (p *GoTrueProvider) OnChange(fn func(*Session)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subscribers, id)
	}
}

// =============================================================================
// SESSION CACHE
// =============================================================================

// setSession stores the session, persists it, and notifies subscribers.
// Callbacks run outside the lock.
func (p *GoTrueProvider) setSession(sess *Session) {
	p.mu.Lock()
	p.session = sess
	subs := make([]func(*Session), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	p.persistSession(sess)
	for _, fn := range subs {
		fn(sess)
	}
}

func (p *GoTrueProvider) persistSession(sess *Session) {
	if p.sessionFile == "" {
		return
	}
	if sess == nil {
		if err := os.Remove(p.sessionFile); err != nil && !os.IsNotExist(err) {
			log.Printf("auth: failed to remove session cache: %v", err)
		}
		return
	}
	data, err := json.Marshal(sess)
	if err != nil {
		log.Printf("auth: failed to encode session: %v", err)
		return
	}
	if err := util.AtomicWriteFileWithDir(p.sessionFile, data, 0600, 0700); err != nil {
		log.Printf("auth: failed to persist session: %v", err)
	}
}

func (p *GoTrueProvider) loadCachedSession() *Session {
	if p.sessionFile == "" {
		return nil
	}
	data, err := os.ReadFile(p.sessionFile)
	if err != nil {
		return nil
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		log.Printf("auth: discarding corrupt session cache: %v", err)
		os.Remove(p.sessionFile)
		return nil
	}
	if sess.AccessToken == "" {
		return nil
	}
	return &sess
}

// =============================================================================
// TRANSPORT
// =============================================================================

// tokenResponse is the GoTrue token/signup response shape.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		UserMetadata struct {
			DisplayName string `json:"display_name"`
		} `json:"user_metadata"`
	} `json:"user"`
}

func (r *tokenResponse) toSession() *Session {
	return &Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(r.ExpiresIn) * time.Second),
		User: User{
			ID:          r.User.ID,
			Email:       r.User.Email,
			DisplayName: r.User.UserMetadata.DisplayName,
		},
	}
}

func (p *GoTrueProvider) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrNoSession
	}
	body := map[string]string{"refresh_token": refreshToken}

	var resp tokenResponse
	if err := p.post(ctx, "/token?grant_type=refresh_token", body, &resp); err != nil {
		return nil, err
	}
	return resp.toSession(), nil
}

func (p *GoTrueProvider) revoke(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxAuthResponseSize))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("logout returned status %d", resp.StatusCode)
	}
	return nil
}

func (p *GoTrueProvider) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Content-Type", "application/json")

	log.Printf("auth: POST %s", path)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(io.LimitReader(resp.Body, maxAuthResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read auth response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return p.errorFromResponse(resp.StatusCode, respData)
	}
	if out != nil {
		if err := json.Unmarshal(respData, out); err != nil {
			return fmt.Errorf("failed to decode auth response: %w", err)
		}
	}
	return nil
}

// errorFromResponse translates GoTrue error envelopes into sentinels
// where a stable meaning exists.
func (p *GoTrueProvider) errorFromResponse(status int, data []byte) error {
	var envelope struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	_ = json.Unmarshal(data, &envelope)

	message := envelope.ErrorDescription
	if message == "" {
		message = envelope.Msg
	}
	if message == "" {
		message = envelope.Message
	}
	if message == "" {
		message = http.StatusText(status)
	}

	lower := strings.ToLower(message)
	switch {
	case status == 400 && strings.Contains(lower, "invalid login credentials"):
		return fmt.Errorf("%w", ErrInvalidCredentials)
	case strings.Contains(lower, "already registered"):
		return fmt.Errorf("%w", ErrEmailTaken)
	}
	return fmt.Errorf("auth error %d: %s", status, message)
}
