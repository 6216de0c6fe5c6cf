// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func gotrueTokenHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("missing apikey header")
		}
		switch r.URL.Path + "?" + r.URL.RawQuery {
		case "/token?grant_type=password":
			var req map[string]string
			json.NewDecoder(r.Body).Decode(&req)
			if req["password"] != "hunter2" {
				w.WriteHeader(400)
				w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "access-1",
				"refresh_token": "refresh-1",
				"expires_in":    3600,
				"user": map[string]any{
					"id":    "u1",
					"email": req["email"],
				},
			})
		case "/token?grant_type=refresh_token":
			json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "access-2",
				"refresh_token": "refresh-2",
				"expires_in":    3600,
				"user":          map[string]any{"id": "u1", "email": "s@mail.mcgill.ca"},
			})
		case "/logout?":
			w.WriteHeader(204)
		default:
			t.Errorf("unexpected request: %s", r.URL.String())
			w.WriteHeader(404)
		}
	}
}

func TestGoTrueSignIn(t *testing.T) {
	srv := httptest.NewServer(gotrueTokenHandler(t))
	defer srv.Close()

	sessionFile := filepath.Join(t.TempDir(), "session.json")
	p := NewGoTrueProvider(srv.URL, "anon-key", sessionFile)

	sess, err := p.SignIn(context.Background(), "s@mail.mcgill.ca", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "access-1", sess.AccessToken)
	require.Equal(t, "u1", sess.User.ID)
	require.Equal(t, "s@mail.mcgill.ca", sess.User.Email)

	// Session must be cached with owner-only permissions.
	info, err := os.Stat(sessionFile)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestGoTrueSignInBadCredentials(t *testing.T) {
	srv := httptest.NewServer(gotrueTokenHandler(t))
	defer srv.Close()

	p := NewGoTrueProvider(srv.URL, "anon-key", "")
	_, err := p.SignIn(context.Background(), "s@mail.mcgill.ca", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestGoTrueCurrentSessionFromCache(t *testing.T) {
	sessionFile := filepath.Join(t.TempDir(), "session.json")
	cached := Session{
		AccessToken:  "cached-token",
		RefreshToken: "cached-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         User{ID: "u1", Email: "s@mail.mcgill.ca"},
	}
	data, _ := json.Marshal(cached)
	require.NoError(t, os.WriteFile(sessionFile, data, 0600))

	p := NewGoTrueProvider("http://unused.invalid", "anon-key", sessionFile)
	sess, err := p.CurrentSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, "cached-token", sess.AccessToken)
}

func TestGoTrueCurrentSessionNoSession(t *testing.T) {
	p := NewGoTrueProvider("http://unused.invalid", "anon-key", filepath.Join(t.TempDir(), "none.json"))
	_, err := p.CurrentSession(context.Background())
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}

func TestGoTrueRefreshesExpiredSession(t *testing.T) {
	srv := httptest.NewServer(gotrueTokenHandler(t))
	defer srv.Close()

	sessionFile := filepath.Join(t.TempDir(), "session.json")
	expired := Session{
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(-time.Minute),
		User:         User{ID: "u1"},
	}
	data, _ := json.Marshal(expired)
	require.NoError(t, os.WriteFile(sessionFile, data, 0600))

	p := NewGoTrueProvider(srv.URL, "anon-key", sessionFile)
	sess, err := p.CurrentSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, "access-2", sess.AccessToken)
}

func TestGoTrueSignOutNotifiesAndClearsCache(t *testing.T) {
	srv := httptest.NewServer(gotrueTokenHandler(t))
	defer srv.Close()

	sessionFile := filepath.Join(t.TempDir(), "session.json")
	p := NewGoTrueProvider(srv.URL, "anon-key", sessionFile)

	var got []*Session
	unsubscribe := p.OnChange(func(s *Session) { got = append(got, s) })
	defer unsubscribe()

	_, err := p.SignIn(context.Background(), "s@mail.mcgill.ca", "hunter2")
	require.NoError(t, err)
	require.NoError(t, p.SignOut(context.Background()))

	require.Len(t, got, 2)
	require.NotNil(t, got[0])
	require.Nil(t, got[1])

	_, err = os.Stat(sessionFile)
	require.True(t, os.IsNotExist(err), "session cache must be removed on sign-out")
}

func TestGoTrueUnsubscribeStopsCallbacks(t *testing.T) {
	srv := httptest.NewServer(gotrueTokenHandler(t))
	defer srv.Close()

	p := NewGoTrueProvider(srv.URL, "anon-key", "")
	calls := 0
	unsubscribe := p.OnChange(func(*Session) { calls++ })
	unsubscribe()

	_, err := p.SignIn(context.Background(), "s@mail.mcgill.ca", "hunter2")
	require.NoError(t, err)
	require.Zero(t, calls)
}
