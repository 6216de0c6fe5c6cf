// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) Token(ctx context.Context) (string, error) {
	return s.token, s.err
}

// =============================================================================
// HEADER TESTS
// =============================================================================

func TestBearerHeaderAttachedWhenTokenPresent(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"subjects": []string{}, "count": 0})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticTokens{token: "tok-123"})
	if _, err := client.Subjects(context.Background()); err != nil {
		t.Fatalf("Subjects failed: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
}

func TestNoBearerHeaderWithoutSession(t *testing.T) {
	var gotAuth string
	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, hasAuth = r.Header["Authorization"]
		json.NewEncoder(w).Encode(map[string]any{"subjects": []string{}, "count": 0})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	if _, err := client.Subjects(context.Background()); err != nil {
		t.Fatalf("Subjects failed: %v", err)
	}
	if hasAuth {
		t.Errorf("Authorization header should be absent, got %q", gotAuth)
	}
}

func TestTokenSourceConsultedPerRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"subjects": []string{}, "count": 0})
	}))
	defer srv.Close()

	calls := 0
	counting := tokenFunc(func(ctx context.Context) (string, error) {
		calls++
		return "t", nil
	})

	client := NewClient(srv.URL, counting)
	client.Subjects(context.Background())
	client.Subjects(context.Background())

	if calls != 2 {
		t.Errorf("token source consulted %d times, want 2 (fresh per request)", calls)
	}
}

type tokenFunc func(ctx context.Context) (string, error)

func (f tokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// =============================================================================
// ERROR MAPPING TESTS
// =============================================================================

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		wantCode string
	}{
		{"unauthorized", 401, `{"detail":"Not authenticated"}`, ErrUnauthorized, ""},
		{"forbidden", 403, `{"detail":"Forbidden"}`, ErrUnauthorized, ""},
		{"not found structured", 404, `{"detail":{"code":"user_not_found","message":"User profile not found"}}`, ErrNotFound, "user_not_found"},
		{"conflict structured", 409, `{"detail":{"code":"user_already_exists","message":"User profile already exists for this ID"}}`, ErrConflict, "user_already_exists"},
		{"server error", 500, `{"detail":"boom"}`, ErrServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, nil)
			_, err := client.Profile(context.Background(), "u1")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.sentinel)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", apiErr.Code, tt.wantCode)
			}
		})
	}
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/send" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["user_id"] != "u1" || req["message"] != "What courses satisfy the CS minor?" {
			t.Errorf("unexpected payload: %v", req)
		}
		json.NewEncoder(w).Encode(ChatReply{Response: "You need COMP 202, COMP 250, ...", UserID: "u1"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticTokens{token: "t"})
	reply, err := client.SendMessage(context.Background(), "u1", "What courses satisfy the CS minor?")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if reply.Response != "You need COMP 202, COMP 250, ..." {
		t.Errorf("Response = %q", reply.Response)
	}
}

func TestSendMessageValidation(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", nil)

	if _, err := client.SendMessage(context.Background(), "u1", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("blank message: err = %v, want ErrEmptyMessage", err)
	}

	long := strings.Repeat("x", MaxMessageLength+1)
	if _, err := client.SendMessage(context.Background(), "u1", long); !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("long message: err = %v, want ErrMessageTooLong", err)
	}
}

func TestHistoryLimitFallback(t *testing.T) {
	var gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		json.NewEncoder(w).Encode(map[string]any{
			"messages": []HistoryEntry{{Role: "user", Content: "hi"}},
			"count":    1,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	entries, err := client.History(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if gotLimit != "50" {
		t.Errorf("limit = %q, want server default 50", gotLimit)
	}
	if len(entries) != 1 || entries[0].Content != "hi" {
		t.Errorf("entries = %v", entries)
	}
}

func TestChatSimpleVariant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %s, want /chat", r.URL.Path)
		}
		if _, ok := r.Header["Authorization"]; ok {
			t.Error("simple chat must not carry Authorization")
		}
		var req struct {
			Message string          `json:"message"`
			History []SimpleMessage `json:"history"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.History) != 2 {
			t.Errorf("history len = %d, want 2", len(req.History))
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "COMP 202 is a great start."})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	history := []SimpleMessage{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}
	resp, err := client.Chat(context.Background(), "beginner courses?", history)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp != "COMP 202 is a great start." {
		t.Errorf("resp = %q", resp)
	}
}

// =============================================================================
// COURSE TESTS
// =============================================================================

func TestSearchCoursesQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("query") != "intro" || q.Get("subject") != "COMP" || q.Get("limit") != "25" {
			t.Errorf("query = %v", q)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"courses": []CourseSummary{{ID: 1, Subject: "COMP", Catalog: "202", Title: "Foundations of Programming"}},
			"count":   1,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	courses, err := client.SearchCourses(context.Background(), "intro", "comp", 25)
	if err != nil {
		t.Fatalf("SearchCourses failed: %v", err)
	}
	if len(courses) != 1 || courses[0].Catalog != "202" {
		t.Errorf("courses = %v", courses)
	}
}

func TestCourseDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/courses/COMP/250" {
			t.Errorf("path = %s", r.URL.Path)
		}
		avg := 3.1
		json.NewEncoder(w).Encode(map[string]any{"course": CourseDetail{
			Subject: "COMP", Catalog: "250", Title: "Introduction to Computer Science",
			AverageGrade: &avg, NumSections: 2,
		}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	detail, err := client.Course(context.Background(), " comp ", "250")
	if err != nil {
		t.Fatalf("Course failed: %v", err)
	}
	if detail.Title != "Introduction to Computer Science" {
		t.Errorf("Title = %q", detail.Title)
	}
}

// =============================================================================
// PROFILE TESTS
// =============================================================================

func TestUpdateProfileEmptyShortCircuits(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	if _, err := client.UpdateProfile(context.Background(), "u1", ProfileUpdate{}); err == nil {
		t.Error("empty update should fail")
	}
	if called {
		t.Error("empty update must not issue a request")
	}
}

func TestUpdateProfileReturnsServerCopy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		username := "server_truth"
		json.NewEncoder(w).Encode(map[string]any{
			"user":    Profile{ID: "u1", Email: "s@mail.mcgill.ca", Username: &username},
			"message": "User profile updated successfully",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticTokens{token: "t"})
	username := "local_guess"
	p, err := client.UpdateProfile(context.Background(), "u1", ProfileUpdate{Username: &username})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if p.Username == nil || *p.Username != "server_truth" {
		t.Error("server copy must be authoritative")
	}
}
