// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the course-advising backend.
//
// Every request asks the token source for a bearer token fresh, so an
// expired or refreshed session is reflected on the very next call. Errors
// propagate to the caller unchanged; there is no retry layer.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/advisor-tui/internal/util"
)

// Configuration constants for the advising backend API.
const (
	// DefaultBaseURL is the local development backend address.
	DefaultBaseURL = "http://localhost:8000/api"

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 4 * 1024 * 1024 // 4MB limit

	// MaxMessageLength mirrors the backend's chat message limit.
	MaxMessageLength = 4000

	// DefaultHistoryLimit is the server default for history fetches.
	DefaultHistoryLimit = 50

	// MaxSearchLimit is the server cap on search and history page sizes.
	MaxSearchLimit = 200
)

// PERFORMANCE: Shared HTTP client with connection pooling for all backend
// requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
	Timeout: DefaultTimeout,
}

// TokenSource supplies the bearer token for authenticated requests. An
// empty token with a nil error means "no live session": the request is
// sent without an Authorization header and the backend treats it as
// unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// AnonymousTokenSource never yields a token.
type AnonymousTokenSource struct{}

func (AnonymousTokenSource) Token(ctx context.Context) (string, error) { return "", nil }

// Client is a client for the course-advising backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	userAgent  string
}

// NewClient creates a backend client for the given base URL. A nil token
// source means all requests go out unauthenticated.
func NewClient(baseURL string, tokens TokenSource) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if tokens == nil {
		tokens = AnonymousTokenSource{}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: sharedHTTPClient,
		tokens:     tokens,
		userAgent:  "advisor-tui/1.0",
	}
}

// WithHTTPClient sets a custom HTTP client (used by tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	// Copy so the shared pooled client's timeout is left alone.
	hc := *c.httpClient
	hc.Timeout = timeout
	c.httpClient = &hc
	return c
}

// WithUserAgent sets the User-Agent header value.
func (c *Client) WithUserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

// WithTokenSource replaces the token source.
func (c *Client) WithTokenSource(tokens TokenSource) *Client {
	if tokens == nil {
		tokens = AnonymousTokenSource{}
	}
	c.tokens = tokens
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// CHAT
// =============================================================================

// SendMessage sends one chat message for the given user and returns the
// advisor's reply. The backend loads its own persisted history for
// context.
func (c *Client) SendMessage(ctx context.Context, userID, message string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if util.RuneLen(message) > MaxMessageLength {
		return nil, fmt.Errorf("%w: %d runes (max %d)", ErrMessageTooLong, util.RuneLen(message), MaxMessageLength)
	}

	body := map[string]string{
		"user_id": userID,
		"message": message,
	}

	var reply ChatReply
	if err := c.do(ctx, http.MethodPost, "/chat/send", nil, body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// History fetches the user's persisted chat history, oldest first. A
// limit outside 1..MaxSearchLimit falls back to the server default.
func (c *Client) History(ctx context.Context, userID string, limit int) ([]HistoryEntry, error) {
	if limit < 1 || limit > MaxSearchLimit {
		limit = DefaultHistoryLimit
	}
	q := url.Values{"limit": {strconv.Itoa(limit)}}

	var out struct {
		Messages []HistoryEntry `json:"messages"`
		Count    int            `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/chat/history/"+url.PathEscape(userID), q, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// Chat sends a message to the unauthenticated minimal chat endpoint,
// carrying the caller's transcript as context. Used by the plain REPL
// mode.
func (c *Client) Chat(ctx context.Context, message string, history []SimpleMessage) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}

	body := struct {
		Message string          `json:"message"`
		History []SimpleMessage `json:"history"`
	}{Message: message, History: history}

	var out struct {
		Response string `json:"response"`
	}
	if err := c.do(ctx, http.MethodPost, "/chat", nil, body, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// =============================================================================
// COURSES
// =============================================================================

// SearchCourses searches the catalog by free-text query and optional
// subject filter.
func (c *Client) SearchCourses(ctx context.Context, query, subject string, limit int) ([]CourseSummary, error) {
	if limit < 1 || limit > MaxSearchLimit {
		limit = DefaultHistoryLimit
	}
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	if s := strings.TrimSpace(query); s != "" {
		q.Set("query", s)
	}
	if s := strings.TrimSpace(subject); s != "" {
		q.Set("subject", strings.ToUpper(s))
	}

	var out struct {
		Courses []CourseSummary `json:"courses"`
		Count   int             `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/courses/search", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Courses, nil
}

// Course fetches the aggregated detail record for one course.
func (c *Client) Course(ctx context.Context, subject, catalog string) (*CourseDetail, error) {
	subject = strings.ToUpper(strings.TrimSpace(subject))
	catalog = strings.TrimSpace(catalog)
	if subject == "" || catalog == "" {
		return nil, fmt.Errorf("%w: subject and catalog are required", ErrNotFound)
	}

	var out struct {
		Course CourseDetail `json:"course"`
	}
	path := "/courses/" + url.PathEscape(subject) + "/" + url.PathEscape(catalog)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Course, nil
}

// Subjects lists the distinct subject codes in the catalog, sorted.
func (c *Client) Subjects(ctx context.Context) ([]string, error) {
	var out struct {
		Subjects []string `json:"subjects"`
		Count    int      `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/courses/subjects", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Subjects, nil
}

// =============================================================================
// PROFILES
// =============================================================================

// CreateProfile creates the application-side profile record for a freshly
// signed-up identity.
func (c *Client) CreateProfile(ctx context.Context, p NewProfile) (*Profile, error) {
	var out struct {
		User    Profile `json:"user"`
		Message string  `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/users/", nil, p, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Profile fetches the profile record for the given user id.
func (c *Client) Profile(ctx context.Context, userID string) (*Profile, error) {
	var out struct {
		User Profile `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdateProfile applies a partial update and returns the server's copy,
// which is authoritative.
func (c *Client) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*Profile, error) {
	if upd.IsEmpty() {
		return nil, fmt.Errorf("no fields to update")
	}
	var out struct {
		User    Profile `json:"user"`
		Message string  `json:"message"`
	}
	if err := c.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(userID), nil, upd, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do issues one request and decodes the response into out. The token
// source is consulted fresh on every call.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if err := c.setHeaders(ctx, req, body != nil); err != nil {
		return err
	}

	c.logRequest(req)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	data, err := c.readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// setHeaders applies the standard headers. The Authorization header is
// attached only when the token source yields a live token.
func (c *Client) setHeaders(ctx context.Context, req *http.Request, hasBody bool) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	return nil
}

// readResponse reads the response body with a size cap.
func (c *Client) readResponse(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}

// errorFromResponse parses the backend error envelope. FastAPI returns
// either {"detail": "..."} or {"detail": {"code": ..., "message": ...}}.
func (c *Client) errorFromResponse(status int, data []byte) error {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}

	var structured struct {
		Detail struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(data, &structured); err == nil && structured.Detail.Message != "" {
		apiErr.Code = structured.Detail.Code
		apiErr.Message = structured.Detail.Message
		return apiErr
	}

	var plain struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &plain); err == nil && plain.Detail != "" {
		apiErr.Message = plain.Detail
	}
	return apiErr
}

// logRequest logs an API request without exposing sensitive data.
// Headers (auth) and bodies (user content) are never logged.
func (c *Client) logRequest(req *http.Request) {
	log.Printf("api: %s %s", req.Method, req.URL.Path)
}

// logResponse logs status and duration only.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("api: %d %s (%v)", resp.StatusCode, resp.Request.URL.Path, duration)
}
