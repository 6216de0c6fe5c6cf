// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for common backend failure classes. Use errors.Is to
// test for them; the wrapped *APIError carries the status and any
// structured detail the backend returned.
var (
	// ErrUnauthorized indicates a missing, expired, or rejected token.
	ErrUnauthorized = errors.New("unauthorized: sign in again")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates the resource already exists (e.g. profile
	// creation for an existing user id).
	ErrConflict = errors.New("resource already exists")

	// ErrServerError indicates a backend-side failure.
	ErrServerError = errors.New("server error")

	// ErrMessageTooLong indicates a chat message over the backend's limit.
	ErrMessageTooLong = errors.New("message exceeds maximum length")

	// ErrEmptyMessage indicates a blank chat message. The UI guards this
	// before calling, so hitting it means a caller bug.
	ErrEmptyMessage = errors.New("message is empty")
)

// APIError is a structured error parsed from the backend's error envelope.
// The backend returns either a plain string detail or a {code, message}
// object; both end up here.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Unwrap maps the status code onto the matching sentinel so callers can
// use errors.Is without inspecting status codes themselves.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == 401 || e.Status == 403:
		return ErrUnauthorized
	case e.Status == 404:
		return ErrNotFound
	case e.Status == 409:
		return ErrConflict
	case e.Status >= 500:
		return ErrServerError
	default:
		return nil
	}
}
