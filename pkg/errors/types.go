// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	"fmt"
	"time"
)

// ValidationError represents user input validation failures.
// Use this for invalid tool arguments, malformed identifiers, or constraint violations.
type ValidationError struct {
	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Suggestion provides actionable guidance for fixing the error
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NotFoundError represents a resource not found error.
// Use this when a requested resource does not exist.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "node", "vm", "container")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// APIErrorKind classifies Proxmox API failures for retry and reporting logic.
type APIErrorKind string

const (
	// KindAuth covers 401/403 responses: bad token, expired token, or
	// insufficient privileges for the requested path.
	KindAuth APIErrorKind = "auth"

	// KindNotFound covers 404 responses for nodes, guests, and tasks.
	KindNotFound APIErrorKind = "not_found"

	// KindRateLimit covers 429 responses from the API server.
	KindRateLimit APIErrorKind = "rate_limit"

	// KindTimeout covers request deadline and network timeout failures.
	KindTimeout APIErrorKind = "timeout"

	// KindServer covers 5xx responses.
	KindServer APIErrorKind = "server"

	// KindClient covers remaining 4xx responses (typically parameter errors).
	KindClient APIErrorKind = "client"
)

// APIError represents Proxmox VE API failures.
// Use this for errors originating from the remote API server, including
// transport-level failures on the way there.
type APIError struct {
	// Kind is the failure classification
	Kind APIErrorKind

	// StatusCode is the HTTP status code (if a response was received)
	StatusCode int

	// Endpoint is the API path that failed (e.g., "/nodes/pve1/qemu")
	Endpoint string

	// Message is the human-readable error message
	Message string

	// Suggestion provides actionable guidance for resolution
	Suggestion string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("proxmox api %s error", e.Kind)

	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}

	if e.Endpoint != "" {
		msg = fmt.Sprintf("%s at %s", msg, e.Endpoint)
	}

	msg = fmt.Sprintf("%s: %s", msg, e.Message)

	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the failure is worth retrying.
// Rate limits, timeouts, and server-side errors are transient;
// auth, not-found, and parameter errors are not.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindRateLimit, KindTimeout, KindServer:
		return true
	default:
		return false
	}
}

// ConfigError represents configuration problems.
// Use this for configuration file errors, missing settings, or invalid config values.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "proxmox.host", "exec.timeout")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// TimeoutError represents operation timeouts.
// Use this when an operation exceeds its configured timeout.
type TimeoutError struct {
	// Operation describes what timed out (e.g., "API request", "task poll")
	Operation string

	// Duration is how long the operation ran before timing out
	Duration time.Duration

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s operation timed out after %v", e.Operation, e.Duration)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}
