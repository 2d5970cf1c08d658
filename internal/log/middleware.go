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

package log

import (
	"log/slog"
	"strings"
	"time"
)

// Tool call statuses as logged and exported as metric labels.
const (
	StatusOK          = "ok"
	StatusError       = "error"
	StatusDenied      = "denied"
	StatusRateLimited = "rate_limited"
)

// ToolCall represents an MCP tool invocation for logging purposes.
type ToolCall struct {
	// Tool is the MCP tool name (e.g., "execute_vm_command").
	Tool string

	// Arguments contains the tool arguments. Sensitive values are
	// redacted before logging.
	Arguments map[string]interface{}
}

// ToolResult represents the outcome of a tool invocation.
type ToolResult struct {
	// Status is one of StatusOK, StatusError, StatusDenied or
	// StatusRateLimited.
	Status string

	// Error is the error message if the invocation failed.
	Error string

	// DurationMs is the handler duration in milliseconds.
	DurationMs int64
}

// LogToolCall logs an incoming tool invocation.
func LogToolCall(logger *slog.Logger, call *ToolCall) {
	attrs := []any{
		"event", "tool_call",
		"tool", call.Tool,
	}

	for k, v := range redactArguments(call.Arguments) {
		attrs = append(attrs, "arg_"+k, v)
	}

	logger.Debug("tool call received", attrs...)
}

// LogToolResult logs the outcome of a tool invocation. Denied and
// rate-limited calls log at Warn, failures at Error.
func LogToolResult(logger *slog.Logger, call *ToolCall, result *ToolResult) {
	attrs := []any{
		"event", "tool_result",
		"tool", call.Tool,
		"status", result.Status,
		"duration_ms", result.DurationMs,
	}

	if result.Error != "" {
		attrs = append(attrs, "error", result.Error)
	}

	level := slog.LevelInfo
	message := "tool call completed"

	switch result.Status {
	case StatusDenied, StatusRateLimited:
		level = slog.LevelWarn
		message = "tool call rejected"
	case StatusError:
		level = slog.LevelError
		message = "tool call failed"
	}

	logger.Log(nil, level, message, attrs...)
}

// ToolMiddleware wraps tool handler functions with start/finish logging.
type ToolMiddleware struct {
	logger *slog.Logger
}

// NewToolMiddleware creates a tool logging middleware.
func NewToolMiddleware(logger *slog.Logger) *ToolMiddleware {
	return &ToolMiddleware{
		logger: logger,
	}
}

// Handler runs the given tool handler, logging the call on entry and
// the result (with duration and status) on exit.
func (m *ToolMiddleware) Handler(call *ToolCall, handler func() error) error {
	start := time.Now()

	LogToolCall(m.logger, call)

	err := handler()

	result := &ToolResult{
		Status:     StatusOK,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Status = StatusError
		result.Error = err.Error()
	}

	LogToolResult(m.logger, call, result)

	return err
}

// redactArguments masks values for argument names that look sensitive
// (passwords, tokens, secrets). Everything else passes through: tool
// arguments are node names, VMIDs and commands, which operators expect
// to see in logs.
func redactArguments(args map[string]interface{}) map[string]interface{} {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		lower := strings.ToLower(k)
		if strings.Contains(lower, "password") ||
			strings.Contains(lower, "secret") ||
			strings.Contains(lower, "token") {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = v
	}
	return out
}
