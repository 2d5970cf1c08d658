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

package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	pvemcperrors "github.com/tombee/pvemcp/pkg/errors"
)

// prop builds a JSON schema property fragment.
func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"description": description,
	}
}

// requireNode extracts the target node name.
func requireNode(request mcp.CallToolRequest) (string, error) {
	node, err := request.RequireString("node")
	if err != nil || strings.TrimSpace(node) == "" {
		return "", &pvemcperrors.ValidationError{
			Field:      "node",
			Message:    "node is required",
			Suggestion: "pass a node name from get_nodes, e.g. 'pve1'",
		}
	}
	return node, nil
}

// requireString extracts a required string argument.
func requireString(request mcp.CallToolRequest, key string) (string, error) {
	val, err := request.RequireString(key)
	if err != nil || val == "" {
		return "", &pvemcperrors.ValidationError{
			Field:   key,
			Message: fmt.Sprintf("%s is required", key),
		}
	}
	return val, nil
}

// requireGuestID extracts a guest ID argument. Clients send IDs either
// as strings ("100") or as numbers (100); both are accepted.
func requireGuestID(request mcp.CallToolRequest, key string) (int, error) {
	invalid := func() error {
		return &pvemcperrors.ValidationError{
			Field:      key,
			Message:    fmt.Sprintf("%s must be a positive integer", key),
			Suggestion: "guest IDs are numeric, e.g. '100'",
		}
	}

	raw, ok := request.GetArguments()[key]
	if !ok || raw == nil {
		return 0, &pvemcperrors.ValidationError{
			Field:      key,
			Message:    fmt.Sprintf("%s is required", key),
			Suggestion: "guest IDs are numeric, e.g. '100'",
		}
	}

	switch v := raw.(type) {
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || id <= 0 {
			return 0, invalid()
		}
		return id, nil
	case float64:
		id := int(v)
		if float64(id) != v || id <= 0 {
			return 0, invalid()
		}
		return id, nil
	case int:
		if v <= 0 {
			return 0, invalid()
		}
		return v, nil
	default:
		return 0, invalid()
	}
}

// requireInt extracts a required integer argument.
func requireInt(request mcp.CallToolRequest, key string) (int, error) {
	val, ok, err := optionalInt(request, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &pvemcperrors.ValidationError{
			Field:   key,
			Message: fmt.Sprintf("%s is required", key),
		}
	}
	return val, nil
}

// optionalInt extracts an integer argument if present. JSON numbers
// arrive as float64; whole values are accepted, fractions rejected.
func optionalInt(request mcp.CallToolRequest, key string) (int, bool, error) {
	raw, ok := request.GetArguments()[key]
	if !ok || raw == nil {
		return 0, false, nil
	}

	invalid := &pvemcperrors.ValidationError{
		Field:   key,
		Message: fmt.Sprintf("%s must be an integer", key),
	}

	switch v := raw.(type) {
	case float64:
		if float64(int(v)) != v {
			return 0, false, invalid
		}
		return int(v), true, nil
	case int:
		return v, true, nil
	case string:
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false, invalid
		}
		return id, true, nil
	default:
		return 0, false, invalid
	}
}

// optionalString extracts a string argument if present.
func optionalString(request mcp.CallToolRequest, key string) (string, bool) {
	raw, ok := request.GetArguments()[key]
	if !ok || raw == nil {
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	return s, true
}
