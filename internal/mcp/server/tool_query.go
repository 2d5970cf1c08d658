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
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerQueryTools registers the raw API query tool.
func (s *Server) registerQueryTools() {
	// Tool: query_api
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "query_api",
		Description: descQueryAPI,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path":   prop("string", "API path to query (e.g. '/nodes/pve1/qemu')"),
				"filter": prop("string", "jq filter applied to the response (e.g. '.[] | .name')"),
			},
			Required: []string{"path"},
		},
	}, s.handle("query_api", s.handleQueryAPI))
}

// handleQueryAPI proxies a GET request to an arbitrary API path and
// optionally filters the response with jq. Only reads: the tool never
// issues mutating methods, so it stays outside the policy guard.
func (s *Server) handleQueryAPI(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	path, err := requireString(request, "path")
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	filter := request.GetString("filter", "")

	// Validate the filter before spending an API round trip on it.
	if err := s.query.Validate(filter); err != nil {
		return "", err
	}

	data, err := s.client.Get(ctx, path)
	if err != nil {
		return "", err
	}

	result, err := s.query.Apply(ctx, filter, data)
	if err != nil {
		return "", err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode response: %w", err)
	}
	return string(out), nil
}
