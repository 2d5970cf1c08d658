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

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tombee/pvemcp/internal/format"
)

// registerClusterTools registers the storage and cluster tools.
func (s *Server) registerClusterTools() {
	// Tool: get_storage
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_storage",
		Description: descGetStorage,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handle("get_storage", s.handleGetStorage))

	// Tool: get_cluster_status
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_cluster_status",
		Description: descGetClusterStatus,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handle("get_cluster_status", s.handleGetClusterStatus))
}

func (s *Server) handleGetStorage(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	pools, err := s.client.Storage(ctx)
	if err != nil {
		return "", err
	}
	return format.StorageList(pools), nil
}

func (s *Server) handleGetClusterStatus(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	entries, err := s.client.ClusterStatus(ctx)
	if err != nil {
		return "", err
	}
	return format.ClusterStatus(entries), nil
}
