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

// registerNodeTools registers the node inspection tools.
func (s *Server) registerNodeTools() {
	// Tool: get_nodes
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_nodes",
		Description: descGetNodes,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handle("get_nodes", s.handleGetNodes))

	// Tool: get_node_status
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_node_status",
		Description: descGetNodeStatus,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"node": prop("string", "Name/ID of node to query (e.g. 'pve1', 'proxmox-node2')"),
			},
			Required: []string{"node"},
		},
	}, s.handle("get_node_status", s.handleGetNodeStatus))
}

func (s *Server) handleGetNodes(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	nodes, err := s.client.Nodes(ctx)
	if err != nil {
		return "", err
	}
	return format.NodeList(nodes), nil
}

// handleGetNodeStatus reports detailed status for one node. The power
// state comes from the cluster node listing; when that listing fails
// the state degrades to "unknown" instead of failing the whole call.
func (s *Server) handleGetNodeStatus(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	node, err := requireNode(request)
	if err != nil {
		return "", err
	}

	st, err := s.client.NodeStatus(ctx, node)
	if err != nil {
		return "", err
	}

	status := "unknown"
	if nodes, err := s.client.Nodes(ctx); err == nil {
		for _, n := range nodes {
			if n.Node == node {
				status = n.Status
				break
			}
		}
	}

	return format.NodeStatus(node, status, st), nil
}
