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
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tombee/pvemcp/internal/format"
	"github.com/tombee/pvemcp/internal/policy"
)

// registerSnapshotTools registers the container snapshot tools.
func (s *Server) registerSnapshotTools() {
	// Tool: get_container_snapshots
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_container_snapshots",
		Description: descGetContainerSnapshots,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"node": prop("string", "Target node name (e.g. 'pve1')"),
				"vmid": prop("string", "Container ID number (e.g. '200')"),
			},
			Required: []string{"node", "vmid"},
		},
	}, s.handle("get_container_snapshots", s.handleGetContainerSnapshots))

	// Tool: create_container_snapshot
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_container_snapshot",
		Description: descCreateContainerSnapshot,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"node":        prop("string", "Target node name (e.g. 'pve1')"),
				"vmid":        prop("string", "Container ID number (e.g. '200')"),
				"snapname":    prop("string", "Snapshot name (e.g. 'backup-2024-01-01')"),
				"description": prop("string", "Snapshot description"),
			},
			Required: []string{"node", "vmid", "snapname"},
		},
	}, s.handle("create_container_snapshot", s.handleCreateContainerSnapshot))

	// Tool: delete_container_snapshot
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_container_snapshot",
		Description: descDeleteContainerSnapshot,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"node":     prop("string", "Target node name (e.g. 'pve1')"),
				"vmid":     prop("string", "Container ID number (e.g. '200')"),
				"snapname": prop("string", "Snapshot name (e.g. 'backup-2024-01-01')"),
			},
			Required: []string{"node", "vmid", "snapname"},
		},
	}, s.handle("delete_container_snapshot", s.handleDeleteContainerSnapshot))

	// Tool: rollback_container_snapshot
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "rollback_container_snapshot",
		Description: descRollbackContainerSnapshot,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"node":     prop("string", "Target node name (e.g. 'pve1')"),
				"vmid":     prop("string", "Container ID number (e.g. '200')"),
				"snapname": prop("string", "Snapshot name (e.g. 'backup-2024-01-01')"),
			},
			Required: []string{"node", "vmid", "snapname"},
		},
	}, s.handle("rollback_container_snapshot", s.handleRollbackContainerSnapshot))
}

// handleGetContainerSnapshots returns the snapshot list as indented
// JSON rather than a rendered table; snapshot metadata is the one
// payload callers tend to post-process.
func (s *Server) handleGetContainerSnapshots(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	node, err := requireNode(request)
	if err != nil {
		return "", err
	}
	vmid, err := requireGuestID(request, "vmid")
	if err != nil {
		return "", err
	}

	snapshots, err := s.client.ContainerSnapshots(ctx, node, vmid)
	if err != nil {
		return "", err
	}
	return format.SnapshotsJSON(snapshots)
}

func (s *Server) handleCreateContainerSnapshot(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	node, err := requireNode(request)
	if err != nil {
		return "", err
	}
	vmid, err := requireGuestID(request, "vmid")
	if err != nil {
		return "", err
	}
	snapname, err := requireString(request, "snapname")
	if err != nil {
		return "", err
	}
	description := request.GetString("description", "")

	if err := s.allow(policy.Request{
		Tool: "create_container_snapshot",
		Node: node,
		VMID: strconv.Itoa(vmid),
	}); err != nil {
		return "", err
	}

	if _, err := s.client.CreateSnapshot(ctx, node, vmid, snapname, description); err != nil {
		return "", err
	}
	return format.SnapshotResult("create", node, vmid, snapname), nil
}

func (s *Server) handleDeleteContainerSnapshot(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	node, err := requireNode(request)
	if err != nil {
		return "", err
	}
	vmid, err := requireGuestID(request, "vmid")
	if err != nil {
		return "", err
	}
	snapname, err := requireString(request, "snapname")
	if err != nil {
		return "", err
	}

	if err := s.allow(policy.Request{
		Tool: "delete_container_snapshot",
		Node: node,
		VMID: strconv.Itoa(vmid),
	}); err != nil {
		return "", err
	}

	if _, err := s.client.DeleteSnapshot(ctx, node, vmid, snapname); err != nil {
		return "", err
	}
	return format.SnapshotResult("delete", node, vmid, snapname), nil
}

func (s *Server) handleRollbackContainerSnapshot(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	node, err := requireNode(request)
	if err != nil {
		return "", err
	}
	vmid, err := requireGuestID(request, "vmid")
	if err != nil {
		return "", err
	}
	snapname, err := requireString(request, "snapname")
	if err != nil {
		return "", err
	}

	if err := s.allow(policy.Request{
		Tool: "rollback_container_snapshot",
		Node: node,
		VMID: strconv.Itoa(vmid),
	}); err != nil {
		return "", err
	}

	if _, err := s.client.RollbackSnapshot(ctx, node, vmid, snapname); err != nil {
		return "", err
	}
	return format.SnapshotResult("rollback", node, vmid, snapname), nil
}
