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
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tombee/pvemcp/internal/executor"
	"github.com/tombee/pvemcp/internal/format"
	"github.com/tombee/pvemcp/internal/policy"
)

// registerExecTools registers the guest command execution tools. These
// run under the stricter execution rate limit.
func (s *Server) registerExecTools() {
	// Tool: execute_vm_command
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "execute_vm_command",
		Description: descExecuteVMCommand,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"node":    prop("string", "Host node name (e.g. 'pve1', 'proxmox-node2')"),
				"vmid":    prop("string", "VM ID number (e.g. '100', '101')"),
				"command": prop("string", "Shell command to run (e.g. 'uname -a', 'systemctl status nginx')"),
				"timeout": prop("integer", "Seconds to wait for completion (default: 30)"),
			},
			Required: []string{"node", "vmid", "command"},
		},
	}, s.handleExec("execute_vm_command", s.execCommandHandler("execute_vm_command", s.vmExec)))

	// Tool: execute_container_command
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "execute_container_command",
		Description: descExecuteContainerCommand,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"node":    prop("string", "Host node name (e.g. 'pve1', 'proxmox-node2')"),
				"vmid":    prop("string", "Container ID number (e.g. '200', '201')"),
				"command": prop("string", "Shell command to run (e.g. 'uname -a', 'systemctl status nginx')"),
				"timeout": prop("integer", "Seconds to wait for completion (default: 30)"),
			},
			Required: []string{"node", "vmid", "command"},
		},
	}, s.handleExec("execute_container_command", s.execCommandHandler("execute_container_command", s.ctExec)))
}

// execCommandHandler builds the handler for one guest command tool.
// Both guest kinds share the flow; only the executor differs.
func (s *Server) execCommandHandler(tool string, exec *executor.Executor) toolFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (string, error) {
		node, err := requireNode(request)
		if err != nil {
			return "", err
		}
		vmid, err := requireGuestID(request, "vmid")
		if err != nil {
			return "", err
		}
		command, err := requireString(request, "command")
		if err != nil {
			return "", err
		}
		timeoutSecs, hasTimeout, err := optionalInt(request, "timeout")
		if err != nil {
			return "", err
		}

		guestID := strconv.Itoa(vmid)
		if err := s.allow(policy.Request{
			Tool:    tool,
			Node:    node,
			VMID:    guestID,
			Command: command,
		}); err != nil {
			return "", err
		}

		var result *executor.CommandResult
		if hasTimeout {
			result, err = exec.ExecuteWithTimeout(ctx, node, guestID, command, time.Duration(timeoutSecs)*time.Second)
		} else {
			result, err = exec.Execute(ctx, node, guestID, command)
		}
		if err != nil {
			return "", err
		}

		return format.CommandOutput(result.Success, command, result.Output, result.ErrOutput), nil
	}
}
