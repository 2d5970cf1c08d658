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
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tombee/pvemcp/internal/format"
	"github.com/tombee/pvemcp/internal/policy"
	"github.com/tombee/pvemcp/internal/proxmox"
	pvemcperrors "github.com/tombee/pvemcp/pkg/errors"
)

// registerVMTools registers the virtual machine tools.
func (s *Server) registerVMTools() {
	// Tool: get_vms
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_vms",
		Description: descGetVMs,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handle("get_vms", s.handleGetVMs))

	// Tool: create_vm
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_vm",
		Description: descCreateVM,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"node":    prop("string", "Target node name (e.g. 'pve1')"),
				"vmid":    prop("string", "VM ID number (e.g. '100')"),
				"name":    prop("string", "VM name (e.g. 'ubuntu-server')"),
				"cores":   prop("integer", "CPU cores (e.g. 2)"),
				"memory":  prop("integer", "Memory in MB (e.g. 2048)"),
				"storage": prop("string", "Storage pool (e.g. 'local-lvm')"),
				"ostype":  prop("string", "OS type (e.g. 'l26', 'win10')"),
			},
			Required: []string{"node", "vmid", "name", "cores", "memory", "storage", "ostype"},
		},
	}, s.handle("create_vm", s.handleCreateVM))

	// Power operations share one handler shape: POST the state change,
	// then report the status observed afterwards.
	powerOps := []struct {
		op     string
		desc   string
		action func(context.Context, string, int) (string, error)
	}{
		{"start", descStartVM, s.client.StartVM},
		{"stop", descStopVM, s.client.StopVM},
		{"shutdown", descShutdownVM, s.client.ShutdownVM},
		{"reboot", descRebootVM, s.client.RebootVM},
	}
	for _, p := range powerOps {
		name := p.op + "_vm"
		s.mcpServer.AddTool(mcp.Tool{
			Name:        name,
			Description: p.desc,
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"node": prop("string", "Target node name (e.g. 'pve1')"),
					"vmid": prop("string", "VM ID number (e.g. '100')"),
				},
				Required: []string{"node", "vmid"},
			},
		}, s.handle(name, s.vmPowerHandler(p.op, p.action)))
	}

	// Tool: get_vm_config
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_vm_config",
		Description: descGetVMConfig,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"node": prop("string", "Target node name (e.g. 'pve1')"),
				"vmid": prop("string", "VM ID number (e.g. '100')"),
			},
			Required: []string{"node", "vmid"},
		},
	}, s.handle("get_vm_config", s.handleGetVMConfig))

	// Tool: update_vm_config
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "update_vm_config",
		Description: descUpdateVMConfig,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"node":        prop("string", "Target node name (e.g. 'pve1')"),
				"vmid":        prop("string", "VM ID number (e.g. '100')"),
				"cores":       prop("integer", "CPU cores (e.g. 4)"),
				"memory":      prop("integer", "Memory in MB (e.g. 4096)"),
				"name":        prop("string", "VM name (e.g. 'new-name')"),
				"description": prop("string", "VM description"),
			},
			Required: []string{"node", "vmid"},
		},
	}, s.handle("update_vm_config", s.handleUpdateVMConfig))
}

func (s *Server) handleGetVMs(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	vms, err := s.client.ListVMs(ctx)
	if err != nil {
		return "", err
	}
	return format.VMList(vms), nil
}

func (s *Server) handleCreateVM(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	node, err := requireNode(request)
	if err != nil {
		return "", err
	}
	vmid, err := requireGuestID(request, "vmid")
	if err != nil {
		return "", err
	}
	name, err := requireString(request, "name")
	if err != nil {
		return "", err
	}
	cores, err := requireInt(request, "cores")
	if err != nil {
		return "", err
	}
	memory, err := requireInt(request, "memory")
	if err != nil {
		return "", err
	}
	storage, err := requireString(request, "storage")
	if err != nil {
		return "", err
	}
	ostype, err := requireString(request, "ostype")
	if err != nil {
		return "", err
	}

	if err := s.allow(policy.Request{
		Tool: "create_vm",
		Node: node,
		VMID: strconv.Itoa(vmid),
		Name: name,
	}); err != nil {
		return "", err
	}

	// Best-effort duplicate check. A listing failure does not block the
	// creation; the API rejects duplicate IDs itself.
	if existing, err := s.client.VMs(ctx, node); err == nil {
		for _, vm := range existing {
			if int(vm.VMID) == vmid {
				return "", &pvemcperrors.ValidationError{
					Field:      "vmid",
					Message:    fmt.Sprintf("VM %d already exists on node %s", vmid, node),
					Suggestion: "pick an unused ID; get_vms lists the IDs in use",
				}
			}
		}
	}

	if _, err := s.client.CreateVM(ctx, node, proxmox.CreateVMParams{
		VMID:    vmid,
		Name:    name,
		Cores:   cores,
		Memory:  memory,
		Storage: storage,
		OSType:  ostype,
	}); err != nil {
		return "", err
	}

	return format.VMCreated(node, vmid, name, cores, memory, storage, ostype), nil
}

// vmPowerHandler builds the handler for one VM power operation. The
// operation name doubles as the tool name prefix and the policy tool
// identifier.
func (s *Server) vmPowerHandler(operation string, action func(context.Context, string, int) (string, error)) toolFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (string, error) {
		node, err := requireNode(request)
		if err != nil {
			return "", err
		}
		vmid, err := requireGuestID(request, "vmid")
		if err != nil {
			return "", err
		}

		if err := s.allow(policy.Request{
			Tool: operation + "_vm",
			Node: node,
			VMID: strconv.Itoa(vmid),
		}); err != nil {
			return "", err
		}

		if _, err := action(ctx, node, vmid); err != nil {
			return "", err
		}

		st, err := s.client.VMStatus(ctx, node, vmid)
		if err != nil {
			return "", err
		}
		status := st.Status
		if status == "" {
			status = "unknown"
		}

		return format.VMPowerResult(operation, node, vmid, status), nil
	}
}

func (s *Server) handleGetVMConfig(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	node, err := requireNode(request)
	if err != nil {
		return "", err
	}
	vmid, err := requireGuestID(request, "vmid")
	if err != nil {
		return "", err
	}

	cfg, err := s.client.VMConfig(ctx, node, vmid)
	if err != nil {
		return "", err
	}
	st, err := s.client.VMStatus(ctx, node, vmid)
	if err != nil {
		return "", err
	}

	return format.VMConfig(node, vmid, st.Status, cfg), nil
}

func (s *Server) handleUpdateVMConfig(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	node, err := requireNode(request)
	if err != nil {
		return "", err
	}
	vmid, err := requireGuestID(request, "vmid")
	if err != nil {
		return "", err
	}

	if err := s.allow(policy.Request{
		Tool: "update_vm_config",
		Node: node,
		VMID: strconv.Itoa(vmid),
	}); err != nil {
		return "", err
	}

	var params proxmox.UpdateVMConfigParams
	changed := false
	if cores, ok, err := optionalInt(request, "cores"); err != nil {
		return "", err
	} else if ok {
		params.Cores = &cores
		changed = true
	}
	if memory, ok, err := optionalInt(request, "memory"); err != nil {
		return "", err
	} else if ok {
		params.Memory = &memory
		changed = true
	}
	if name, ok := optionalString(request, "name"); ok {
		params.Name = &name
		changed = true
	}
	if description, ok := optionalString(request, "description"); ok {
		params.Description = &description
		changed = true
	}

	if !changed {
		return "", &pvemcperrors.ValidationError{
			Field:      "config",
			Message:    "no configuration changes provided",
			Suggestion: "pass at least one of cores, memory, name or description",
		}
	}

	if err := s.client.UpdateVMConfig(ctx, node, vmid, params); err != nil {
		return "", err
	}

	return format.VMConfigUpdated(node, vmid), nil
}
