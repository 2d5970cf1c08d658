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

// registerContainerTools registers the LXC container tools.
func (s *Server) registerContainerTools() {
	// Tool: get_containers
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_containers",
		Description: descGetContainers,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handle("get_containers", s.handleGetContainers))

	// Tool: create_container
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_container",
		Description: descCreateContainer,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"node":     prop("string", "Target node name (e.g. 'pve1')"),
				"vmid":     prop("string", "Container ID number (e.g. '200')"),
				"hostname": prop("string", "Container hostname (e.g. 'web-server')"),
				"template": prop("string", "Template to use (e.g. 'ubuntu-20.04-standard')"),
				"storage":  prop("string", "Storage pool (e.g. 'local-lvm')"),
				"cores":    prop("integer", "CPU cores (e.g. 2)"),
				"memory":   prop("integer", "Memory in MB (e.g. 2048)"),
				"password": prop("string", "Root password for container"),
			},
			Required: []string{"node", "vmid", "hostname", "template", "storage", "cores", "memory", "password"},
		},
	}, s.handle("create_container", s.handleCreateContainer))

	powerOps := []struct {
		op     string
		desc   string
		action func(context.Context, string, int) (string, error)
	}{
		{"start", descStartContainer, s.client.StartContainer},
		{"stop", descStopContainer, s.client.StopContainer},
		{"shutdown", descShutdownContainer, s.client.ShutdownContainer},
		{"reboot", descRebootContainer, s.client.RebootContainer},
		{"suspend", descSuspendContainer, s.client.SuspendContainer},
		{"resume", descResumeContainer, s.client.ResumeContainer},
	}
	for _, p := range powerOps {
		name := p.op + "_container"
		s.mcpServer.AddTool(mcp.Tool{
			Name:        name,
			Description: p.desc,
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"node": prop("string", "Target node name (e.g. 'pve1')"),
					"vmid": prop("string", "Container ID number (e.g. '200')"),
				},
				Required: []string{"node", "vmid"},
			},
		}, s.handle(name, s.containerPowerHandler(p.op, p.action)))
	}

	// Tool: clone_container
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "clone_container",
		Description: descCloneContainer,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"node":    prop("string", "Target node name (e.g. 'pve1')"),
				"vmid":    prop("string", "Source container ID (e.g. '200')"),
				"newid":   prop("string", "New container ID (e.g. '201')"),
				"name":    prop("string", "New container name (e.g. 'web-server-clone')"),
				"storage": prop("string", "Storage pool for clone (e.g. 'local-lvm')"),
			},
			Required: []string{"node", "vmid", "newid", "name", "storage"},
		},
	}, s.handle("clone_container", s.handleCloneContainer))

	// Tool: destroy_container
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "destroy_container",
		Description: descDestroyContainer,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"node": prop("string", "Target node name (e.g. 'pve1')"),
				"vmid": prop("string", "Container ID number (e.g. '200')"),
			},
			Required: []string{"node", "vmid"},
		},
	}, s.handle("destroy_container", s.handleDestroyContainer))

	// Tool: get_container_config
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_container_config",
		Description: descGetContainerConfig,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"node": prop("string", "Target node name (e.g. 'pve1')"),
				"vmid": prop("string", "Container ID number (e.g. '200')"),
			},
			Required: []string{"node", "vmid"},
		},
	}, s.handle("get_container_config", s.handleGetContainerConfig))

	// Tool: update_container_config
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "update_container_config",
		Description: descUpdateContainerConfig,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"node":        prop("string", "Target node name (e.g. 'pve1')"),
				"vmid":        prop("string", "Container ID number (e.g. '200')"),
				"cores":       prop("integer", "CPU cores (e.g. 4)"),
				"memory":      prop("integer", "Memory in MB (e.g. 4096)"),
				"hostname":    prop("string", "Container hostname (e.g. 'new-hostname')"),
				"description": prop("string", "Container description"),
			},
			Required: []string{"node", "vmid"},
		},
	}, s.handle("update_container_config", s.handleUpdateContainerConfig))
}

func (s *Server) handleGetContainers(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	containers, err := s.client.ListContainers(ctx)
	if err != nil {
		return "", err
	}
	return format.ContainerList(containers), nil
}

func (s *Server) handleCreateContainer(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	node, err := requireNode(request)
	if err != nil {
		return "", err
	}
	vmid, err := requireGuestID(request, "vmid")
	if err != nil {
		return "", err
	}
	hostname, err := requireString(request, "hostname")
	if err != nil {
		return "", err
	}
	template, err := requireString(request, "template")
	if err != nil {
		return "", err
	}
	storage, err := requireString(request, "storage")
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
	password, err := requireString(request, "password")
	if err != nil {
		return "", err
	}

	if err := s.allow(policy.Request{
		Tool: "create_container",
		Node: node,
		VMID: strconv.Itoa(vmid),
		Name: hostname,
	}); err != nil {
		return "", err
	}

	// Best-effort duplicate check, like create_vm.
	if existing, err := s.client.Containers(ctx, node); err == nil {
		for _, ct := range existing {
			if int(ct.VMID) == vmid {
				return "", &pvemcperrors.ValidationError{
					Field:      "vmid",
					Message:    fmt.Sprintf("Container %d already exists on node %s", vmid, node),
					Suggestion: "pick an unused ID; get_containers lists the IDs in use",
				}
			}
		}
	}

	if _, err := s.client.CreateContainer(ctx, node, proxmox.CreateContainerParams{
		VMID:     vmid,
		Hostname: hostname,
		Template: template,
		Storage:  storage,
		Cores:    cores,
		Memory:   memory,
		Password: password,
	}); err != nil {
		return "", err
	}

	return format.ContainerCreated(node, vmid, hostname, template, cores, memory, storage), nil
}

// containerPowerHandler builds the handler for one container power
// operation, mirroring vmPowerHandler.
func (s *Server) containerPowerHandler(operation string, action func(context.Context, string, int) (string, error)) toolFunc {
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
			Tool: operation + "_container",
			Node: node,
			VMID: strconv.Itoa(vmid),
		}); err != nil {
			return "", err
		}

		if _, err := action(ctx, node, vmid); err != nil {
			return "", err
		}

		st, err := s.client.ContainerStatus(ctx, node, vmid)
		if err != nil {
			return "", err
		}
		status := st.Status
		if status == "" {
			status = "unknown"
		}

		return format.ContainerPowerResult(operation, node, vmid, status), nil
	}
}

func (s *Server) handleCloneContainer(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	node, err := requireNode(request)
	if err != nil {
		return "", err
	}
	vmid, err := requireGuestID(request, "vmid")
	if err != nil {
		return "", err
	}
	newid, err := requireGuestID(request, "newid")
	if err != nil {
		return "", err
	}
	name, err := requireString(request, "name")
	if err != nil {
		return "", err
	}
	storage, err := requireString(request, "storage")
	if err != nil {
		return "", err
	}

	if err := s.allow(policy.Request{
		Tool: "clone_container",
		Node: node,
		VMID: strconv.Itoa(vmid),
		Name: name,
	}); err != nil {
		return "", err
	}

	if _, err := s.client.CloneContainer(ctx, node, vmid, newid, name, storage); err != nil {
		return "", err
	}

	// Clones report like creations; cores and memory are inherited from
	// the source, so they are not known here.
	return format.ContainerCreated(node, newid, name, "cloned", 0, 0, storage), nil
}

func (s *Server) handleDestroyContainer(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	node, err := requireNode(request)
	if err != nil {
		return "", err
	}
	vmid, err := requireGuestID(request, "vmid")
	if err != nil {
		return "", err
	}

	if err := s.allow(policy.Request{
		Tool: "destroy_container",
		Node: node,
		VMID: strconv.Itoa(vmid),
	}); err != nil {
		return "", err
	}

	if _, err := s.client.DestroyContainer(ctx, node, vmid); err != nil {
		return "", err
	}

	// No status fetch: the guest no longer exists.
	return format.ContainerPowerResult("destroy", node, vmid, "destroyed"), nil
}

func (s *Server) handleGetContainerConfig(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	node, err := requireNode(request)
	if err != nil {
		return "", err
	}
	vmid, err := requireGuestID(request, "vmid")
	if err != nil {
		return "", err
	}

	cfg, err := s.client.ContainerConfig(ctx, node, vmid)
	if err != nil {
		return "", err
	}
	st, err := s.client.ContainerStatus(ctx, node, vmid)
	if err != nil {
		return "", err
	}

	return format.ContainerConfig(node, vmid, st.Status, cfg), nil
}

func (s *Server) handleUpdateContainerConfig(ctx context.Context, request mcp.CallToolRequest) (string, error) {
	node, err := requireNode(request)
	if err != nil {
		return "", err
	}
	vmid, err := requireGuestID(request, "vmid")
	if err != nil {
		return "", err
	}

	if err := s.allow(policy.Request{
		Tool: "update_container_config",
		Node: node,
		VMID: strconv.Itoa(vmid),
	}); err != nil {
		return "", err
	}

	var params proxmox.UpdateContainerConfigParams
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
	if hostname, ok := optionalString(request, "hostname"); ok {
		params.Hostname = &hostname
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
			Suggestion: "pass at least one of cores, memory, hostname or description",
		}
	}

	if err := s.client.UpdateContainerConfig(ctx, node, vmid, params); err != nil {
		return "", err
	}

	return format.ContainerConfigUpdated(node, vmid), nil
}
