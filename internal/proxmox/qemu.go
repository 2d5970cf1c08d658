package proxmox

import (
	"context"
	"net/url"
	"strconv"
)

func vmPath(node string, vmid int) string {
	return "/nodes/" + url.PathEscape(node) + "/qemu/" + strconv.Itoa(vmid)
}

// VMs returns the VMs on one node. Node is set on every row; Cores
// stays unset (listings enrich it separately, see ListVMs).
func (c *Client) VMs(ctx context.Context, node string) ([]GuestSummary, error) {
	var vms []GuestSummary
	if err := c.get(ctx, "/nodes/"+url.PathEscape(node)+"/qemu", &vms); err != nil {
		return nil, err
	}
	for i := range vms {
		vms[i].Node = node
	}
	return vms, nil
}

// ListVMs returns all VMs across the cluster, each enriched with the
// core count from its config. A failed config fetch leaves the row's
// Cores at zero instead of failing the listing.
func (c *Client) ListVMs(ctx context.Context) ([]GuestSummary, error) {
	nodes, err := c.Nodes(ctx)
	if err != nil {
		return nil, err
	}

	var result []GuestSummary
	for _, node := range nodes {
		vms, err := c.VMs(ctx, node.Node)
		if err != nil {
			return nil, err
		}

		for _, vm := range vms {
			cfg, err := c.VMConfig(ctx, node.Node, int(vm.VMID))
			if err != nil {
				c.logger.Debug("vm config fetch failed, listing without core count",
					"node", node.Node,
					"vmid", int(vm.VMID),
					"error", err,
				)
			} else {
				vm.Cores = int(cfg.Cores)
			}
			result = append(result, vm)
		}
	}
	return result, nil
}

// VMStatus returns the current status of a VM.
func (c *Client) VMStatus(ctx context.Context, node string, vmid int) (*GuestStatus, error) {
	var status GuestStatus
	if err := c.get(ctx, vmPath(node, vmid)+"/status/current", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// VMConfig returns the configuration of a VM.
func (c *Client) VMConfig(ctx context.Context, node string, vmid int) (*VMConfig, error) {
	var cfg VMConfig
	if err := c.get(ctx, vmPath(node, vmid)+"/config", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CreateVM creates a new VM with a 32GB sata0 disk on the given
// storage and a virtio NIC on vmbr0. Returns the creation task UPID.
func (c *Client) CreateVM(ctx context.Context, node string, params CreateVMParams) (string, error) {
	form := url.Values{}
	form.Set("vmid", strconv.Itoa(params.VMID))
	form.Set("name", params.Name)
	form.Set("cores", strconv.Itoa(params.Cores))
	form.Set("memory", strconv.Itoa(params.Memory))
	form.Set("ostype", params.OSType)
	form.Set("sata0", params.Storage+":32")
	form.Set("net0", "virtio,bridge=vmbr0")

	var upid string
	if err := c.postForm(ctx, "/nodes/"+url.PathEscape(node)+"/qemu", form, &upid); err != nil {
		return "", err
	}
	return upid, nil
}

// UpdateVMConfig applies the non-nil fields of params to a VM's
// configuration.
func (c *Client) UpdateVMConfig(ctx context.Context, node string, vmid int, params UpdateVMConfigParams) error {
	form := url.Values{}
	if params.Name != nil {
		form.Set("name", *params.Name)
	}
	if params.Cores != nil {
		form.Set("cores", strconv.Itoa(*params.Cores))
	}
	if params.Memory != nil {
		form.Set("memory", strconv.Itoa(*params.Memory))
	}
	if params.Description != nil {
		form.Set("description", *params.Description)
	}

	return c.putForm(ctx, vmPath(node, vmid)+"/config", form)
}

// StartVM starts a VM and returns the task UPID.
func (c *Client) StartVM(ctx context.Context, node string, vmid int) (string, error) {
	return c.vmStatusOp(ctx, node, vmid, "start")
}

// StopVM hard-stops a VM (like pulling the power) and returns the task
// UPID.
func (c *Client) StopVM(ctx context.Context, node string, vmid int) (string, error) {
	return c.vmStatusOp(ctx, node, vmid, "stop")
}

// ShutdownVM requests a clean guest shutdown and returns the task UPID.
func (c *Client) ShutdownVM(ctx context.Context, node string, vmid int) (string, error) {
	return c.vmStatusOp(ctx, node, vmid, "shutdown")
}

// RebootVM resets a VM (hard reset, not a guest-cooperative reboot)
// and returns the task UPID.
func (c *Client) RebootVM(ctx context.Context, node string, vmid int) (string, error) {
	return c.vmStatusOp(ctx, node, vmid, "reset")
}

func (c *Client) vmStatusOp(ctx context.Context, node string, vmid int, op string) (string, error) {
	var upid string
	if err := c.postForm(ctx, vmPath(node, vmid)+"/status/"+op, nil, &upid); err != nil {
		return "", err
	}
	return upid, nil
}

// AgentExec submits a command to the QEMU guest agent and returns the
// guest-side PID. The command string is passed to the agent verbatim.
func (c *Client) AgentExec(ctx context.Context, node string, vmid int, command string) (int, error) {
	form := url.Values{}
	form.Set("command", command)

	var result struct {
		PID int `json:"pid"`
	}
	if err := c.postForm(ctx, vmPath(node, vmid)+"/agent/exec", form, &result); err != nil {
		return 0, err
	}
	return result.PID, nil
}

// AgentExecStatus polls a command previously submitted with AgentExec.
// Output fields are only present once Exited is true.
func (c *Client) AgentExecStatus(ctx context.Context, node string, vmid, pid int) (*AgentExecStatus, error) {
	var status AgentExecStatus
	path := vmPath(node, vmid) + "/agent/exec-status?pid=" + strconv.Itoa(pid)
	if err := c.get(ctx, path, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
