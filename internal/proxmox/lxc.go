package proxmox

import (
	"context"
	"net/url"
	"strconv"
)

func ctPath(node string, vmid int) string {
	return "/nodes/" + url.PathEscape(node) + "/lxc/" + strconv.Itoa(vmid)
}

// Containers returns the LXC containers on one node. Node is set on
// every row; Cores stays unset (see ListContainers).
func (c *Client) Containers(ctx context.Context, node string) ([]GuestSummary, error) {
	var cts []GuestSummary
	if err := c.get(ctx, "/nodes/"+url.PathEscape(node)+"/lxc", &cts); err != nil {
		return nil, err
	}
	for i := range cts {
		cts[i].Node = node
	}
	return cts, nil
}

// ListContainers returns all containers across the cluster, each
// enriched with the core count from its config. A failed config fetch
// leaves the row's Cores at zero instead of failing the listing.
func (c *Client) ListContainers(ctx context.Context) ([]GuestSummary, error) {
	nodes, err := c.Nodes(ctx)
	if err != nil {
		return nil, err
	}

	var result []GuestSummary
	for _, node := range nodes {
		cts, err := c.Containers(ctx, node.Node)
		if err != nil {
			return nil, err
		}

		for _, ct := range cts {
			cfg, err := c.ContainerConfig(ctx, node.Node, int(ct.VMID))
			if err != nil {
				c.logger.Debug("container config fetch failed, listing without core count",
					"node", node.Node,
					"vmid", int(ct.VMID),
					"error", err,
				)
			} else {
				ct.Cores = int(cfg.Cores)
			}
			result = append(result, ct)
		}
	}
	return result, nil
}

// ContainerStatus returns the current status of a container.
func (c *Client) ContainerStatus(ctx context.Context, node string, vmid int) (*GuestStatus, error) {
	var status GuestStatus
	if err := c.get(ctx, ctPath(node, vmid)+"/status/current", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ContainerConfig returns the configuration of a container.
func (c *Client) ContainerConfig(ctx context.Context, node string, vmid int) (*ContainerConfig, error) {
	var cfg ContainerConfig
	if err := c.get(ctx, ctPath(node, vmid)+"/config", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CreateContainer creates a new LXC container with an eth0 NIC on
// vmbr0 using DHCP. Returns the creation task UPID.
func (c *Client) CreateContainer(ctx context.Context, node string, params CreateContainerParams) (string, error) {
	form := url.Values{}
	form.Set("vmid", strconv.Itoa(params.VMID))
	form.Set("hostname", params.Hostname)
	form.Set("template", params.Template)
	form.Set("storage", params.Storage)
	form.Set("cores", strconv.Itoa(params.Cores))
	form.Set("memory", strconv.Itoa(params.Memory))
	form.Set("password", params.Password)
	form.Set("net0", "name=eth0,bridge=vmbr0,ip=dhcp")

	var upid string
	if err := c.postForm(ctx, "/nodes/"+url.PathEscape(node)+"/lxc", form, &upid); err != nil {
		return "", err
	}
	return upid, nil
}

// UpdateContainerConfig applies the non-nil fields of params to a
// container's configuration.
func (c *Client) UpdateContainerConfig(ctx context.Context, node string, vmid int, params UpdateContainerConfigParams) error {
	form := url.Values{}
	if params.Hostname != nil {
		form.Set("hostname", *params.Hostname)
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

	return c.putForm(ctx, ctPath(node, vmid)+"/config", form)
}

// StartContainer starts a container and returns the task UPID.
func (c *Client) StartContainer(ctx context.Context, node string, vmid int) (string, error) {
	return c.ctStatusOp(ctx, node, vmid, "start")
}

// StopContainer hard-stops a container and returns the task UPID.
func (c *Client) StopContainer(ctx context.Context, node string, vmid int) (string, error) {
	return c.ctStatusOp(ctx, node, vmid, "stop")
}

// ShutdownContainer requests a clean container shutdown and returns
// the task UPID.
func (c *Client) ShutdownContainer(ctx context.Context, node string, vmid int) (string, error) {
	return c.ctStatusOp(ctx, node, vmid, "shutdown")
}

// RebootContainer reboots a container and returns the task UPID.
func (c *Client) RebootContainer(ctx context.Context, node string, vmid int) (string, error) {
	return c.ctStatusOp(ctx, node, vmid, "reboot")
}

// SuspendContainer suspends a container and returns the task UPID.
func (c *Client) SuspendContainer(ctx context.Context, node string, vmid int) (string, error) {
	return c.ctStatusOp(ctx, node, vmid, "suspend")
}

// ResumeContainer resumes a suspended container and returns the task
// UPID.
func (c *Client) ResumeContainer(ctx context.Context, node string, vmid int) (string, error) {
	return c.ctStatusOp(ctx, node, vmid, "resume")
}

func (c *Client) ctStatusOp(ctx context.Context, node string, vmid int, op string) (string, error) {
	var upid string
	if err := c.postForm(ctx, ctPath(node, vmid)+"/status/"+op, nil, &upid); err != nil {
		return "", err
	}
	return upid, nil
}

// CloneContainer clones a container to a new ID, optionally onto a
// different storage. Returns the clone task UPID.
func (c *Client) CloneContainer(ctx context.Context, node string, vmid, newid int, name, storage string) (string, error) {
	form := url.Values{}
	form.Set("newid", strconv.Itoa(newid))
	if name != "" {
		form.Set("name", name)
	}
	if storage != "" {
		form.Set("storage", storage)
	}

	var upid string
	if err := c.postForm(ctx, ctPath(node, vmid)+"/clone", form, &upid); err != nil {
		return "", err
	}
	return upid, nil
}

// DestroyContainer deletes a container permanently. Returns the
// destroy task UPID.
func (c *Client) DestroyContainer(ctx context.Context, node string, vmid int) (string, error) {
	var upid string
	if err := c.deletePath(ctx, ctPath(node, vmid), &upid); err != nil {
		return "", err
	}
	return upid, nil
}

// ContainerSnapshots returns the snapshots of a container, including
// the "current" pseudo-entry the API appends for the live state.
func (c *Client) ContainerSnapshots(ctx context.Context, node string, vmid int) ([]Snapshot, error) {
	var snapshots []Snapshot
	if err := c.get(ctx, ctPath(node, vmid)+"/snapshot", &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// CreateSnapshot creates a container snapshot. Returns the task UPID.
func (c *Client) CreateSnapshot(ctx context.Context, node string, vmid int, snapname, description string) (string, error) {
	form := url.Values{}
	form.Set("snapname", snapname)
	if description != "" {
		form.Set("description", description)
	}

	var upid string
	if err := c.postForm(ctx, ctPath(node, vmid)+"/snapshot", form, &upid); err != nil {
		return "", err
	}
	return upid, nil
}

// DeleteSnapshot deletes a container snapshot. Returns the task UPID.
func (c *Client) DeleteSnapshot(ctx context.Context, node string, vmid int, snapname string) (string, error) {
	var upid string
	if err := c.deletePath(ctx, ctPath(node, vmid)+"/snapshot/"+url.PathEscape(snapname), &upid); err != nil {
		return "", err
	}
	return upid, nil
}

// RollbackSnapshot rolls a container back to a snapshot. Returns the
// task UPID.
func (c *Client) RollbackSnapshot(ctx context.Context, node string, vmid int, snapname string) (string, error) {
	var upid string
	path := ctPath(node, vmid) + "/snapshot/" + url.PathEscape(snapname) + "/rollback"
	if err := c.postForm(ctx, path, nil, &upid); err != nil {
		return "", err
	}
	return upid, nil
}

// ContainerExec submits a command to run inside a container and
// returns the task UPID. Completion and output are observed through
// TaskStatus and TaskLog.
func (c *Client) ContainerExec(ctx context.Context, node string, vmid int, command string) (string, error) {
	form := url.Values{}
	form.Set("command", command)

	var upid string
	if err := c.postForm(ctx, ctPath(node, vmid)+"/exec", form, &upid); err != nil {
		return "", err
	}
	return upid, nil
}
