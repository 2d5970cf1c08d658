package proxmox

import (
	"context"
	"net/url"
	"strconv"
)

// Nodes returns all cluster nodes.
func (c *Client) Nodes(ctx context.Context) ([]Node, error) {
	var nodes []Node
	if err := c.get(ctx, "/nodes", &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// NodeStatus returns detailed status for one node: uptime, CPU,
// memory, rootfs and version information.
func (c *Client) NodeStatus(ctx context.Context, node string) (*NodeStatus, error) {
	var status NodeStatus
	if err := c.get(ctx, "/nodes/"+url.PathEscape(node)+"/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// TaskStatus returns the state of a node task. Lifecycle operations
// and container exec return UPIDs that are resolved here.
func (c *Client) TaskStatus(ctx context.Context, node, upid string) (*TaskStatus, error) {
	var status TaskStatus
	path := "/nodes/" + url.PathEscape(node) + "/tasks/" + url.PathEscape(upid) + "/status"
	if err := c.get(ctx, path, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// TaskLog returns the task log starting at the given line offset.
// Limit 0 uses the server default.
func (c *Client) TaskLog(ctx context.Context, node, upid string, start, limit int) ([]TaskLogLine, error) {
	path := "/nodes/" + url.PathEscape(node) + "/tasks/" + url.PathEscape(upid) + "/log"

	query := url.Values{}
	if start > 0 {
		query.Set("start", strconv.Itoa(start))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var lines []TaskLogLine
	if err := c.get(ctx, path, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}
