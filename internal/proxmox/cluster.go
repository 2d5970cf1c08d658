package proxmox

import (
	"context"
	"net/url"
	"strings"
)

// storageStatus is the response of GET /nodes/{node}/storage/{storage}/status.
type storageStatus struct {
	Active  Bool  `json:"active"`
	Enabled Bool  `json:"enabled"`
	Used    int64 `json:"used"`
	Total   int64 `json:"total"`
	Avail   int64 `json:"avail"`
}

// Storage returns all storage pool definitions, each enriched with
// usage from the first node that can report it. Pools whose status
// cannot be fetched keep zero usage and Status "unknown" instead of
// failing the listing.
func (c *Client) Storage(ctx context.Context) ([]StoragePool, error) {
	var pools []StoragePool
	if err := c.get(ctx, "/storage", &pools); err != nil {
		return nil, err
	}

	for i := range pools {
		pools[i].Status = "unknown"
	}

	nodes, err := c.Nodes(ctx)
	if err != nil {
		c.logger.Debug("node list fetch failed, listing storage without usage", "error", err)
		return pools, nil
	}

	for i := range pools {
		c.enrichStoragePool(ctx, &pools[i], nodes)
	}
	return pools, nil
}

// enrichStoragePool fills usage from the first eligible node. A pool
// definition may restrict itself to a subset of nodes via the nodes
// field (comma-separated).
func (c *Client) enrichStoragePool(ctx context.Context, pool *StoragePool, nodes []Node) {
	for _, node := range nodes {
		if !storageOnNode(pool.Nodes, node.Node) {
			continue
		}

		path := "/nodes/" + url.PathEscape(node.Node) + "/storage/" + url.PathEscape(pool.Storage) + "/status"
		var status storageStatus
		if err := c.get(ctx, path, &status); err != nil {
			c.logger.Debug("storage status fetch failed",
				"storage", pool.Storage,
				"node", node.Node,
				"error", err,
			)
			continue
		}

		pool.Used = status.Used
		pool.Total = status.Total
		pool.Avail = status.Avail
		pool.Node = node.Node
		switch {
		case bool(status.Active):
			pool.Status = "online"
		case bool(status.Enabled):
			pool.Status = "offline"
		default:
			pool.Status = "disabled"
		}
		return
	}
}

func storageOnNode(restriction, node string) bool {
	if restriction == "" {
		return true
	}
	for _, n := range strings.Split(restriction, ",") {
		if strings.TrimSpace(n) == node {
			return true
		}
	}
	return false
}

// ClusterStatus returns the cluster status rows: one "cluster" row
// with name and quorum, plus one "node" row per member.
func (c *Client) ClusterStatus(ctx context.Context) ([]ClusterStatusEntry, error) {
	var entries []ClusterStatusEntry
	if err := c.get(ctx, "/cluster/status", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Version returns the API server version. Useful as a cheap
// connectivity and auth check.
func (c *Client) Version(ctx context.Context) (*Version, error) {
	var version Version
	if err := c.get(ctx, "/version", &version); err != nil {
		return nil, err
	}
	return &version, nil
}
