package format

import (
	"fmt"
	"strings"

	"github.com/tombee/pvemcp/internal/proxmox"
)

// NodeList renders the node inventory with per-node resource usage.
func NodeList(nodes []proxmox.Node) string {
	lines := []string{iconNode + " Proxmox Nodes"}

	for _, node := range nodes {
		lines = append(lines,
			"",
			fmt.Sprintf("%s %s", iconNode, node.Node),
			fmt.Sprintf("  • Status: %s", strings.ToUpper(statusOrUnknown(node.Status))),
			fmt.Sprintf("  • Uptime: %s", Uptime(node.Uptime)),
			fmt.Sprintf("  • CPU Cores: %s", intOrNA(int(node.MaxCPU))),
			usageLine("Memory", node.Mem, node.MaxMem),
		)
		if node.MaxDisk > 0 {
			lines = append(lines, usageLine("Disk", node.Disk, node.MaxDisk))
		}
	}

	return strings.Join(lines, "\n")
}

// NodeStatus renders one node's detail view. The caller supplies the
// power status; the status endpoint itself does not report one.
func NodeStatus(node, status string, st *proxmox.NodeStatus) string {
	lines := []string{
		fmt.Sprintf("%s Node: %s", iconNode, node),
		fmt.Sprintf("  • Status: %s", strings.ToUpper(statusOrUnknown(status))),
		fmt.Sprintf("  • Uptime: %s", Uptime(st.Uptime)),
		fmt.Sprintf("  • CPU Cores: %s", intOrNA(int(st.CPUInfo.CPUs))),
		usageLine("Memory", st.Memory.Used, st.Memory.Total),
	}
	if st.RootFS.Total > 0 {
		lines = append(lines, usageLine("Disk", st.RootFS.Used, st.RootFS.Total))
	}
	return strings.Join(lines, "\n")
}

// VMList renders the aggregated VM listing. Rows whose config fetch
// failed carry Cores 0 and render as "N/A".
func VMList(vms []proxmox.GuestSummary) string {
	lines := []string{iconVM + " Virtual Machines"}

	for _, vm := range vms {
		lines = append(lines,
			"",
			fmt.Sprintf("%s %s (ID: %d)", iconVM, vm.Name, int(vm.VMID)),
			fmt.Sprintf("  • Status: %s", strings.ToUpper(statusOrUnknown(vm.Status))),
			fmt.Sprintf("  • Node: %s", vm.Node),
			fmt.Sprintf("  • CPU Cores: %s", intOrNA(vm.Cores)),
			usageLine("Memory", vm.Mem, vm.MaxMem),
		)
	}

	return strings.Join(lines, "\n")
}

// ContainerList renders the aggregated container listing.
func ContainerList(containers []proxmox.GuestSummary) string {
	if len(containers) == 0 {
		return iconContainer + " No containers found"
	}

	lines := []string{iconContainer + " Containers"}

	for _, ct := range containers {
		lines = append(lines,
			"",
			fmt.Sprintf("%s %s (ID: %d)", iconContainer, ct.Name, int(ct.VMID)),
			fmt.Sprintf("  • Status: %s", strings.ToUpper(statusOrUnknown(ct.Status))),
			fmt.Sprintf("  • Node: %s", ct.Node),
			fmt.Sprintf("  • CPU Cores: %s", intOrNA(ct.Cores)),
			usageLine("Memory", ct.Mem, ct.MaxMem),
		)
	}

	return strings.Join(lines, "\n")
}

// StorageList renders the storage pools. Pools whose status fetch
// failed keep Status "unknown" and zero usage.
func StorageList(pools []proxmox.StoragePool) string {
	lines := []string{iconStorage + " Storage Pools"}

	for _, pool := range pools {
		lines = append(lines,
			"",
			fmt.Sprintf("%s %s", iconStorage, pool.Storage),
			fmt.Sprintf("  • Status: %s", strings.ToUpper(statusOrUnknown(pool.Status))),
			fmt.Sprintf("  • Type: %s", pool.Type),
			usageLine("Usage", pool.Used, pool.Total),
		)
	}

	return strings.Join(lines, "\n")
}

// ClusterStatus renders the cluster summary from the status rows: the
// "cluster" row carries name, quorum and node count; the remaining
// rows are the member resources. Standalone nodes have no cluster row
// and render with N/A placeholders.
func ClusterStatus(entries []proxmox.ClusterStatusEntry) string {
	name := ""
	quorate := false
	nodes := 0
	resources := 0

	for _, entry := range entries {
		if entry.Type == "cluster" {
			name = entry.Name
			quorate = bool(entry.Quorate)
			nodes = int(entry.Nodes)
			continue
		}
		resources++
	}

	quorum := "NOT OK"
	if quorate {
		quorum = "OK"
	}

	lines := []string{
		iconCluster + " Proxmox Cluster",
		"",
		fmt.Sprintf("  • Name: %s", stringOrNA(name)),
		fmt.Sprintf("  • Quorum: %s", quorum),
		fmt.Sprintf("  • Nodes: %d", nodes),
	}
	if resources > 0 {
		lines = append(lines, fmt.Sprintf("  • Resources: %d", resources))
	}

	return strings.Join(lines, "\n")
}
