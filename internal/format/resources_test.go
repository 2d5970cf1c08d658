package format

import (
	"strings"
	"testing"

	"github.com/tombee/pvemcp/internal/proxmox"
)

func TestNodeList(t *testing.T) {
	nodes := []proxmox.Node{
		{
			Node:    "pve1",
			Status:  "online",
			Uptime:  2*86400 + 3600,
			MaxCPU:  8,
			Mem:     8 * 1024 * 1024 * 1024,
			MaxMem:  32 * 1024 * 1024 * 1024,
			Disk:    50 * 1024 * 1024 * 1024,
			MaxDisk: 100 * 1024 * 1024 * 1024,
		},
		{
			Node:   "pve2",
			Status: "offline",
		},
	}

	got := NodeList(nodes)
	want := strings.Join([]string{
		"🖥 Proxmox Nodes",
		"",
		"🖥 pve1",
		"  • Status: ONLINE",
		"  • Uptime: 2d 1h",
		"  • CPU Cores: 8",
		"  • Memory: 8.00 GB / 32.00 GB (25.0%)",
		"  • Disk: 50.00 GB / 100.00 GB (50.0%)",
		"",
		"🖥 pve2",
		"  • Status: OFFLINE",
		"  • Uptime: 0m",
		"  • CPU Cores: N/A",
		"  • Memory: 0.00 B / 0.00 B (0.0%)",
	}, "\n")

	if got != want {
		t.Errorf("NodeList() =\n%s\nwant\n%s", got, want)
	}
}

func TestNodeStatus(t *testing.T) {
	st := &proxmox.NodeStatus{
		Uptime:  3 * 3600,
		CPUInfo: proxmox.CPUInfo{CPUs: 16},
		Memory:  proxmox.ResourceUsage{Used: 4 * 1024 * 1024 * 1024, Total: 16 * 1024 * 1024 * 1024},
		RootFS:  proxmox.ResourceUsage{Used: 10 * 1024 * 1024 * 1024, Total: 40 * 1024 * 1024 * 1024},
	}

	got := NodeStatus("pve1", "online", st)
	want := strings.Join([]string{
		"🖥 Node: pve1",
		"  • Status: ONLINE",
		"  • Uptime: 3h",
		"  • CPU Cores: 16",
		"  • Memory: 4.00 GB / 16.00 GB (25.0%)",
		"  • Disk: 10.00 GB / 40.00 GB (25.0%)",
	}, "\n")

	if got != want {
		t.Errorf("NodeStatus() =\n%s\nwant\n%s", got, want)
	}
}

func TestNodeStatus_NoRootFS(t *testing.T) {
	got := NodeStatus("pve1", "", &proxmox.NodeStatus{})
	if strings.Contains(got, "Disk") {
		t.Errorf("disk bullet rendered without rootfs data:\n%s", got)
	}
	if !strings.Contains(got, "  • Status: UNKNOWN") {
		t.Errorf("empty status should render UNKNOWN:\n%s", got)
	}
}

func TestVMList(t *testing.T) {
	vms := []proxmox.GuestSummary{
		{
			VMID:   100,
			Name:   "web-01",
			Status: "running",
			Mem:    2 * 1024 * 1024 * 1024,
			MaxMem: 4 * 1024 * 1024 * 1024,
			Node:   "pve1",
			Cores:  4,
		},
		{
			VMID:   101,
			Name:   "db-01",
			Status: "stopped",
			Node:   "pve2",
			// Cores 0: the config fetch failed for this row.
		},
	}

	got := VMList(vms)

	if !strings.HasPrefix(got, "🗃 Virtual Machines") {
		t.Errorf("missing header:\n%s", got)
	}
	if !strings.Contains(got, "🗃 web-01 (ID: 100)") {
		t.Errorf("missing VM line:\n%s", got)
	}
	if !strings.Contains(got, "  • Status: RUNNING") {
		t.Errorf("missing status line:\n%s", got)
	}
	if !strings.Contains(got, "  • Memory: 2.00 GB / 4.00 GB (50.0%)") {
		t.Errorf("missing memory line:\n%s", got)
	}
	if !strings.Contains(got, "🗃 db-01 (ID: 101)") || !strings.Contains(got, "  • CPU Cores: N/A") {
		t.Errorf("unenriched row not rendered with N/A:\n%s", got)
	}
}

func TestContainerList(t *testing.T) {
	containers := []proxmox.GuestSummary{
		{
			VMID:   201,
			Name:   "dns",
			Status: "running",
			Mem:    256 * 1024 * 1024,
			MaxMem: 512 * 1024 * 1024,
			Node:   "pve1",
			Cores:  2,
		},
	}

	got := ContainerList(containers)

	if !strings.HasPrefix(got, "📦 Containers") {
		t.Errorf("missing header:\n%s", got)
	}
	if !strings.Contains(got, "📦 dns (ID: 201)") {
		t.Errorf("missing container line:\n%s", got)
	}
	if !strings.Contains(got, "  • Memory: 256.00 MB / 512.00 MB (50.0%)") {
		t.Errorf("missing memory line:\n%s", got)
	}
}

func TestContainerList_Empty(t *testing.T) {
	if got := ContainerList(nil); got != "📦 No containers found" {
		t.Errorf("ContainerList(nil) = %q", got)
	}
}

func TestStorageList(t *testing.T) {
	pools := []proxmox.StoragePool{
		{
			Storage: "local-lvm",
			Type:    "lvmthin",
			Status:  "online",
			Used:    100 * 1024 * 1024 * 1024,
			Total:   400 * 1024 * 1024 * 1024,
		},
		{
			Storage: "backup-nfs",
			Type:    "nfs",
			Status:  "unknown",
		},
	}

	got := StorageList(pools)
	want := strings.Join([]string{
		"💾 Storage Pools",
		"",
		"💾 local-lvm",
		"  • Status: ONLINE",
		"  • Type: lvmthin",
		"  • Usage: 100.00 GB / 400.00 GB (25.0%)",
		"",
		"💾 backup-nfs",
		"  • Status: UNKNOWN",
		"  • Type: nfs",
		"  • Usage: 0.00 B / 0.00 B (0.0%)",
	}, "\n")

	if got != want {
		t.Errorf("StorageList() =\n%s\nwant\n%s", got, want)
	}
}

func TestClusterStatus(t *testing.T) {
	entries := []proxmox.ClusterStatusEntry{
		{ID: "cluster", Type: "cluster", Name: "homelab", Quorate: true, Nodes: 3},
		{ID: "node/pve1", Type: "node", Name: "pve1", Online: true, Local: true},
		{ID: "node/pve2", Type: "node", Name: "pve2", Online: true},
		{ID: "node/pve3", Type: "node", Name: "pve3", Online: false},
	}

	got := ClusterStatus(entries)
	want := strings.Join([]string{
		"⚙ Proxmox Cluster",
		"",
		"  • Name: homelab",
		"  • Quorum: OK",
		"  • Nodes: 3",
		"  • Resources: 3",
	}, "\n")

	if got != want {
		t.Errorf("ClusterStatus() =\n%s\nwant\n%s", got, want)
	}
}

func TestClusterStatus_Standalone(t *testing.T) {
	entries := []proxmox.ClusterStatusEntry{
		{ID: "node/pve1", Type: "node", Name: "pve1", Online: true, Local: true},
	}

	got := ClusterStatus(entries)

	if !strings.Contains(got, "  • Name: N/A") {
		t.Errorf("standalone node should render N/A name:\n%s", got)
	}
	if !strings.Contains(got, "  • Quorum: NOT OK") {
		t.Errorf("standalone node has no quorum row:\n%s", got)
	}
	if !strings.Contains(got, "  • Resources: 1") {
		t.Errorf("node row should count as a resource:\n%s", got)
	}
}
