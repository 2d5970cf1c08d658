package proxmox

import (
	"fmt"
	"strconv"
	"strings"
)

// Bool decodes the boolean flavors the PVE API actually emits: JSON
// booleans, 0/1 numbers, and "0"/"1" strings, depending on endpoint
// and version.
type Bool bool

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	switch s {
	case "1", "true":
		*b = true
	case "0", "false", "", "null":
		*b = false
	default:
		return fmt.Errorf("cannot parse %q as boolean", s)
	}
	return nil
}

// Int decodes the numeric flavors the PVE API emits for the same field
// across versions: integers, floats, and quoted strings.
type Int int

// UnmarshalJSON implements json.Unmarshaler.
func (i *Int) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*i = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("cannot parse %q as number: %w", s, err)
	}
	*i = Int(v)
	return nil
}

// Node is a row from GET /nodes.
type Node struct {
	Node    string  `json:"node"`
	Status  string  `json:"status"`
	Uptime  int64   `json:"uptime"`
	CPU     float64 `json:"cpu"`
	MaxCPU  Int     `json:"maxcpu"`
	Mem     int64   `json:"mem"`
	MaxMem  int64   `json:"maxmem"`
	Disk    int64   `json:"disk"`
	MaxDisk int64   `json:"maxdisk"`
}

// CPUInfo describes the node processor from GET /nodes/{node}/status.
type CPUInfo struct {
	CPUs    Int    `json:"cpus"`
	Cores   Int    `json:"cores"`
	Sockets Int    `json:"sockets"`
	Model   string `json:"model"`
	MHz     string `json:"mhz"`
}

// ResourceUsage is a used/total pair as reported for memory, rootfs and
// swap.
type ResourceUsage struct {
	Used  int64 `json:"used"`
	Total int64 `json:"total"`
	Free  int64 `json:"free"`
	Avail int64 `json:"avail"`
}

// NodeStatus is the response of GET /nodes/{node}/status.
type NodeStatus struct {
	Uptime     int64         `json:"uptime"`
	CPU        float64       `json:"cpu"`
	CPUInfo    CPUInfo       `json:"cpuinfo"`
	Memory     ResourceUsage `json:"memory"`
	RootFS     ResourceUsage `json:"rootfs"`
	Swap       ResourceUsage `json:"swap"`
	LoadAvg    []string      `json:"loadavg"`
	KVersion   string        `json:"kversion"`
	PVEVersion string        `json:"pveversion"`
}

// GuestSummary is one row of an aggregated VM or container listing.
// Node and Cores are filled by the aggregator: Node from the listing
// loop, Cores from the per-guest config fetch. Cores stays 0 when that
// fetch fails, which listings report as unknown rather than failing.
type GuestSummary struct {
	VMID   Int    `json:"vmid"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Mem    int64  `json:"mem"`
	MaxMem int64  `json:"maxmem"`
	Node   string `json:"-"`
	Cores  int    `json:"-"`
}

// GuestStatus is the response of GET .../status/current for both VM
// and container guests.
type GuestStatus struct {
	Status string  `json:"status"`
	Name   string  `json:"name"`
	VMID   Int     `json:"vmid"`
	Uptime int64   `json:"uptime"`
	CPUs   float64 `json:"cpus"`
	Mem    int64   `json:"mem"`
	MaxMem int64   `json:"maxmem"`
	Lock   string  `json:"lock"`
}

// VMConfig is the response of GET /nodes/{node}/qemu/{vmid}/config.
// Memory is in megabytes, the unit the API uses for config values.
type VMConfig struct {
	Name        string `json:"name"`
	Cores       Int    `json:"cores"`
	Sockets     Int    `json:"sockets"`
	Memory      Int    `json:"memory"`
	OSType      string `json:"ostype"`
	Description string `json:"description"`
	Boot        string `json:"boot"`
	BootDisk    string `json:"bootdisk"`
	Net0        string `json:"net0"`
	Agent       string `json:"agent"`
	Digest      string `json:"digest"`
}

// ContainerConfig is the response of GET /nodes/{node}/lxc/{vmid}/config.
type ContainerConfig struct {
	Hostname     string `json:"hostname"`
	Cores        Int    `json:"cores"`
	Memory       Int    `json:"memory"`
	Swap         Int    `json:"swap"`
	OSType       string `json:"ostype"`
	Arch         string `json:"arch"`
	RootFS       string `json:"rootfs"`
	Net0         string `json:"net0"`
	Description  string `json:"description"`
	Unprivileged Bool   `json:"unprivileged"`
	Digest       string `json:"digest"`
}

// Snapshot is a row from GET /nodes/{node}/lxc/{vmid}/snapshot. The
// API appends a pseudo-row named "current" for the live state.
type Snapshot struct {
	Name        string `json:"name"`
	SnapTime    int64  `json:"snaptime"`
	Description string `json:"description"`
	Parent      string `json:"parent"`
}

// StoragePool is one row of the storage listing. The definition fields
// come from GET /storage; usage and Status are filled by a per-pool
// status fetch and stay zero / "unknown" when that fetch fails. Node
// records which node the usage was sampled from.
type StoragePool struct {
	Storage string `json:"storage"`
	Type    string `json:"type"`
	Content string `json:"content"`
	Shared  Bool   `json:"shared"`
	Nodes   string `json:"nodes"`
	Used    int64  `json:"-"`
	Total   int64  `json:"-"`
	Avail   int64  `json:"-"`
	Status  string `json:"-"`
	Node    string `json:"-"`
}

// ClusterStatusEntry is a row from GET /cluster/status. Rows with
// Type "cluster" carry Name/Quorate/Nodes; rows with Type "node"
// carry Online/IP/Local.
type ClusterStatusEntry struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Quorate Bool   `json:"quorate"`
	Nodes   Int    `json:"nodes"`
	Online  Bool   `json:"online"`
	IP      string `json:"ip"`
	Local   Bool   `json:"local"`
	NodeID  Int    `json:"nodeid"`
	Level   string `json:"level"`
}

// Version is the response of GET /version.
type Version struct {
	Version string `json:"version"`
	Release string `json:"release"`
	RepoID  string `json:"repoid"`
}

// AgentExecStatus is the response of GET .../agent/exec-status. Exited
// is reported as 0/1 by the agent.
type AgentExecStatus struct {
	Exited   Bool   `json:"exited"`
	ExitCode int    `json:"exitcode"`
	OutData  string `json:"out-data"`
	ErrData  string `json:"err-data"`
	Signal   int    `json:"signal"`
}

// TaskStatus is the response of GET /nodes/{node}/tasks/{upid}/status.
type TaskStatus struct {
	UPID       string `json:"upid"`
	Node       string `json:"node"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	ExitStatus string `json:"exitstatus"`
	User       string `json:"user"`
	StartTime  int64  `json:"starttime"`
	PID        Int    `json:"pid"`
}

// Finished reports whether the task has stopped running. ExitStatus is
// only meaningful once this is true.
func (t *TaskStatus) Finished() bool {
	return t.Status == "stopped"
}

// OK reports whether a finished task succeeded.
func (t *TaskStatus) OK() bool {
	return t.ExitStatus == "OK"
}

// TaskLogLine is a row from GET /nodes/{node}/tasks/{upid}/log.
type TaskLogLine struct {
	N int    `json:"n"`
	T string `json:"t"`
}

// CreateVMParams are the settings for a new VM. The disk is allocated
// as a 32GB sata0 volume on Storage and networking defaults to a
// virtio NIC on vmbr0, matching what the create_vm tool promises.
type CreateVMParams struct {
	VMID    int
	Name    string
	Cores   int
	Memory  int // MB
	Storage string
	OSType  string
}

// UpdateVMConfigParams carries the optional config changes for a VM.
// Nil fields are left untouched.
type UpdateVMConfigParams struct {
	Name        *string
	Cores       *int
	Memory      *int // MB
	Description *string
}

// CreateContainerParams are the settings for a new LXC container.
// Networking defaults to eth0 on vmbr0 with DHCP.
type CreateContainerParams struct {
	VMID     int
	Hostname string
	Template string
	Storage  string
	Cores    int
	Memory   int // MB
	Password string
}

// UpdateContainerConfigParams carries the optional config changes for
// a container. Nil fields are left untouched.
type UpdateContainerConfigParams struct {
	Hostname    *string
	Cores       *int
	Memory      *int // MB
	Description *string
}
