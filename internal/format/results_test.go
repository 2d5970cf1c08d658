package format

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/tombee/pvemcp/internal/proxmox"
)

func TestVMCreated(t *testing.T) {
	got := VMCreated("pve1", 100, "web-01", 2, 2048, "local-lvm", "l26")
	want := strings.Join([]string{
		"✅ VM Created Successfully",
		"",
		"🗃 web-01 (ID: 100)",
		"  • Node: pve1",
		"  • CPU Cores: 2",
		"  • Memory: 2048 MB",
		"  • Storage: local-lvm",
		"  • OS Type: l26",
		"",
		"ℹ VM is ready for configuration and startup",
	}, "\n")

	if got != want {
		t.Errorf("VMCreated() =\n%s\nwant\n%s", got, want)
	}
}

func TestVMPowerResult(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		status    string
		icon      string
	}{
		{name: "start", operation: "start", status: "running", icon: "▶"},
		{name: "stop", operation: "stop", status: "stopped", icon: "⏹"},
		{name: "shutdown", operation: "shutdown", status: "stopped", icon: "⏹"},
		{name: "reboot", operation: "reboot", status: "running", icon: "🔄"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VMPowerResult(tt.operation, "pve1", 100, tt.status)

			header := "✅ VM " + titleWord(tt.operation) + " Successful"
			if !strings.HasPrefix(got, header) {
				t.Errorf("missing header %q:\n%s", header, got)
			}
			if !strings.Contains(got, "  • Status: "+strings.ToUpper(tt.status)) {
				t.Errorf("missing status bullet:\n%s", got)
			}
			closing := tt.icon + " VM is now " + tt.status
			if !strings.HasSuffix(got, closing) {
				t.Errorf("missing closing line %q:\n%s", closing, got)
			}
		})
	}
}

func TestVMConfig(t *testing.T) {
	cfg := &proxmox.VMConfig{
		Name:        "web-01",
		Cores:       4,
		Memory:      4096,
		OSType:      "l26",
		Description: "production web server",
		BootDisk:    "sata0",
	}

	got := VMConfig("pve1", 100, "running", cfg)
	want := strings.Join([]string{
		"✅ VM Configuration Retrieved",
		"",
		"🗃 VM 100",
		"  • Node: pve1",
		"  • Name: web-01",
		"  • CPU Cores: 4",
		"  • Memory: 4096 MB",
		"  • OS Type: l26",
		"  • Status: running",
		"  • Description: production web server",
		"  • Boot Disk: sata0",
	}, "\n")

	if got != want {
		t.Errorf("VMConfig() =\n%s\nwant\n%s", got, want)
	}
}

func TestVMConfig_SparseFields(t *testing.T) {
	got := VMConfig("pve1", 100, "", &proxmox.VMConfig{})

	if !strings.Contains(got, "  • Name: N/A") {
		t.Errorf("missing N/A name:\n%s", got)
	}
	if !strings.Contains(got, "  • CPU Cores: N/A") {
		t.Errorf("missing N/A cores:\n%s", got)
	}
	if strings.Contains(got, "Description") || strings.Contains(got, "Boot Disk") {
		t.Errorf("optional bullets rendered for empty fields:\n%s", got)
	}
}

func TestVMConfigUpdated(t *testing.T) {
	got := VMConfigUpdated("pve1", 100)
	want := strings.Join([]string{
		"✅ VM Configuration Updated",
		"",
		"🗃 VM 100",
		"  • Node: pve1",
		"  • Status: Configuration updated successfully",
	}, "\n")

	if got != want {
		t.Errorf("VMConfigUpdated() =\n%s\nwant\n%s", got, want)
	}
}

func TestContainerCreated(t *testing.T) {
	got := ContainerCreated("pve1", 200, "dns", "local:vztmpl/debian-12-standard_12.2-1_amd64.tar.zst", 1, 512, "local-lvm")

	if !strings.HasPrefix(got, "✅ Container Created Successfully") {
		t.Errorf("missing header:\n%s", got)
	}
	if !strings.Contains(got, "📦 dns (ID: 200)") {
		t.Errorf("missing container line:\n%s", got)
	}
	if !strings.Contains(got, "  • Template: local:vztmpl/debian-12-standard_12.2-1_amd64.tar.zst") {
		t.Errorf("missing template bullet:\n%s", got)
	}
	if !strings.HasSuffix(got, "ℹ Container is ready for startup") {
		t.Errorf("missing closing line:\n%s", got)
	}
}

func TestContainerCreated_CloneShape(t *testing.T) {
	// Clones render through the same template with placeholder sizing.
	got := ContainerCreated("pve1", 202, "dns-clone", "cloned", 0, 0, "")

	if !strings.Contains(got, "  • Template: cloned") {
		t.Errorf("missing cloned marker:\n%s", got)
	}
	if !strings.Contains(got, "  • CPU Cores: 0") || !strings.Contains(got, "  • Memory: 0 MB") {
		t.Errorf("clone placeholders changed:\n%s", got)
	}
}

func TestContainerPowerResult(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		status    string
		icon      string
	}{
		{name: "suspend", operation: "suspend", status: "paused", icon: "🔒"},
		{name: "resume", operation: "resume", status: "running", icon: "🔓"},
		{name: "destroy falls back to info", operation: "destroy", status: "destroyed", icon: "ℹ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ContainerPowerResult(tt.operation, "pve1", 200, tt.status)

			if !strings.HasPrefix(got, "✅ Container "+titleWord(tt.operation)+" Successful") {
				t.Errorf("missing header:\n%s", got)
			}
			closing := tt.icon + " Container is now " + tt.status
			if !strings.HasSuffix(got, closing) {
				t.Errorf("missing closing line %q:\n%s", closing, got)
			}
		})
	}
}

func TestContainerConfig(t *testing.T) {
	cfg := &proxmox.ContainerConfig{
		Hostname: "dns",
		Cores:    2,
		Memory:   512,
		OSType:   "debian",
		Arch:     "amd64",
	}

	got := ContainerConfig("pve1", 200, "running", cfg)
	want := strings.Join([]string{
		"✅ Container Configuration Retrieved",
		"",
		"📦 Container 200",
		"  • Node: pve1",
		"  • Hostname: dns",
		"  • CPU Cores: 2",
		"  • Memory: 512 MB",
		"  • Template: debian",
		"  • Status: running",
		"  • Architecture: amd64",
	}, "\n")

	if got != want {
		t.Errorf("ContainerConfig() =\n%s\nwant\n%s", got, want)
	}
}

func TestContainerConfigUpdated(t *testing.T) {
	got := ContainerConfigUpdated("pve1", 200)
	if !strings.HasPrefix(got, "✅ Container Configuration Updated") {
		t.Errorf("missing header:\n%s", got)
	}
	if !strings.Contains(got, "📦 Container 200") {
		t.Errorf("missing container line:\n%s", got)
	}
}

func TestSnapshotResult(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		icon      string
	}{
		{name: "create", operation: "create", icon: "➕"},
		{name: "delete", operation: "delete", icon: "🗑"},
		{name: "rollback", operation: "rollback", icon: "🔄"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SnapshotResult(tt.operation, "pve1", 200, "pre-upgrade")

			if !strings.HasPrefix(got, "✅ Container Snapshot "+titleWord(tt.operation)+" Successful") {
				t.Errorf("missing header:\n%s", got)
			}
			if !strings.Contains(got, "📸 Snapshot: pre-upgrade") {
				t.Errorf("missing snapshot line:\n%s", got)
			}
			closing := tt.icon + " Snapshot " + tt.operation + " completed"
			if !strings.HasSuffix(got, closing) {
				t.Errorf("missing closing line %q:\n%s", closing, got)
			}
		})
	}
}

func TestSnapshotsJSON(t *testing.T) {
	snapshots := []proxmox.Snapshot{
		{Name: "pre-upgrade", SnapTime: 1724300000, Description: "before apt upgrade"},
		{Name: "current", Parent: "pre-upgrade"},
	}

	got, err := SnapshotsJSON(snapshots)
	if err != nil {
		t.Fatalf("SnapshotsJSON() error = %v", err)
	}

	var decoded []proxmox.Snapshot
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 || decoded[0].Name != "pre-upgrade" {
		t.Errorf("round trip mismatch: %+v", decoded)
	}
	if !strings.Contains(got, "\n  ") {
		t.Errorf("output not indented:\n%s", got)
	}
}
