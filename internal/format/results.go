package format

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tombee/pvemcp/internal/proxmox"
)

// VMCreated renders a successful VM creation.
func VMCreated(node string, vmid int, name string, cores, memory int, storage, ostype string) string {
	return strings.Join([]string{
		iconOK + " VM Created Successfully",
		"",
		fmt.Sprintf("%s %s (ID: %d)", iconVM, name, vmid),
		fmt.Sprintf("  • Node: %s", node),
		fmt.Sprintf("  • CPU Cores: %d", cores),
		fmt.Sprintf("  • Memory: %d MB", memory),
		fmt.Sprintf("  • Storage: %s", storage),
		fmt.Sprintf("  • OS Type: %s", ostype),
		"",
		iconInfo + " VM is ready for configuration and startup",
	}, "\n")
}

// VMPowerResult renders a successful VM power operation together with
// the status observed after it.
func VMPowerResult(operation, node string, vmid int, status string) string {
	op := titleWord(operation)
	return strings.Join([]string{
		fmt.Sprintf("%s VM %s Successful", iconOK, op),
		"",
		fmt.Sprintf("%s VM %d", iconVM, vmid),
		fmt.Sprintf("  • Node: %s", node),
		fmt.Sprintf("  • Operation: %s", op),
		fmt.Sprintf("  • Status: %s", strings.ToUpper(statusOrUnknown(status))),
		"",
		fmt.Sprintf("%s VM is now %s", operationIcon(operation), status),
	}, "\n")
}

// VMConfig renders a VM configuration. The caller merges in the power
// status, which the config endpoint does not report.
func VMConfig(node string, vmid int, status string, cfg *proxmox.VMConfig) string {
	lines := []string{
		iconOK + " VM Configuration Retrieved",
		"",
		fmt.Sprintf("%s VM %d", iconVM, vmid),
		fmt.Sprintf("  • Node: %s", node),
		fmt.Sprintf("  • Name: %s", stringOrNA(cfg.Name)),
		fmt.Sprintf("  • CPU Cores: %s", intOrNA(int(cfg.Cores))),
		fmt.Sprintf("  • Memory: %s MB", intOrNA(int(cfg.Memory))),
		fmt.Sprintf("  • OS Type: %s", stringOrNA(cfg.OSType)),
		fmt.Sprintf("  • Status: %s", stringOrNA(status)),
	}
	if cfg.Description != "" {
		lines = append(lines, fmt.Sprintf("  • Description: %s", cfg.Description))
	}
	if cfg.BootDisk != "" {
		lines = append(lines, fmt.Sprintf("  • Boot Disk: %s", cfg.BootDisk))
	}
	return strings.Join(lines, "\n")
}

// VMConfigUpdated renders a successful VM configuration update.
func VMConfigUpdated(node string, vmid int) string {
	return strings.Join([]string{
		iconOK + " VM Configuration Updated",
		"",
		fmt.Sprintf("%s VM %d", iconVM, vmid),
		fmt.Sprintf("  • Node: %s", node),
		"  • Status: Configuration updated successfully",
	}, "\n")
}

// ContainerCreated renders a successful container creation. Clones
// reuse it with template "cloned" and zero cores/memory.
func ContainerCreated(node string, vmid int, hostname, template string, cores, memory int, storage string) string {
	return strings.Join([]string{
		iconOK + " Container Created Successfully",
		"",
		fmt.Sprintf("%s %s (ID: %d)", iconContainer, hostname, vmid),
		fmt.Sprintf("  • Node: %s", node),
		fmt.Sprintf("  • Template: %s", template),
		fmt.Sprintf("  • CPU Cores: %d", cores),
		fmt.Sprintf("  • Memory: %d MB", memory),
		fmt.Sprintf("  • Storage: %s", storage),
		"",
		iconInfo + " Container is ready for startup",
	}, "\n")
}

// ContainerPowerResult renders a successful container power operation.
func ContainerPowerResult(operation, node string, vmid int, status string) string {
	op := titleWord(operation)
	return strings.Join([]string{
		fmt.Sprintf("%s Container %s Successful", iconOK, op),
		"",
		fmt.Sprintf("%s Container %d", iconContainer, vmid),
		fmt.Sprintf("  • Node: %s", node),
		fmt.Sprintf("  • Operation: %s", op),
		fmt.Sprintf("  • Status: %s", strings.ToUpper(statusOrUnknown(status))),
		"",
		fmt.Sprintf("%s Container is now %s", operationIcon(operation), status),
	}, "\n")
}

// ContainerConfig renders a container configuration, with the power
// status merged in by the caller.
func ContainerConfig(node string, vmid int, status string, cfg *proxmox.ContainerConfig) string {
	lines := []string{
		iconOK + " Container Configuration Retrieved",
		"",
		fmt.Sprintf("%s Container %d", iconContainer, vmid),
		fmt.Sprintf("  • Node: %s", node),
		fmt.Sprintf("  • Hostname: %s", stringOrNA(cfg.Hostname)),
		fmt.Sprintf("  • CPU Cores: %s", intOrNA(int(cfg.Cores))),
		fmt.Sprintf("  • Memory: %s MB", intOrNA(int(cfg.Memory))),
		fmt.Sprintf("  • Template: %s", stringOrNA(cfg.OSType)),
		fmt.Sprintf("  • Status: %s", stringOrNA(status)),
	}
	if cfg.Description != "" {
		lines = append(lines, fmt.Sprintf("  • Description: %s", cfg.Description))
	}
	if cfg.Arch != "" {
		lines = append(lines, fmt.Sprintf("  • Architecture: %s", cfg.Arch))
	}
	return strings.Join(lines, "\n")
}

// ContainerConfigUpdated renders a successful container configuration
// update.
func ContainerConfigUpdated(node string, vmid int) string {
	return strings.Join([]string{
		iconOK + " Container Configuration Updated",
		"",
		fmt.Sprintf("%s Container %d", iconContainer, vmid),
		fmt.Sprintf("  • Node: %s", node),
		"  • Status: Configuration updated successfully",
	}, "\n")
}

// SnapshotResult renders a successful container snapshot operation
// (create, delete or rollback).
func SnapshotResult(operation, node string, vmid int, snapname string) string {
	op := titleWord(operation)
	return strings.Join([]string{
		fmt.Sprintf("%s Container Snapshot %s Successful", iconOK, op),
		"",
		fmt.Sprintf("%s Snapshot: %s", iconSnapshot, snapname),
		fmt.Sprintf("  • Container ID: %d", vmid),
		fmt.Sprintf("  • Node: %s", node),
		fmt.Sprintf("  • Operation: %s", op),
		"",
		fmt.Sprintf("%s Snapshot %s completed", operationIcon(operation), operation),
	}, "\n")
}

// SnapshotsJSON renders a snapshot listing as indented JSON, the raw
// form the snapshot tool returns.
func SnapshotsJSON(snapshots []proxmox.Snapshot) (string, error) {
	data, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// operationIcon maps an operation name to its closing marker.
func operationIcon(operation string) string {
	switch strings.ToLower(operation) {
	case "start":
		return iconStart
	case "stop", "shutdown":
		return iconStop
	case "reboot", "rollback":
		return iconRestart
	case "suspend":
		return iconLock
	case "resume":
		return iconUnlock
	case "create":
		return iconCreate
	case "delete":
		return iconDelete
	default:
		return iconInfo
	}
}
