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

// Tool descriptions shown to MCP clients. Each one carries a short
// summary, the parameter list (* marks required) and a sketch of the
// result, so a model can pick the right tool without trial calls.

const descGetNodes = `List all nodes in the Proxmox cluster with their status, CPU, memory, and role information.

Example:
{"node": "pve1", "status": "online", "cpu_usage": 0.15, "memory": {"used": "8GB", "total": "32GB"}}`

const descGetNodeStatus = `Get detailed status information for a specific Proxmox node.

Parameters:
node* - Name/ID of node to query (e.g. 'pve1')

Example:
{"cpu": {"usage": 0.15}, "memory": {"used": "8GB", "total": "32GB"}}`

const descGetVMs = `List all virtual machines across the cluster with their status and resource usage.

Example:
{"vmid": "100", "name": "ubuntu", "status": "running", "cpu": 2, "memory": 4096}`

const descCreateVM = `Create a new virtual machine on a Proxmox node.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - VM ID number (e.g. '100')
name* - VM name (e.g. 'ubuntu-server')
cores* - CPU cores (e.g. 2)
memory* - Memory in MB (e.g. 2048)
storage* - Storage pool (e.g. 'local-lvm')
ostype* - OS type (e.g. 'l26', 'win10', 'other')

Example:
{"success": true, "vmid": "100", "node": "pve1"}`

const descStartVM = `Start a virtual machine.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - VM ID number (e.g. '100')

Example:
{"success": true, "vmid": "100", "status": "running"}`

const descStopVM = `Stop a virtual machine.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - VM ID number (e.g. '100')

Example:
{"success": true, "vmid": "100", "status": "stopped"}`

const descShutdownVM = `Shutdown a virtual machine gracefully.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - VM ID number (e.g. '100')

Example:
{"success": true, "vmid": "100", "status": "stopped"}`

const descRebootVM = `Reboot a virtual machine.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - VM ID number (e.g. '100')

Example:
{"success": true, "vmid": "100", "status": "running"}`

const descGetVMConfig = `Get virtual machine configuration.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - VM ID number (e.g. '100')

Example:
{"vmid": "100", "name": "ubuntu", "cores": 2, "memory": 2048}`

const descUpdateVMConfig = `Update virtual machine configuration.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - VM ID number (e.g. '100')
cores - CPU cores (e.g. 4)
memory - Memory in MB (e.g. 4096)
name - VM name (e.g. 'new-name')

Example:
{"success": true, "vmid": "100", "message": "Configuration updated"}`

const descExecuteVMCommand = `Execute commands in a VM via QEMU guest agent.

Parameters:
node* - Host node name (e.g. 'pve1')
vmid* - VM ID number (e.g. '100')
command* - Shell command to run (e.g. 'uname -a')
timeout - Seconds to wait for completion (default: 30)

Example:
{"success": true, "output": "Linux vm1 5.4.0", "exit_code": 0}`

const descGetContainers = `List all LXC containers across the cluster with their status and configuration.

Example:
{"vmid": "200", "name": "nginx", "status": "running", "template": "ubuntu-20.04"}`

const descCreateContainer = `Create a new LXC container on a Proxmox node.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - Container ID number (e.g. '200')
hostname* - Container hostname (e.g. 'web-server')
template* - Template to use (e.g. 'ubuntu-20.04-standard')
storage* - Storage pool (e.g. 'local-lvm')
cores* - CPU cores (e.g. 2)
memory* - Memory in MB (e.g. 2048)
password* - Root password for container

Example:
{"success": true, "vmid": "200", "node": "pve1"}`

const descStartContainer = `Start an LXC container.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - Container ID number (e.g. '200')

Example:
{"success": true, "vmid": "200", "status": "running"}`

const descStopContainer = `Stop an LXC container.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - Container ID number (e.g. '200')

Example:
{"success": true, "vmid": "200", "status": "stopped"}`

const descShutdownContainer = `Shutdown an LXC container gracefully.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - Container ID number (e.g. '200')

Example:
{"success": true, "vmid": "200", "status": "stopped"}`

const descRebootContainer = `Reboot an LXC container.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - Container ID number (e.g. '200')

Example:
{"success": true, "vmid": "200", "status": "running"}`

const descSuspendContainer = `Suspend an LXC container.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - Container ID number (e.g. '200')

Example:
{"success": true, "vmid": "200", "status": "suspended"}`

const descResumeContainer = `Resume a suspended LXC container.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - Container ID number (e.g. '200')

Example:
{"success": true, "vmid": "200", "status": "running"}`

const descGetContainerConfig = `Get LXC container configuration.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - Container ID number (e.g. '200')

Example:
{"vmid": "200", "hostname": "web-server", "cores": 2, "memory": 2048}`

const descUpdateContainerConfig = `Update LXC container configuration.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - Container ID number (e.g. '200')
cores - CPU cores (e.g. 4)
memory - Memory in MB (e.g. 4096)
hostname - Container hostname (e.g. 'new-hostname')

Example:
{"success": true, "vmid": "200", "message": "Configuration updated"}`

const descExecuteContainerCommand = `Execute commands in an LXC container via pct exec.

Parameters:
node* - Host node name (e.g. 'pve1')
vmid* - Container ID number (e.g. '200')
command* - Shell command to run (e.g. 'uname -a')
timeout - Seconds to wait for completion (default: 30)

Example:
{"success": true, "output": "Linux ct1 5.4.0", "exit_code": 0}`

const descCloneContainer = `Clone an LXC container to a new container ID.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - Source container ID (e.g. '200')
newid* - New container ID (e.g. '201')
name* - New container name (e.g. 'web-server-clone')
storage* - Storage pool for clone (e.g. 'local-lvm')

Example:
{"success": true, "vmid": "201", "node": "pve1"}`

const descDestroyContainer = `Destroy an LXC container permanently. This cannot be undone.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - Container ID number (e.g. '200')

Example:
{"success": true, "vmid": "200", "status": "destroyed"}`

const descGetContainerSnapshots = `List snapshots of an LXC container.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - Container ID number (e.g. '200')

Example:
{"name": "backup-2024-01-01", "snaptime": 1704067200, "description": "pre-upgrade"}`

const descCreateContainerSnapshot = `Create a snapshot of an LXC container.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - Container ID number (e.g. '200')
snapname* - Snapshot name (e.g. 'backup-2024-01-01')
description - Snapshot description

Example:
{"success": true, "vmid": "200", "snapname": "backup-2024-01-01"}`

const descDeleteContainerSnapshot = `Delete a snapshot of an LXC container.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - Container ID number (e.g. '200')
snapname* - Snapshot name (e.g. 'backup-2024-01-01')

Example:
{"success": true, "vmid": "200", "snapname": "backup-2024-01-01"}`

const descRollbackContainerSnapshot = `Rollback an LXC container to a snapshot. Changes made after the snapshot are lost.

Parameters:
node* - Target node name (e.g. 'pve1')
vmid* - Container ID number (e.g. '200')
snapname* - Snapshot name (e.g. 'backup-2024-01-01')

Example:
{"success": true, "vmid": "200", "snapname": "backup-2024-01-01"}`

const descGetStorage = `List storage pools across the cluster with their usage and configuration.

Example:
{"storage": "local-lvm", "type": "lvm", "used": "500GB", "total": "1TB"}`

const descGetClusterStatus = `Get overall Proxmox cluster health and configuration status.

Example:
{"name": "proxmox", "quorum": "ok", "nodes": 3, "ha_status": "active"}`

const descQueryAPI = `Query any Proxmox API GET endpoint, optionally filtering the JSON response with a jq expression.

Parameters:
path* - API path to query (e.g. '/nodes/pve1/qemu')
filter - jq filter applied to the response (e.g. '.[] | .name')

Example:
[{"vmid": 100, "name": "ubuntu", "status": "running"}]`
