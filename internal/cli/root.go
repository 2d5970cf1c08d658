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

// Package cli assembles the pvemcp root command.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/tombee/pvemcp/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for pvemcp
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pvemcp",
		Short: "pvemcp - Proxmox VE MCP server",
		Long: `pvemcp exposes a Proxmox VE cluster as tools over the Model Context
Protocol (MCP). AI assistants connect over stdio and can inspect nodes,
manage QEMU VMs and LXC containers, work with snapshots and storage, and
run commands inside guests through the QEMU guest agent or container exec.

Run 'pvemcp setup' for interactive configuration.
Run 'pvemcp serve' to start the MCP server.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	shared.BindGlobalFlags(cmd.PersistentFlags())

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
