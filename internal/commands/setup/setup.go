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

// Package setup implements the interactive pvemcp setup wizard.
package setup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tombee/pvemcp/internal/commands/shared"
	"github.com/tombee/pvemcp/internal/config"
	"github.com/tombee/pvemcp/internal/secrets"
)

// tokenKey is the conventional secret key for the Proxmox API token.
const tokenKey = "proxmox-token"

// NewCommand creates the setup command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Interactive configuration wizard",
		Long: `Configure pvemcp interactively.

The wizard collects the Proxmox VE connection details (host, port, API
token), stores the token secret in a secure backend (system keychain or
encrypted file), and writes the configuration file.

Create an API token in the Proxmox web UI under
Datacenter > Permissions > API Tokens. The token needs at least
VM.Audit/VM.Monitor for read operations and VM.PowerMgmt/VM.Console for
lifecycle and command execution.`,
		Example: `  # Write the default config (~/.config/pvemcp/config.yaml)
  pvemcp setup

  # Write a specific file
  pvemcp setup --config ./pvemcp.yaml`,
		Args: cobra.NoArgs,
		RunE: runSetup,
	}

	return cmd
}

// answers collects the wizard inputs.
type answers struct {
	host          string
	port          string
	tokenID       string
	tokenSecret   string
	verifySSL     bool
	secretBackend string
}

func runSetup(cmd *cobra.Command, args []string) error {
	if shared.IsNonInteractive() {
		return errors.New("setup requires an interactive terminal; write the config file directly or set PVEMCP_* environment variables")
	}

	path := shared.GetConfigPath()
	if path == "" {
		var err error
		path, err = config.ConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	// Confirm before overwriting an existing config
	if _, err := os.Stat(path); err == nil {
		overwrite := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Configuration file %s exists. Overwrite?", path),
			Default: false,
		}
		if err := survey.AskOne(prompt, &overwrite); err != nil {
			return err
		}
		if !overwrite {
			cmd.Println("Setup canceled")
			return nil
		}
	}

	ans := answers{
		port:          "8006",
		verifySSL:     true,
		secretBackend: defaultSecretBackend(),
	}

	if err := connectionForm(&ans).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			cmd.Println("Setup canceled")
			return nil
		}
		return err
	}

	cfg, err := buildConfig(cmd.Context(), &ans)
	if err != nil {
		return err
	}

	if err := config.SaveSettings(path, cfg); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}

	cmd.Println(shared.RenderOK("configuration written to " + path))
	if ans.secretBackend != backendPlaintext {
		cmd.Println(shared.RenderOK(fmt.Sprintf("token secret stored in %s backend", ans.secretBackend)))
	} else {
		cmd.Println(shared.RenderWarn("token secret stored as plaintext in the config file"))
	}
	cmd.Println()
	cmd.Println("Next steps:")
	cmd.Println("  pvemcp validate   # check configuration and connectivity")
	cmd.Println("  pvemcp serve      # start the MCP server")
	return nil
}

// Secret storage choices
const (
	backendKeychain  = "keyring"
	backendFile      = "file"
	backendPlaintext = "plaintext"
)

// connectionForm builds the huh form for connection details.
func connectionForm(ans *answers) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Proxmox VE host:").
				Description("Hostname or IP address of the API endpoint").
				Value(&ans.host).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("host is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("API port:").
				Description("Default: 8006").
				Value(&ans.port).
				Validate(func(s string) error {
					port, err := strconv.Atoi(s)
					if err != nil || port < 1 || port > 65535 {
						return fmt.Errorf("port must be a number between 1 and 65535")
					}
					return nil
				}),
			huh.NewInput().
				Title("API token ID:").
				Description("Full token identifier, e.g. mcp@pve!server").
				Value(&ans.tokenID).
				Validate(validateTokenID),
			huh.NewInput().
				Title("API token secret:").
				Description("Shown once when the token is created").
				EchoMode(huh.EchoModePassword).
				Value(&ans.tokenSecret).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("token secret is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Verify TLS certificates?").
				Description("Choose No for self-signed certificates on private clusters").
				Value(&ans.verifySSL),
			huh.NewSelect[string]().
				Title("Token secret storage:").
				Description("Where the token secret is kept").
				Options(
					huh.NewOption("System keychain (recommended)", backendKeychain),
					huh.NewOption("Encrypted file", backendFile),
					huh.NewOption("Plaintext in config file", backendPlaintext),
				).
				Value(&ans.secretBackend),
		),
	)
}

// validateTokenID checks the user@realm!tokenid form.
func validateTokenID(s string) error {
	if s == "" {
		return fmt.Errorf("token ID is required")
	}
	if !strings.Contains(s, "@") || !strings.Contains(s, "!") {
		return fmt.Errorf("expected user@realm!tokenid form")
	}
	return nil
}

// defaultSecretBackend picks the preferred available storage backend.
func defaultSecretBackend() string {
	if secrets.NewKeychainBackend().Available() {
		return backendKeychain
	}
	return backendFile
}

// buildConfig turns wizard answers into a Config, storing the secret
// in the chosen backend and recording a reference to it.
func buildConfig(ctx context.Context, ans *answers) (*config.Config, error) {
	cfg := config.Default()
	cfg.Proxmox.Host = strings.TrimSpace(ans.host)
	cfg.Proxmox.TokenID = strings.TrimSpace(ans.tokenID)
	cfg.Proxmox.VerifySSL = ans.verifySSL

	port, err := strconv.Atoi(ans.port)
	if err != nil {
		return nil, fmt.Errorf("invalid port: %w", err)
	}
	cfg.Proxmox.Port = port

	switch ans.secretBackend {
	case backendPlaintext:
		cfg.Proxmox.TokenSecret = ans.tokenSecret
	case backendKeychain, backendFile:
		if err := storeSecret(ctx, ans.secretBackend, ans.tokenSecret); err != nil {
			return nil, fmt.Errorf("failed to store token secret: %w", err)
		}
		cfg.Proxmox.TokenSecret = ans.secretBackend + ":" + tokenKey
	default:
		return nil, fmt.Errorf("unknown secret backend %q", ans.secretBackend)
	}

	return cfg, nil
}

// storeSecret writes the token secret to the chosen backend.
func storeSecret(ctx context.Context, backend, value string) error {
	resolver, err := secrets.NewDefaultResolver("", "")
	if err != nil {
		return err
	}

	// Config references use "keyring:"; the backend itself is named
	// "keychain".
	backendName := backend
	if backend == backendKeychain {
		backendName = "keychain"
	}

	return resolver.Set(ctx, tokenKey, value, backendName)
}
