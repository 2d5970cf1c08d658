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

// Package validate implements the pvemcp validate command, which checks
// the configuration and optionally the API connection.
package validate

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/pvemcp/internal/commands/shared"
	"github.com/tombee/pvemcp/internal/config"
	"github.com/tombee/pvemcp/internal/proxmox"
	pvemcperrors "github.com/tombee/pvemcp/pkg/errors"
	"github.com/tombee/pvemcp/pkg/httpclient"
)

// NewCommand creates the validate command
func NewCommand() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and API connectivity",
		Long: `Validate the pvemcp configuration.

Checks performed:
  1. Configuration loads and passes validation
  2. Token secret reference resolves
  3. The Proxmox VE API answers the version endpoint (skipped with --offline)`,
		Example: `  # Validate the default config and ping the API
  pvemcp validate

  # Validate a specific file without network access
  pvemcp validate --config ./pvemcp.yaml --offline`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, offline)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the API connectivity check")

	return cmd
}

func runValidate(cmd *cobra.Command, offline bool) error {
	cfg, err := config.Load(shared.GetConfigPath())
	if err != nil {
		cmd.Println(shared.RenderError("configuration invalid"))
		return shared.NewInvalidConfigError("configuration invalid", err)
	}
	cmd.Println(shared.RenderOK("configuration valid"))
	cmd.Printf("  %s %s\n", shared.RenderLabel("api:"), cfg.Proxmox.APIBaseURL())
	cmd.Printf("  %s %s\n", shared.RenderLabel("token:"), cfg.Proxmox.TokenID)

	warnings, err := cfg.ResolveSecrets(cmd.Context())
	if err != nil {
		cmd.Println(shared.RenderError("token secret unresolved"))
		return shared.NewInvalidConfigError("token secret unresolved", err)
	}
	for _, w := range warnings {
		cmd.Println(shared.RenderWarn(w))
	}
	cmd.Println(shared.RenderOK("token secret resolved"))

	if len(cfg.Policy.ProtectedGuests) > 0 || len(cfg.Policy.Rules) > 0 {
		cmd.Println(shared.RenderOK(fmt.Sprintf("policy configured (%d protected guests, %d rules)",
			len(cfg.Policy.ProtectedGuests), len(cfg.Policy.Rules))))
	}

	if offline {
		cmd.Println(shared.RenderWarn("API connectivity check skipped (--offline)"))
		return nil
	}

	version, err := pingAPI(cmd, cfg)
	if err != nil {
		cmd.Println(shared.RenderError("API unreachable"))

		var apiErr *pvemcperrors.APIError
		if errors.As(err, &apiErr) && apiErr.Kind == pvemcperrors.KindAuth {
			return shared.NewAuthError("API authentication failed", err)
		}
		return shared.NewConnectionError("API connectivity check failed", err)
	}

	cmd.Println(shared.RenderOK(fmt.Sprintf("connected to Proxmox VE %s", version)))
	return nil
}

// pingAPI calls the version endpoint, the cheapest authenticated call
// the API offers.
func pingAPI(cmd *cobra.Command, cfg *config.Config) (string, error) {
	httpClient, err := httpclient.New(httpclient.Config{
		Timeout:            10 * time.Second,
		RetryAttempts:      0,
		RetryBackoff:       cfg.HTTP.RetryBackoff,
		MaxBackoff:         cfg.HTTP.MaxBackoff,
		UserAgent:          "pvemcp-validate",
		InsecureSkipVerify: !cfg.Proxmox.VerifySSL,
	})
	if err != nil {
		return "", err
	}

	client, err := proxmox.New(
		proxmox.WithBaseURL(cfg.Proxmox.APIBaseURL()),
		proxmox.WithToken(cfg.Proxmox.TokenID, cfg.Proxmox.TokenSecret),
		proxmox.WithHTTPClient(httpClient),
	)
	if err != nil {
		return "", err
	}

	version, err := client.Version(cmd.Context())
	if err != nil {
		return "", err
	}

	return version.Version, nil
}
