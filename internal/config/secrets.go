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

package config

import (
	"context"

	"github.com/tombee/pvemcp/internal/secrets"
	pvemcperrors "github.com/tombee/pvemcp/pkg/errors"
)

// ResolveSecrets resolves secret references in the configuration in place.
// proxmox.token_secret may be a literal value or a reference in one of the
// supported forms: ${ENV_VAR}, keyring:<key>, file:<key>.
//
// Returns warnings about plaintext secrets stored in the config file.
// Call after Load and before handing the config to the API client.
func (c *Config) ResolveSecrets(ctx context.Context) (warnings []string, err error) {
	value := c.Proxmox.TokenSecret
	if value == "" {
		return nil, nil
	}

	if !secrets.IsReference(value) {
		warnings = append(warnings,
			"Plaintext token secret in configuration. Consider storing it with 'pvemcp secrets set proxmox-token' and referencing it as keyring:proxmox-token")
		return warnings, nil
	}

	resolved, rerr := secrets.ResolveReference(ctx, createSecretResolver(), value)
	if rerr != nil {
		return warnings, &pvemcperrors.ConfigError{
			Key:    "proxmox.token_secret",
			Reason: "failed to resolve secret reference",
			Cause:  rerr,
		}
	}

	c.Proxmox.TokenSecret = resolved
	return warnings, nil
}

// createSecretResolver creates a secrets resolver with all available backends.
func createSecretResolver() *secrets.Resolver {
	resolver, err := secrets.NewDefaultResolver("", "")
	if err != nil {
		// File backend construction fails only when the user config dir is
		// undeterminable; continue with the remaining backends.
		return secrets.NewResolver(secrets.NewEnvBackend(), secrets.NewKeychainBackend())
	}
	return resolver
}
