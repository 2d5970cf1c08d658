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

/*
Package secrets provides secure storage and retrieval for the Proxmox API
token secret.

This package implements a multi-backend secret management system with support
for environment variables, OS keychains, and encrypted file storage. Secrets
are resolved through a priority-ordered chain of backends.

# Backends

	env      - Environment variables (PVEMCP_SECRET_*), read-only
	keychain - OS keychain (macOS Keychain, Linux Secret Service, Windows
	           Credential Manager)
	file     - AES-256-GCM encrypted file, master key from PVEMCP_MASTER_KEY

Each backend implements the SecretBackend interface and reports a priority;
the Resolver queries backends highest priority first (env 100, keychain 50,
file 25).

# References

Configuration values may carry secret references instead of literals:

	token_secret: "${PVE_TOKEN}"          # environment variable
	token_secret: "keyring:proxmox-token" # OS keychain entry
	token_secret: "file:proxmox-token"    # encrypted file entry

ResolveReference expands these forms; anything else is treated as a literal.
*/
package secrets
