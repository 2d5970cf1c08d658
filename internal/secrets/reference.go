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

package secrets

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Reference forms accepted in configuration values such as
// proxmox.token_secret:
//
//   - ${VAR_NAME}       -> environment variable
//   - keyring:my-key    -> system keychain entry
//   - file:my-key       -> encrypted file store entry
//   - anything else     -> literal value, used as-is
type referenceKind int

const (
	referenceLiteral referenceKind = iota
	referenceEnv
	referenceKeyring
	referenceFile
)

var (
	// envVarRegex matches ${VAR_NAME} syntax
	envVarRegex = regexp.MustCompile(`^\$\{([A-Z_][A-Z0-9_]*)\}$`)

	// schemeRegex matches scheme:key format
	schemeRegex = regexp.MustCompile(`^([a-z][a-z0-9]*):(.+)$`)
)

// parseReference classifies a configuration value as a literal or a
// secret reference and extracts the lookup key.
func parseReference(value string) (referenceKind, string, error) {
	if value == "" {
		return referenceLiteral, "", fmt.Errorf("empty secret reference")
	}

	if matches := envVarRegex.FindStringSubmatch(value); matches != nil {
		return referenceEnv, matches[1], nil
	}

	if matches := schemeRegex.FindStringSubmatch(value); matches != nil {
		scheme := matches[1]
		key := matches[2]

		if strings.TrimSpace(key) == "" {
			return referenceLiteral, "", fmt.Errorf("empty key for scheme %q", scheme)
		}

		switch scheme {
		case "keyring":
			return referenceKeyring, key, nil
		case "file":
			return referenceFile, key, nil
		}
		// Unknown schemes fall through as literals: a raw token secret may
		// legitimately contain a colon.
	}

	return referenceLiteral, value, nil
}

// IsReference reports whether a configuration value is a secret reference
// rather than a literal value.
func IsReference(value string) bool {
	kind, _, err := parseReference(value)
	return err == nil && kind != referenceLiteral
}

// ResolveReference resolves a configuration value that may be a secret
// reference. Literals are returned unchanged. ${VAR} references read the
// environment directly; keyring: and file: references are routed to the
// matching backend in the resolver chain.
//
// Errors never include the resolved value.
func ResolveReference(ctx context.Context, resolver *Resolver, value string) (string, error) {
	kind, key, err := parseReference(value)
	if err != nil {
		return "", err
	}

	switch kind {
	case referenceLiteral:
		return key, nil

	case referenceEnv:
		resolved, ok := os.LookupEnv(key)
		if !ok {
			return "", fmt.Errorf("environment variable %s is not set", key)
		}
		if resolved == "" {
			return "", fmt.Errorf("environment variable %s is empty", key)
		}
		return resolved, nil

	case referenceKeyring:
		if resolver == nil {
			return "", fmt.Errorf("%w: no resolver for keyring reference", ErrBackendUnavailable)
		}
		resolved, err := resolver.GetFrom(ctx, "keychain", key)
		if err != nil {
			return "", fmt.Errorf("keyring reference %q: %w", key, err)
		}
		return resolved, nil

	case referenceFile:
		if resolver == nil {
			return "", fmt.Errorf("%w: no resolver for file reference", ErrBackendUnavailable)
		}
		resolved, err := resolver.GetFrom(ctx, "file", key)
		if err != nil {
			return "", fmt.Errorf("file reference %q: %w", key, err)
		}
		return resolved, nil
	}

	return "", fmt.Errorf("unsupported secret reference")
}
