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

package setup

import (
	"context"
	"testing"
)

func TestValidateTokenID(t *testing.T) {
	tests := []struct {
		name    string
		tokenID string
		wantErr bool
	}{
		{"valid", "mcp@pve!server", false},
		{"valid pam realm", "root@pam!automation", false},
		{"empty", "", true},
		{"missing realm", "mcp!server", true},
		{"missing token name", "mcp@pve", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTokenID(tt.tokenID)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateTokenID(%q) error = %v, wantErr %v", tt.tokenID, err, tt.wantErr)
			}
		})
	}
}

func TestBuildConfig_Plaintext(t *testing.T) {
	ans := &answers{
		host:          " pve.example.com ",
		port:          "8006",
		tokenID:       "mcp@pve!server",
		tokenSecret:   "the-secret",
		verifySSL:     false,
		secretBackend: backendPlaintext,
	}

	cfg, err := buildConfig(context.Background(), ans)
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}

	if cfg.Proxmox.Host != "pve.example.com" {
		t.Errorf("expected trimmed host, got %q", cfg.Proxmox.Host)
	}
	if cfg.Proxmox.Port != 8006 {
		t.Errorf("expected port 8006, got %d", cfg.Proxmox.Port)
	}
	if cfg.Proxmox.TokenSecret != "the-secret" {
		t.Errorf("expected literal secret, got %q", cfg.Proxmox.TokenSecret)
	}
	if cfg.Proxmox.VerifySSL {
		t.Error("expected verify_ssl false")
	}

	// The rest of the config keeps defaults
	if err := cfg.Validate(); err != nil {
		t.Errorf("built config should validate: %v", err)
	}
}

func TestBuildConfig_InvalidPort(t *testing.T) {
	ans := &answers{
		host:          "pve.example.com",
		port:          "not-a-port",
		tokenID:       "mcp@pve!server",
		tokenSecret:   "s",
		secretBackend: backendPlaintext,
	}

	if _, err := buildConfig(context.Background(), ans); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestBuildConfig_UnknownBackend(t *testing.T) {
	ans := &answers{
		host:          "pve.example.com",
		port:          "8006",
		tokenID:       "mcp@pve!server",
		tokenSecret:   "s",
		secretBackend: "vault",
	}

	if _, err := buildConfig(context.Background(), ans); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
