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

package serve

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tombee/pvemcp/internal/commands/shared"
	"github.com/tombee/pvemcp/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Proxmox.Host = "pve.example.com"
	cfg.Proxmox.TokenID = "mcp@pve!server"
	cfg.Proxmox.TokenSecret = "secret"
	return cfg
}

func TestBuildServer(t *testing.T) {
	logger, closeLog, err := buildLogger(testConfig())
	if err != nil {
		t.Fatalf("buildLogger failed: %v", err)
	}
	if closeLog != nil {
		t.Error("expected no close function for stderr logging")
	}

	srv, guard, err := buildServer(testConfig(), "test", logger)
	if err != nil {
		t.Fatalf("buildServer failed: %v", err)
	}
	if srv == nil {
		t.Fatal("expected server")
	}
	if guard != nil {
		t.Error("expected no guard without policy configuration")
	}
}

func TestBuildServer_WithPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.Policy.ProtectedGuests = []string{"100"}
	cfg.Policy.Rules = []string{`tool == "destroy_container"`}

	logger, _, err := buildLogger(cfg)
	if err != nil {
		t.Fatalf("buildLogger failed: %v", err)
	}

	_, guard, err := buildServer(cfg, "test", logger)
	if err != nil {
		t.Fatalf("buildServer failed: %v", err)
	}
	if guard == nil {
		t.Fatal("expected guard with policy configuration")
	}
}

func TestBuildServer_InvalidPolicyRule(t *testing.T) {
	cfg := testConfig()
	cfg.Policy.Rules = []string{"tool =="}

	logger, _, err := buildLogger(cfg)
	if err != nil {
		t.Fatalf("buildLogger failed: %v", err)
	}

	_, _, err = buildServer(cfg, "test", logger)
	if err == nil {
		t.Fatal("expected error for invalid policy rule")
	}

	var exitErr *shared.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T", err)
	}
	if exitErr.Code != shared.ExitInvalidConfig {
		t.Errorf("expected exit code %d, got %d", shared.ExitInvalidConfig, exitErr.Code)
	}
}

func TestBuildLogger_FileOutput(t *testing.T) {
	cfg := testConfig()
	cfg.Logging.Output = filepath.Join(t.TempDir(), "pvemcp.log")

	logger, closeLog, err := buildLogger(cfg)
	if err != nil {
		t.Fatalf("buildLogger failed: %v", err)
	}
	if closeLog == nil {
		t.Fatal("expected close function for file logging")
	}

	logger.Info("test entry")
	closeLog()

	data, err := os.ReadFile(cfg.Logging.Output)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected log output in file")
	}
}
