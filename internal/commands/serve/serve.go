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

// Package serve implements the pvemcp serve command, which runs the MCP
// server on stdio.
package serve

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tombee/pvemcp/internal/commands/shared"
	"github.com/tombee/pvemcp/internal/config"
	"github.com/tombee/pvemcp/internal/executor"
	"github.com/tombee/pvemcp/internal/log"
	"github.com/tombee/pvemcp/internal/mcp/server"
	"github.com/tombee/pvemcp/internal/policy"
	"github.com/tombee/pvemcp/internal/proxmox"
	"github.com/tombee/pvemcp/internal/tracing"
	"github.com/tombee/pvemcp/pkg/httpclient"
)

// NewCommand creates the serve command
func NewCommand() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the pvemcp MCP server",
		Long: `Start the pvemcp MCP (Model Context Protocol) server.

The server runs on stdio and exposes Proxmox VE operations as tools for
AI assistants: node and cluster inspection, VM and container lifecycle,
configuration, snapshots, and guest command execution.

Configuration example for Claude Code (~/.config/claude/config.json):
  {
    "mcpServers": {
      "proxmox": {
        "command": "pvemcp",
        "args": ["serve"]
      }
    }
  }

Logs go to stderr (or the configured log file); stdout carries the MCP
protocol stream.`,
		Example: `  # Start with the default config (~/.config/pvemcp/config.yaml)
  pvemcp serve

  # Start with an explicit config file and debug logging
  pvemcp serve --config ./pvemcp.yaml --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, logLevel)
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Logging verbosity (trace, debug, info, warn, error)")

	return cmd
}

func runServe(cmd *cobra.Command, logLevel string) error {
	configPath := shared.GetConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return shared.NewInvalidConfigError("failed to load configuration", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger, closeLog, err := buildLogger(cfg)
	if err != nil {
		return shared.NewInvalidConfigError("failed to set up logging", err)
	}
	if closeLog != nil {
		defer closeLog()
	}

	warnings, err := cfg.ResolveSecrets(cmd.Context())
	if err != nil {
		return shared.NewInvalidConfigError("failed to resolve token secret", err)
	}
	for _, w := range warnings {
		logger.Warn(w)
	}

	v, _, _ := shared.GetVersion()
	logger.Info("pvemcp starting",
		"version", v,
		"host", cfg.Proxmox.Host,
		"token_id", cfg.Proxmox.TokenID,
	)

	// Telemetry provider (spans and metrics stay no-op unless enabled)
	var provider *tracing.Provider
	if cfg.Telemetry.Enabled {
		var tpOpts []sdktrace.TracerProviderOption
		exporter, eerr := tracing.NewSpanExporter(cmd.Context(), cfg.Telemetry.Exporter, cfg.Telemetry.Endpoint)
		if eerr != nil {
			return shared.NewInvalidConfigError("failed to set up span exporter", eerr)
		}
		if exporter != nil {
			tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
		}

		provider, err = tracing.NewProvider("pvemcp", v, tpOpts...)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logger.Warn("telemetry shutdown failed", "error", err)
			}
		}()
	}

	srv, guard, err := buildServer(cfg, v, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Reload the policy when the config file changes. The watch only
	// makes sense when configuration comes from a file.
	configPath = config.ResolvePath(configPath)
	if guard != nil && configPath != "" {
		watcher, werr := policy.NewWatcher(policy.WatcherConfig{
			Path:   configPath,
			Logger: logger,
			Reload: func() error {
				newCfg, lerr := config.Load(configPath)
				if lerr != nil {
					return lerr
				}
				return guard.Update(newCfg.Policy)
			},
		})
		if werr != nil {
			logger.Warn("policy hot reload disabled", "error", werr)
		} else {
			defer watcher.Close()
		}
	}

	// Optional /metrics endpoint
	if provider != nil && cfg.Telemetry.Listen != "" {
		metricsSrv := startMetricsServer(cfg.Telemetry.Listen, provider, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			logger.Info("received shutdown signal")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("shutdown error", "error", err)
			}

			cancel()
		case <-ctx.Done():
		}
	}()

	// Blocks until shutdown or stdin closes
	if err := srv.Run(ctx); err != nil {
		return err
	}

	logger.Info("pvemcp stopped")
	return nil
}

// buildLogger creates the server logger from the logging config. The
// returned close function is non-nil when logs go to a file. Stdout is
// never used: it carries the MCP protocol stream.
func buildLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	logCfg := &log.Config{
		Level:     cfg.Logging.Level,
		Format:    log.Format(cfg.Logging.Format),
		Output:    os.Stderr,
		AddSource: cfg.Logging.AddSource,
	}

	var closeLog func()
	if cfg.Logging.Output != "" {
		f, err := os.OpenFile(cfg.Logging.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", cfg.Logging.Output, err)
		}
		logCfg.Output = f
		closeLog = func() { _ = f.Close() }
	}

	return log.New(logCfg), closeLog, nil
}

// buildServer wires the Proxmox client, executors, and policy guard
// into an MCP server.
func buildServer(cfg *config.Config, version string, logger *slog.Logger) (*server.Server, *policy.Guard, error) {
	httpCfg := httpclient.Config{
		Timeout:            cfg.HTTP.Timeout,
		RetryAttempts:      cfg.HTTP.RetryAttempts,
		RetryBackoff:       cfg.HTTP.RetryBackoff,
		MaxBackoff:         cfg.HTTP.MaxBackoff,
		UserAgent:          "pvemcp/" + version,
		InsecureSkipVerify: !cfg.Proxmox.VerifySSL,
	}
	httpClient, err := httpclient.New(httpCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build HTTP client: %w", err)
	}

	client, err := proxmox.New(
		proxmox.WithBaseURL(cfg.Proxmox.APIBaseURL()),
		proxmox.WithToken(cfg.Proxmox.TokenID, cfg.Proxmox.TokenSecret),
		proxmox.WithHTTPClient(httpClient),
		proxmox.WithRateLimit(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst),
		proxmox.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build Proxmox client: %w", err)
	}

	execOpts := []executor.Option{
		executor.WithTimeout(cfg.Exec.Timeout),
		executor.WithPollInterval(cfg.Exec.PollInterval),
		executor.WithMaxTimeout(cfg.Exec.MaxTimeout),
		executor.WithLogger(logger),
	}
	vmExec := executor.New(executor.NewQEMUBackend(client), execOpts...)
	ctExec := executor.New(executor.NewLXCBackend(client), execOpts...)

	var guard *policy.Guard
	if len(cfg.Policy.ProtectedGuests) > 0 || len(cfg.Policy.Rules) > 0 {
		guard, err = policy.New(cfg.Policy, logger)
		if err != nil {
			return nil, nil, shared.NewInvalidConfigError("invalid policy configuration", err)
		}
	}

	srv, err := server.NewServer(server.Config{
		Name:              "pvemcp",
		Version:           version,
		Client:            client,
		VMExecutor:        vmExec,
		ContainerExecutor: ctExec,
		Guard:             guard,
		Logger:            logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create MCP server: %w", err)
	}

	return srv, guard, nil
}

// startMetricsServer exposes /metrics on the configured address.
func startMetricsServer(addr string, provider *tracing.Provider, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", provider.MetricsHandler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics endpoint failed", "error", err)
		}
	}()

	return srv
}
