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
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	pvemcperrors "github.com/tombee/pvemcp/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config represents the complete pvemcp configuration.
type Config struct {
	Proxmox   ProxmoxConfig   `yaml:"proxmox"`
	Exec      ExecConfig      `yaml:"exec"`
	HTTP      HTTPConfig      `yaml:"http"`
	Policy    PolicyConfig    `yaml:"policy,omitempty"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty"`
}

// ProxmoxConfig configures the connection to the Proxmox VE API.
type ProxmoxConfig struct {
	// Host is the Proxmox VE API hostname or IP address.
	// Environment: PVEMCP_PROXMOX_HOST
	// Required.
	Host string `yaml:"host"`

	// Port is the Proxmox VE API port.
	// Environment: PVEMCP_PROXMOX_PORT
	// Default: 8006
	Port int `yaml:"port"`

	// VerifySSL controls TLS certificate verification. Disable for
	// self-signed certificates on private clusters.
	// Environment: PVEMCP_PROXMOX_VERIFY_SSL
	// Default: true
	VerifySSL bool `yaml:"verify_ssl"`

	// TokenID is the full API token identifier in user@realm!tokenid form.
	// Environment: PVEMCP_PROXMOX_TOKEN_ID
	// Required.
	TokenID string `yaml:"token_id"`

	// TokenSecret is the API token secret. Accepts a literal value or a
	// secret reference: ${ENV_VAR}, keyring:<key>, file:<key>.
	// Environment: PVEMCP_PROXMOX_TOKEN_SECRET
	// Required.
	TokenSecret string `yaml:"token_secret"`
}

// ExecConfig configures remote command execution behavior.
type ExecConfig struct {
	// Timeout is the default budget for a guest command to complete.
	// Tool calls may override it per invocation up to MaxTimeout.
	// Environment: PVEMCP_EXEC_TIMEOUT
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// PollInterval is the fixed wait between completion polls.
	// Environment: PVEMCP_EXEC_POLL_INTERVAL
	// Default: 500ms
	PollInterval time.Duration `yaml:"poll_interval"`

	// MaxTimeout caps per-call timeout overrides from tool arguments.
	// Environment: PVEMCP_EXEC_MAX_TIMEOUT
	// Default: 5m
	MaxTimeout time.Duration `yaml:"max_timeout"`
}

// HTTPConfig configures the HTTP client used for API requests.
type HTTPConfig struct {
	// Timeout is the total request timeout (includes retries).
	// Environment: PVEMCP_HTTP_TIMEOUT
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// RetryAttempts is the maximum number of retry attempts (0 = no retries).
	// Only idempotent requests are retried.
	// Default: 3
	RetryAttempts int `yaml:"retry_attempts"`

	// RetryBackoff is the initial backoff delay before the first retry.
	// Default: 500ms
	RetryBackoff time.Duration `yaml:"retry_backoff"`

	// MaxBackoff caps the exponential backoff delay.
	// Default: 30s
	MaxBackoff time.Duration `yaml:"max_backoff"`

	// RateLimit is the client-side request rate in requests per second.
	// Environment: PVEMCP_HTTP_RATE_LIMIT
	// Default: 10
	RateLimit float64 `yaml:"rate_limit"`

	// RateBurst is the token bucket burst size for the rate limiter.
	// Default: 20
	RateBurst int `yaml:"rate_burst"`
}

// PolicyConfig configures the optional command guard consulted by
// mutating tools and command execution.
type PolicyConfig struct {
	// ProtectedGuests lists VMIDs or names that refuse lifecycle,
	// destroy, and exec operations.
	ProtectedGuests []string `yaml:"protected_guests,omitempty"`

	// Rules are expr boolean expressions over {tool, node, vmid, name,
	// command}. Any rule evaluating true denies the call.
	Rules []string `yaml:"rules,omitempty"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	// Environment: PVEMCP_LOG_LEVEL
	// Default: info
	Level string `yaml:"level"`

	// Format sets the output format (json, text).
	// Environment: PVEMCP_LOG_FORMAT
	// Default: json
	Format string `yaml:"format"`

	// Output is a file path for logs. Empty means stderr; stdout is
	// reserved for the MCP stdio transport.
	// Environment: PVEMCP_LOG_FILE
	Output string `yaml:"output,omitempty"`

	// AddSource adds source file and line information to logs.
	// Environment: PVEMCP_LOG_SOURCE
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// TelemetryConfig configures metrics and tracing.
type TelemetryConfig struct {
	// Enabled activates span and metric recording.
	// Environment: PVEMCP_TELEMETRY_ENABLED
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Listen is an optional host:port for the /metrics endpoint. Empty
	// keeps metrics in-process only.
	// Environment: PVEMCP_TELEMETRY_LISTEN
	Listen string `yaml:"listen,omitempty"`

	// Exporter selects the span exporter: "otlp", "stdout", or "none".
	// Environment: PVEMCP_TELEMETRY_EXPORTER
	// Default: none
	Exporter string `yaml:"exporter,omitempty"`

	// Endpoint is the OTLP/HTTP collector endpoint (host:port) used when
	// Exporter is "otlp".
	// Environment: PVEMCP_TELEMETRY_ENDPOINT
	Endpoint string `yaml:"endpoint,omitempty"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Proxmox: ProxmoxConfig{
			Port:      8006,
			VerifySSL: true,
		},
		Exec: ExecConfig{
			Timeout:      30 * time.Second,
			PollInterval: 500 * time.Millisecond,
			MaxTimeout:   5 * time.Minute,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			RetryAttempts: 3,
			RetryBackoff:  500 * time.Millisecond,
			MaxBackoff:    30 * time.Second,
			RateLimit:     10,
			RateBurst:     20,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "json",
			AddSource: false,
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
		},
	}
}

// Load loads configuration from environment variables and optionally from a YAML file.
// Environment variables take precedence over file-based configuration.
// If configPath is empty the path is resolved via ResolvePath, so a
// config written by setup to the default location is picked up without
// any flag.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	configPath = ResolvePath(configPath)

	// Load from file if path provided
	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, &pvemcperrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	// Apply defaults to any zero values (handles minimal configs)
	cfg.applyDefaults()

	// Override with environment variables
	cfg.loadFromEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, &pvemcperrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// applyDefaults fills in zero values with sensible defaults.
// This allows minimal configs (e.g., just the proxmox section) to work
// without specifying all fields explicitly.
func (c *Config) applyDefaults() {
	defaults := Default()

	// Proxmox defaults
	if c.Proxmox.Port == 0 {
		c.Proxmox.Port = defaults.Proxmox.Port
	}

	// Exec defaults
	if c.Exec.Timeout == 0 {
		c.Exec.Timeout = defaults.Exec.Timeout
	}
	if c.Exec.PollInterval == 0 {
		c.Exec.PollInterval = defaults.Exec.PollInterval
	}
	if c.Exec.MaxTimeout == 0 {
		c.Exec.MaxTimeout = defaults.Exec.MaxTimeout
	}

	// HTTP defaults
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = defaults.HTTP.Timeout
	}
	if c.HTTP.RetryBackoff == 0 {
		c.HTTP.RetryBackoff = defaults.HTTP.RetryBackoff
	}
	if c.HTTP.MaxBackoff == 0 {
		c.HTTP.MaxBackoff = defaults.HTTP.MaxBackoff
	}
	if c.HTTP.RateLimit == 0 {
		c.HTTP.RateLimit = defaults.HTTP.RateLimit
	}
	if c.HTTP.RateBurst == 0 {
		c.HTTP.RateBurst = defaults.HTTP.RateBurst
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}
}

// loadFromFile loads configuration from a YAML file.
func (c *Config) loadFromFile(path string) error {
	// Expand home directory if present
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() {
	// Proxmox configuration
	if val := os.Getenv("PVEMCP_PROXMOX_HOST"); val != "" {
		c.Proxmox.Host = val
	}
	if val := os.Getenv("PVEMCP_PROXMOX_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Proxmox.Port = port
		}
	}
	if val := os.Getenv("PVEMCP_PROXMOX_VERIFY_SSL"); val != "" {
		c.Proxmox.VerifySSL = val == "1" || strings.ToLower(val) == "true"
	}
	if val := os.Getenv("PVEMCP_PROXMOX_TOKEN_ID"); val != "" {
		c.Proxmox.TokenID = val
	}
	if val := os.Getenv("PVEMCP_PROXMOX_TOKEN_SECRET"); val != "" {
		c.Proxmox.TokenSecret = val
	}

	// Exec configuration
	if val := os.Getenv("PVEMCP_EXEC_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.Exec.Timeout = duration
		}
	}
	if val := os.Getenv("PVEMCP_EXEC_POLL_INTERVAL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.Exec.PollInterval = duration
		}
	}
	if val := os.Getenv("PVEMCP_EXEC_MAX_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.Exec.MaxTimeout = duration
		}
	}

	// HTTP configuration
	if val := os.Getenv("PVEMCP_HTTP_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			c.HTTP.Timeout = duration
		}
	}
	if val := os.Getenv("PVEMCP_HTTP_RATE_LIMIT"); val != "" {
		if rps, err := strconv.ParseFloat(val, 64); err == nil {
			c.HTTP.RateLimit = rps
		}
	}

	// Logging configuration
	if val := os.Getenv("PVEMCP_LOG_LEVEL"); val != "" {
		c.Logging.Level = strings.ToLower(val)
	}
	if val := os.Getenv("PVEMCP_LOG_FORMAT"); val != "" {
		c.Logging.Format = strings.ToLower(val)
	}
	if val := os.Getenv("PVEMCP_LOG_FILE"); val != "" {
		c.Logging.Output = val
	}
	if val := os.Getenv("PVEMCP_LOG_SOURCE"); val != "" {
		c.Logging.AddSource = val == "1" || strings.ToLower(val) == "true"
	}

	// Telemetry configuration
	if val := os.Getenv("PVEMCP_TELEMETRY_ENABLED"); val != "" {
		c.Telemetry.Enabled = val == "1" || strings.ToLower(val) == "true"
	}
	if val := os.Getenv("PVEMCP_TELEMETRY_LISTEN"); val != "" {
		c.Telemetry.Listen = val
	}
	if val := os.Getenv("PVEMCP_TELEMETRY_EXPORTER"); val != "" {
		c.Telemetry.Exporter = strings.ToLower(val)
	}
	if val := os.Getenv("PVEMCP_TELEMETRY_ENDPOINT"); val != "" {
		c.Telemetry.Endpoint = val
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	// Validate proxmox configuration
	if c.Proxmox.Host == "" {
		errs = append(errs, "proxmox.host is required")
	}
	if c.Proxmox.Port < 1 || c.Proxmox.Port > 65535 {
		errs = append(errs, fmt.Sprintf("proxmox.port must be between 1 and 65535, got %d", c.Proxmox.Port))
	}
	if c.Proxmox.TokenID == "" {
		errs = append(errs, "proxmox.token_id is required")
	} else if !strings.Contains(c.Proxmox.TokenID, "@") || !strings.Contains(c.Proxmox.TokenID, "!") {
		errs = append(errs, fmt.Sprintf("proxmox.token_id must be in user@realm!tokenid form, got %q", c.Proxmox.TokenID))
	}
	if c.Proxmox.TokenSecret == "" {
		errs = append(errs, "proxmox.token_secret is required")
	}

	// Validate exec configuration
	if c.Exec.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("exec.timeout must be positive, got %v", c.Exec.Timeout))
	}
	if c.Exec.PollInterval <= 0 {
		errs = append(errs, fmt.Sprintf("exec.poll_interval must be positive, got %v", c.Exec.PollInterval))
	}
	if c.Exec.PollInterval > 0 && c.Exec.Timeout > 0 && c.Exec.PollInterval >= c.Exec.Timeout {
		errs = append(errs, fmt.Sprintf("exec.poll_interval (%v) must be shorter than exec.timeout (%v)", c.Exec.PollInterval, c.Exec.Timeout))
	}
	if c.Exec.MaxTimeout < c.Exec.Timeout {
		errs = append(errs, fmt.Sprintf("exec.max_timeout (%v) must be at least exec.timeout (%v)", c.Exec.MaxTimeout, c.Exec.Timeout))
	}

	// Validate http configuration
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("http.timeout must be positive, got %v", c.HTTP.Timeout))
	}
	if c.HTTP.RetryAttempts < 0 {
		errs = append(errs, fmt.Sprintf("http.retry_attempts must be non-negative, got %d", c.HTTP.RetryAttempts))
	}
	if c.HTTP.RetryAttempts > 0 && c.HTTP.RetryBackoff <= 0 {
		errs = append(errs, fmt.Sprintf("http.retry_backoff must be positive when retries are enabled, got %v", c.HTTP.RetryBackoff))
	}
	if c.HTTP.MaxBackoff < c.HTTP.RetryBackoff {
		errs = append(errs, fmt.Sprintf("http.max_backoff (%v) must be at least http.retry_backoff (%v)", c.HTTP.MaxBackoff, c.HTTP.RetryBackoff))
	}
	if c.HTTP.RateLimit <= 0 {
		errs = append(errs, fmt.Sprintf("http.rate_limit must be positive, got %v", c.HTTP.RateLimit))
	}
	if c.HTTP.RateBurst < 1 {
		errs = append(errs, fmt.Sprintf("http.rate_burst must be at least 1, got %d", c.HTTP.RateBurst))
	}

	// Validate logging configuration
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [trace, debug, info, warn, warning, error], got %q", c.Logging.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, text], got %q", c.Logging.Format))
	}

	// Validate telemetry configuration
	if c.Telemetry.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Telemetry.Listen); err != nil {
			errs = append(errs, fmt.Sprintf("telemetry.listen must be a host:port address, got %q", c.Telemetry.Listen))
		}
	}
	validExporters := map[string]bool{"": true, "none": true, "otlp": true, "stdout": true}
	if !validExporters[c.Telemetry.Exporter] {
		errs = append(errs, fmt.Sprintf("telemetry.exporter must be one of [none, otlp, stdout], got %q", c.Telemetry.Exporter))
	}
	if c.Telemetry.Exporter == "otlp" && c.Telemetry.Endpoint == "" {
		errs = append(errs, "telemetry.endpoint is required when telemetry.exporter is otlp")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(errs, "\n  - "))
	}

	return nil
}

// APIBaseURL returns the HTTPS base URL for the configured API endpoint.
func (c *ProxmoxConfig) APIBaseURL() string {
	return fmt.Sprintf("https://%s/api2/json", net.JoinHostPort(c.Host, strconv.Itoa(c.Port)))
}
