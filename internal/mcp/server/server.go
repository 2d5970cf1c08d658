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

// Package server implements the MCP server that exposes Proxmox VE
// operations as tools over stdio.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/pvemcp/internal/executor"
	"github.com/tombee/pvemcp/internal/log"
	"github.com/tombee/pvemcp/internal/policy"
	"github.com/tombee/pvemcp/internal/proxmox"
	"github.com/tombee/pvemcp/internal/query"
	"github.com/tombee/pvemcp/internal/tracing"
	pvemcperrors "github.com/tombee/pvemcp/pkg/errors"
)

// Server wraps the MCP server and provides Proxmox tools
type Server struct {
	mcpServer   *server.MCPServer
	name        string
	version     string
	client      *proxmox.Client
	vmExec      *executor.Executor
	ctExec      *executor.Executor
	guard       *policy.Guard
	query       *query.Runner
	rateLimiter *RateLimiter
	logger      *slog.Logger
	tracer      trace.Tracer
}

// Config configures the MCP server
type Config struct {
	// Name is the server name (default: "pvemcp")
	Name string

	// Version is the pvemcp version
	Version string

	// Client is the Proxmox API client
	Client *proxmox.Client

	// VMExecutor runs commands inside VMs via the QEMU guest agent
	VMExecutor *executor.Executor

	// ContainerExecutor runs commands inside LXC containers
	ContainerExecutor *executor.Executor

	// Guard enforces the operator policy on mutating tools (optional)
	Guard *policy.Guard

	// Query evaluates jq filters for the query_api tool (optional,
	// defaults to a runner with standard limits)
	Query *query.Runner

	// Logger is used for structured logging (optional). Output must not
	// be stdout, which carries the MCP protocol.
	Logger *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg Config) (*Server, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("proxmox client is required")
	}
	if cfg.VMExecutor == nil {
		return nil, fmt.Errorf("vm executor is required")
	}
	if cfg.ContainerExecutor == nil {
		return nil, fmt.Errorf("container executor is required")
	}

	if cfg.Name == "" {
		cfg.Name = "pvemcp"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Query == nil {
		cfg.Query = query.NewRunner(0, 0)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(cfg.Name, cfg.Version)

	// Rate limiter (30 command executions/min, 120 calls/min)
	rateLimiter := NewRateLimiter(30, 120)

	s := &Server{
		mcpServer:   mcpServer,
		name:        cfg.Name,
		version:     cfg.Version,
		client:      cfg.Client,
		vmExec:      cfg.VMExecutor,
		ctExec:      cfg.ContainerExecutor,
		guard:       cfg.Guard,
		query:       cfg.Query,
		rateLimiter: rateLimiter,
		logger:      logger,
		tracer:      otel.Tracer("pvemcp/mcp"),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all Proxmox tools with the MCP server
func (s *Server) registerTools() {
	s.registerNodeTools()
	s.registerVMTools()
	s.registerContainerTools()
	s.registerSnapshotTools()
	s.registerExecTools()
	s.registerClusterTools()
	s.registerQueryTools()
}

// Run starts the MCP server on stdio and blocks until the context is
// cancelled or stdin closes.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server",
		"name", s.name,
		"version", s.version,
	)

	stdio := server.NewStdioServer(s.mcpServer)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down MCP server")
	// Stdio transport stops when Run's context is cancelled; nothing
	// else holds resources.
	return nil
}

// toolFunc is a tool handler body. It returns the text payload on
// success and a typed error on failure; translation to MCP results
// happens in the wrapper.
type toolFunc func(ctx context.Context, request mcp.CallToolRequest) (string, error)

// handle wraps a tool handler with rate limiting, tracing, metrics and
// structured logging, so every tool reports failures the same way.
func (s *Server) handle(name string, fn toolFunc) server.ToolHandlerFunc {
	return s.wrap(name, fn, false)
}

// handleExec is handle plus the stricter execution rate limit, for the
// tools that run commands inside guests.
func (s *Server) handleExec(name string, fn toolFunc) server.ToolHandlerFunc {
	return s.wrap(name, fn, true)
}

func (s *Server) wrap(name string, fn toolFunc, exec bool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		call := &log.ToolCall{Tool: name, Arguments: request.GetArguments()}
		log.LogToolCall(s.logger, call)

		finish := func(status, errMsg string) {
			tracing.RecordToolCall(name, status)
			log.LogToolResult(s.logger, call, &log.ToolResult{
				Status:     status,
				Error:      errMsg,
				DurationMs: time.Since(start).Milliseconds(),
			})
		}

		if !s.rateLimiter.AllowCall() {
			finish(log.StatusRateLimited, "tool call rate limit exceeded")
			return errorResponse("Rate limit exceeded. Please try again later."), nil
		}
		if exec && !s.rateLimiter.AllowExec() {
			finish(log.StatusRateLimited, "command execution rate limit exceeded")
			return errorResponse("Rate limit exceeded for command execution. Please try again later."), nil
		}

		ctx, span := s.tracer.Start(ctx, "tool/"+name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", name)),
		)
		defer span.End()

		text, err := fn(ctx, request)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			status := log.StatusError
			var denied *policy.DeniedError
			if errors.As(err, &denied) {
				status = log.StatusDenied
			}
			finish(status, err.Error())
			return errorResponse(userMessage(err)), nil
		}

		finish(log.StatusOK, "")
		return textResponse(text), nil
	}
}

// allow consults the policy guard. A nil guard allows everything.
func (s *Server) allow(req policy.Request) error {
	if s.guard == nil {
		return nil
	}
	return s.guard.Check(req)
}

// userMessage renders an error for the tool caller, attaching the
// suggestion when the typed error carries one.
func userMessage(err error) string {
	msg := err.Error()

	var suggestion string
	var verr *pvemcperrors.ValidationError
	var aerr *pvemcperrors.APIError
	switch {
	case errors.As(err, &verr):
		suggestion = verr.Suggestion
	case errors.As(err, &aerr):
		suggestion = aerr.Suggestion
	}

	if suggestion != "" {
		return fmt.Sprintf("%s (%s)", msg, suggestion)
	}
	return msg
}

// Helper function to create error response
func errorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

// Helper function to create success response
func textResponse(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}
