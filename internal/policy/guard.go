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

// Package policy guards mutating tool calls against the operator's
// policy: a protected-guest list and boolean deny rules evaluated
// over the request. Policy state is hot-swappable, so a config reload
// can replace it without restarting the server.
package policy

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tombee/pvemcp/internal/config"
)

// Request carries the fields a rule can see. Every field is a string;
// rules compare and pattern-match rather than do arithmetic.
type Request struct {
	// Tool is the tool name being invoked (e.g., "stop_vm").
	Tool string

	// Node is the target node, if the tool takes one.
	Node string

	// VMID is the target guest ID as a string, if the tool takes one.
	VMID string

	// Name is the target guest's name, when the caller knows it.
	Name string

	// Command is the shell command for exec tools, empty otherwise.
	Command string
}

// DeniedError reports a request refused by policy. The reason is the
// matched rule text or the protected-guest explanation, so the caller
// can surface exactly what blocked the call.
type DeniedError struct {
	// Tool is the tool that was refused.
	Tool string

	// Reason explains which policy matched.
	Reason string
}

// Error implements the error interface.
func (e *DeniedError) Error() string {
	return fmt.Sprintf("policy denies %s: %s", e.Tool, e.Reason)
}

// Guard evaluates requests against the active policy.
type Guard struct {
	evaluator *Evaluator
	logger    *slog.Logger

	mu        sync.RWMutex
	protected map[string]struct{}
	rules     []string
}

// New creates a guard from the policy configuration. It compiles every
// rule up front so malformed policy fails at startup, not on the first
// matching request.
func New(cfg config.PolicyConfig, logger *slog.Logger) (*Guard, error) {
	if logger == nil {
		logger = slog.Default()
	}

	g := &Guard{
		evaluator: NewEvaluator(),
		logger:    logger,
	}
	if err := g.Update(cfg); err != nil {
		return nil, err
	}
	return g, nil
}

// Update replaces the active policy. All rules are compiled before
// anything is swapped; on error the previous policy stays in force.
func (g *Guard) Update(cfg config.PolicyConfig) error {
	for _, rule := range cfg.Rules {
		if err := g.evaluator.Compile(rule); err != nil {
			return fmt.Errorf("invalid policy rule %q: %w", rule, err)
		}
	}

	protected := make(map[string]struct{}, len(cfg.ProtectedGuests))
	for _, guest := range cfg.ProtectedGuests {
		guest = strings.TrimSpace(guest)
		if guest == "" {
			continue
		}
		protected[guest] = struct{}{}
	}

	rules := make([]string, 0, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		if strings.TrimSpace(rule) == "" {
			continue
		}
		rules = append(rules, rule)
	}

	g.mu.Lock()
	g.protected = protected
	g.rules = rules
	g.mu.Unlock()

	g.logger.Debug("policy updated",
		"protected_guests", len(protected),
		"rules", len(rules))
	return nil
}

// Check evaluates the request against the active policy. It returns a
// *DeniedError when a protected guest or a rule matches, an evaluation
// error when a rule cannot run, and nil when the request is allowed.
// Evaluation failures block the request: a policy that cannot be
// applied must not silently admit.
func (g *Guard) Check(req Request) error {
	g.mu.RLock()
	protected := g.protected
	rules := g.rules
	g.mu.RUnlock()

	if req.VMID != "" {
		if _, ok := protected[req.VMID]; ok {
			return &DeniedError{
				Tool:   req.Tool,
				Reason: fmt.Sprintf("guest %s is protected", req.VMID),
			}
		}
	}
	if req.Name != "" {
		if _, ok := protected[req.Name]; ok {
			return &DeniedError{
				Tool:   req.Tool,
				Reason: fmt.Sprintf("guest %s is protected", req.Name),
			}
		}
	}

	if len(rules) == 0 {
		return nil
	}

	env := map[string]interface{}{
		"tool":    req.Tool,
		"node":    req.Node,
		"vmid":    req.VMID,
		"name":    req.Name,
		"command": req.Command,
	}

	for _, rule := range rules {
		denied, err := g.evaluator.Evaluate(rule, env)
		if err != nil {
			return err
		}
		if denied {
			g.logger.Info("policy denied request",
				"tool", req.Tool,
				"vmid", req.VMID,
				"rule", rule)
			return &DeniedError{Tool: req.Tool, Reason: rule}
		}
	}

	return nil
}
