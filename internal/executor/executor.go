// Package executor runs shell commands inside Proxmox guests and waits
// for them to finish.
//
// An execution checks the guest is running, submits the command
// through a Backend, then polls at a fixed interval until the command
// finishes, the timeout budget runs out, or a poll fails. A nonzero
// exit code inside the guest is data (a non-success CommandResult),
// never a Go error; errors are reserved for the infrastructure around
// the command (precondition, submission, polling).
package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tombee/pvemcp/internal/tracing"
	pvemcperrors "github.com/tombee/pvemcp/pkg/errors"
)

// timeoutMessage is the ErrOutput of a timed-out execution.
const timeoutMessage = "timed out waiting for command completion"

const (
	// DefaultTimeout is the completion budget when the caller does not
	// override it.
	DefaultTimeout = 30 * time.Second

	// DefaultPollInterval is the fixed wait between completion polls.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultMaxTimeout caps per-call timeout overrides.
	DefaultMaxTimeout = 5 * time.Minute
)

// CommandRequest describes one command execution. It is immutable once
// submitted.
type CommandRequest struct {
	Node    string
	GuestID string
	Command string
}

// CommandResult is the outcome of a finished (or timed-out) execution.
// Success means the command ran to completion with exit code zero;
// a nonzero exit or a timeout produces a non-success result rather
// than an error.
type CommandResult struct {
	Success   bool
	Output    string
	ErrOutput string
	ExitCode  int
}

// TimedOut reports whether this result came from an exhausted timeout
// budget rather than a finished command.
func (r *CommandResult) TimedOut() bool {
	return !r.Success && r.ErrOutput == timeoutMessage
}

// Executor runs guest commands through a Backend. All fields are fixed
// at construction, so concurrent Execute calls are fully independent;
// each owns its handle and loop state.
type Executor struct {
	backend      Backend
	timeout      time.Duration
	pollInterval time.Duration
	maxTimeout   time.Duration
	logger       *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithTimeout sets the default completion budget.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithPollInterval sets the fixed wait between completion polls.
func WithPollInterval(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

// WithMaxTimeout caps per-call timeout overrides.
func WithMaxTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.maxTimeout = d
		}
	}
}

// WithLogger sets the execution logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// New creates an executor over the given backend.
func New(backend Backend, opts ...Option) *Executor {
	e := &Executor{
		backend:      backend,
		timeout:      DefaultTimeout,
		pollInterval: DefaultPollInterval,
		maxTimeout:   DefaultMaxTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs a command inside a guest with the default timeout.
func (e *Executor) Execute(ctx context.Context, node, guestID, command string) (*CommandResult, error) {
	return e.ExecuteWithTimeout(ctx, node, guestID, command, e.timeout)
}

// ExecuteWithTimeout runs a command with a per-call completion budget.
// Non-positive timeouts fall back to the default; oversized ones are
// clamped to the configured maximum.
func (e *Executor) ExecuteWithTimeout(ctx context.Context, node, guestID, command string, timeout time.Duration) (*CommandResult, error) {
	req := CommandRequest{Node: node, GuestID: guestID, Command: command}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	timeout = e.clampTimeout(timeout)

	start := time.Now()
	kind := e.backend.Kind()
	// Correlates the submit, poll, and outcome log lines of one
	// execution across interleaved concurrent calls.
	execID := uuid.NewString()
	logger := e.logger.With("exec_id", execID, "kind", kind, "node", node, "guest", guestID)

	// Best-effort precondition; the API's submit stays the
	// authoritative gate for races between check and act.
	state, err := e.backend.GuestStatus(ctx, node, guestID)
	if err != nil {
		tracing.RecordCommandExecution(kind, "error", time.Since(start).Seconds())
		return nil, &PreconditionError{Node: node, GuestID: guestID, State: StateUnknown, Cause: err}
	}
	if state != StateRunning {
		tracing.RecordCommandExecution(kind, "error", time.Since(start).Seconds())
		return nil, &PreconditionError{Node: node, GuestID: guestID, State: state}
	}

	handle, err := e.backend.Submit(ctx, node, guestID, command)
	if err != nil {
		tracing.RecordCommandExecution(kind, "error", time.Since(start).Seconds())
		return nil, &SubmissionError{Node: node, GuestID: guestID, Cause: err}
	}

	logger.Debug("guest command submitted", "handle", string(handle), "timeout", timeout)

	// The budget covers waiting for completion only; status check and
	// submit latency don't count against it.
	pollStart := time.Now()

	for {
		status, err := e.backend.Poll(ctx, node, guestID, handle)
		if err != nil {
			// Fail fast: a broken poll channel is an infrastructure
			// fault, not a slow command.
			tracing.RecordCommandExecution(kind, "error", time.Since(start).Seconds())
			return nil, &PollError{Node: node, GuestID: guestID, Handle: handle, Cause: err}
		}

		if status.Finished {
			result := &CommandResult{
				Success:   status.ExitCode == 0,
				Output:    status.Output,
				ErrOutput: status.ErrOutput,
				ExitCode:  status.ExitCode,
			}
			outcome := "completed"
			if !result.Success {
				outcome = "failed"
			}
			tracing.RecordCommandExecution(kind, outcome, time.Since(start).Seconds())
			logger.Debug("guest command finished",
				"exit_code", result.ExitCode,
				"duration", time.Since(start),
			)
			return result, nil
		}

		if time.Since(pollStart) > timeout {
			// The remote job keeps running; there is no cancellation
			// primitive, the executor just stops observing it.
			tracing.RecordCommandExecution(kind, "timeout", time.Since(start).Seconds())
			logger.Warn("guest command timed out", "timeout", timeout)
			return &CommandResult{Success: false, ErrOutput: timeoutMessage}, nil
		}

		timer := time.NewTimer(e.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (e *Executor) clampTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return e.timeout
	}
	if timeout > e.maxTimeout {
		return e.maxTimeout
	}
	return timeout
}

func validateRequest(req CommandRequest) error {
	switch {
	case req.Node == "":
		return &pvemcperrors.ValidationError{Field: "node", Message: "node name must not be empty"}
	case req.GuestID == "":
		return &pvemcperrors.ValidationError{Field: "vmid", Message: "guest ID must not be empty"}
	case req.Command == "":
		return &pvemcperrors.ValidationError{Field: "command", Message: "command must not be empty"}
	}
	return nil
}
