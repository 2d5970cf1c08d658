// Package query applies jq filters to raw Proxmox API responses.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/itchyny/gojq"

	pvemcperrors "github.com/tombee/pvemcp/pkg/errors"
)

const (
	// DefaultTimeout is the default evaluation budget for a filter (1 second)
	DefaultTimeout = 1 * time.Second

	// DefaultMaxInputSize is the default maximum response size a filter may run over (10MB)
	DefaultMaxInputSize = 10 * 1024 * 1024
)

// Runner evaluates jq filters with timeout and input size limits.
type Runner struct {
	timeout      time.Duration
	maxInputSize int64
}

// NewRunner creates a runner with the given limits. Zero values pick
// the defaults.
func NewRunner(timeout time.Duration, maxInputSize int64) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxInputSize <= 0 {
		maxInputSize = DefaultMaxInputSize
	}

	return &Runner{
		timeout:      timeout,
		maxInputSize: maxInputSize,
	}
}

// Apply runs a jq filter over decoded JSON. An empty filter returns the
// data unchanged. A filter yielding a single value returns that value;
// multiple values come back as an array.
func (r *Runner) Apply(ctx context.Context, filter string, data interface{}) (interface{}, error) {
	if filter == "" {
		return data, nil
	}

	if err := r.validateInputSize(data); err != nil {
		return nil, err
	}

	code, err := r.compile(filter)
	if err != nil {
		return nil, err
	}

	execCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resultChan := make(chan interface{}, 1)
	errChan := make(chan error, 1)

	go func() {
		// RunWithContext keeps a looping filter from outliving its
		// budget; the server is long-lived and cannot shed the goroutine
		// otherwise.
		iter := code.RunWithContext(execCtx, data)

		var results []interface{}
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}

			if err, isErr := v.(error); isErr {
				errChan <- err
				return
			}

			results = append(results, v)
		}

		switch len(results) {
		case 0:
			resultChan <- nil
		case 1:
			resultChan <- results[0]
		default:
			resultChan <- results
		}
	}()

	select {
	case result := <-resultChan:
		return result, nil
	case err := <-errChan:
		if execCtx.Err() != nil {
			return nil, r.timeoutError(execCtx.Err())
		}
		return nil, fmt.Errorf("jq: %w", err)
	case <-execCtx.Done():
		return nil, r.timeoutError(execCtx.Err())
	}
}

// Validate compiles a filter without running it, so a bad filter is
// caught before the API request is made.
func (r *Runner) Validate(filter string) error {
	if filter == "" {
		return nil
	}
	_, err := r.compile(filter)
	return err
}

func (r *Runner) compile(filter string) (*gojq.Code, error) {
	query, err := gojq.Parse(filter)
	if err != nil {
		return nil, &pvemcperrors.ValidationError{
			Field:      "filter",
			Message:    fmt.Sprintf("invalid jq filter: %s", err),
			Suggestion: "check the jq filter syntax",
		}
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, &pvemcperrors.ValidationError{
			Field:      "filter",
			Message:    fmt.Sprintf("jq filter failed to compile: %s", err),
			Suggestion: "check the jq filter syntax",
		}
	}

	return code, nil
}

func (r *Runner) timeoutError(cause error) error {
	if errors.Is(cause, context.DeadlineExceeded) {
		return &pvemcperrors.TimeoutError{
			Operation: "jq filter",
			Duration:  r.timeout,
			Cause:     cause,
		}
	}
	return cause
}

// validateInputSize checks the response stays within limits.
func (r *Runner) validateInputSize(data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if int64(len(jsonData)) > r.maxInputSize {
		return fmt.Errorf("response size (%d bytes) exceeds maximum (%d bytes)",
			len(jsonData), r.maxInputSize)
	}

	return nil
}
