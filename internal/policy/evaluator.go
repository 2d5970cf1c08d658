package policy

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	pvemcperrors "github.com/tombee/pvemcp/pkg/errors"
)

// Evaluator compiles rule expressions and caches the compiled programs,
// so reloads only pay for rules that actually changed.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewEvaluator creates an empty evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		cache: make(map[string]*vm.Program),
	}
}

// Compile parses a rule and caches the program. It reports syntax and
// type errors without evaluating anything.
func (e *Evaluator) Compile(rule string) error {
	if rule == "" {
		return nil
	}
	_, err := e.compile(rule)
	return err
}

// Evaluate runs a rule against the request environment. Empty rules
// never match.
func (e *Evaluator) Evaluate(rule string, env map[string]interface{}) (bool, error) {
	if rule == "" {
		return false, nil
	}

	program, err := e.compile(rule)
	if err != nil {
		return false, &pvemcperrors.ValidationError{
			Field:      "policy.rules",
			Message:    fmt.Sprintf("failed to compile rule %q: %s", rule, err),
			Suggestion: "check the rule syntax; rules are boolean expressions over tool, node, vmid, name and command",
		}
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return false, &pvemcperrors.ValidationError{
			Field:      "policy.rules",
			Message:    fmt.Sprintf("rule %q failed to evaluate: %s", rule, err),
			Suggestion: "rules may reference tool, node, vmid, name and command",
		}
	}

	denied, ok := result.(bool)
	if !ok {
		return false, &pvemcperrors.ValidationError{
			Field:      "policy.rules",
			Message:    fmt.Sprintf("rule %q must return a boolean, got %T", rule, result),
			Suggestion: "use comparison operators or boolean functions",
		}
	}
	return denied, nil
}

// CacheSize returns the number of cached programs.
func (e *Evaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

func (e *Evaluator) compile(rule string) (*vm.Program, error) {
	e.mu.RLock()
	program, ok := e.cache[rule]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(rule,
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[rule] = program
	e.mu.Unlock()

	return program, nil
}
