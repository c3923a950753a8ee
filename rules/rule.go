// Package rules provides the Condition Validator: it compile-checks a
// step's stored `if` expression at DAG-build time and never evaluates
// it. Skipping based on a condition's runtime value is explicitly out
// of the core's scope (spec §1 Non-goals, §9) — validating syntax early
// still catches author mistakes without crossing that line.
package rules

import (
	"sync"

	"github.com/expr-lang/expr"
)

// Validator compile-checks a condition expression's syntax.
type Validator interface {
	Validate(expression string) error
}

// ExprValidator is a Validator backed by github.com/expr-lang/expr. It
// caches expressions already validated so the same condition string,
// referenced by more than one step, is not recompiled.
type ExprValidator struct {
	mu    sync.RWMutex
	cache map[string]struct{}
}

// NewExprValidator builds a validator with an empty cache.
func NewExprValidator() *ExprValidator {
	return &ExprValidator{cache: make(map[string]struct{})}
}

// Validate compiles expression and discards the resulting program — the
// core never runs it (spec §9). A syntactically invalid expression
// returns expr's compile error unchanged; the caller (dag.Build) wraps
// it as ErrParsingFailed.
func (v *ExprValidator) Validate(expression string) error {
	v.mu.RLock()
	_, ok := v.cache[expression]
	v.mu.RUnlock()
	if ok {
		return nil
	}

	if _, err := expr.Compile(expression); err != nil {
		return err
	}

	v.mu.Lock()
	v.cache[expression] = struct{}{}
	v.mu.Unlock()
	return nil
}
