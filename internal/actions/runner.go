// Package actions provides the pluggable seams through which the Machine
// invokes user-supplied action and condition callbacks, mirroring the
// teacher's extensibility.ActionRunner / extensibility.GuardEvaluator
// pattern adapted to this runtime's direct func(*primitives.Event) callback
// shape (the assembly contract has no string-keyed action/guard registry).
package actions

import (
	"log"
	"time"

	"github.com/paul-j-lucas/chsm-sub001/internal/primitives"
)

// Runner executes action and condition callbacks on behalf of the Machine.
// The default implementation just calls them; wrapping implementations
// (e.g. Logging) can add cross-cutting behavior without the Machine
// knowing about it.
type Runner interface {
	RunAction(action func(*primitives.Event) error, e *primitives.Event) error
	EvalCondition(cond func(*primitives.Event) bool, e *primitives.Event) bool
}

// Default is the zero-overhead Runner: nil actions/conditions are no-ops
// and "always true", respectively.
type Default struct{}

func (Default) RunAction(action func(*primitives.Event) error, e *primitives.Event) error {
	if action == nil {
		return nil
	}
	return action(e)
}

func (Default) EvalCondition(cond func(*primitives.Event) bool, e *primitives.Event) bool {
	if cond == nil {
		return true
	}
	return cond(e)
}

// Logging wraps an inner Runner and logs timing/outcome around each call,
// grounded on the teacher's extensibility.LoggingActionRunner.
type Logging struct {
	Inner  Runner
	Logger *log.Logger
}

// NewLogging wraps inner with logging via logger (log.Default() if nil).
func NewLogging(inner Runner, logger *log.Logger) *Logging {
	if logger == nil {
		logger = log.Default()
	}
	if inner == nil {
		inner = Default{}
	}
	return &Logging{Inner: inner, Logger: logger}
}

func (l *Logging) RunAction(action func(*primitives.Event) error, e *primitives.Event) error {
	if action == nil {
		return nil
	}
	start := time.Now()
	err := l.Inner.RunAction(action, e)
	l.Logger.Printf("chsm: action on event %q completed in %v: %v", e.Name, time.Since(start), err)
	return err
}

func (l *Logging) EvalCondition(cond func(*primitives.Event) bool, e *primitives.Event) bool {
	if cond == nil {
		return true
	}
	result := l.Inner.EvalCondition(cond, e)
	l.Logger.Printf("chsm: condition on event %q evaluated to %v", e.Name, result)
	return result
}
