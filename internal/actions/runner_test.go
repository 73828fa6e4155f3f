package actions_test

import (
	"bytes"
	"log"
	"testing"

	"github.com/paul-j-lucas/chsm-sub001/internal/actions"
	"github.com/paul-j-lucas/chsm-sub001/internal/primitives"
)

func TestDefaultRunnerNilActionIsNoop(t *testing.T) {
	var r actions.Default
	if err := r.RunAction(nil, &primitives.Event{}); err != nil {
		t.Fatalf("nil action should be a no-op, got %v", err)
	}
}

func TestDefaultRunnerNilConditionIsTrue(t *testing.T) {
	var r actions.Default
	if !r.EvalCondition(nil, &primitives.Event{}) {
		t.Fatal("nil condition should evaluate true")
	}
}

func TestDefaultRunnerInvokesAction(t *testing.T) {
	var r actions.Default
	called := false
	err := r.RunAction(func(*primitives.Event) error { called = true; return nil }, &primitives.Event{})
	if err != nil || !called {
		t.Fatalf("called=%v err=%v", called, err)
	}
}

func TestLoggingRunnerDelegatesAndLogs(t *testing.T) {
	var buf bytes.Buffer
	l := actions.NewLogging(actions.Default{}, log.New(&buf, "", 0))

	called := false
	err := l.RunAction(func(*primitives.Event) error { called = true; return nil }, &primitives.Event{Name: "e"})
	if err != nil || !called {
		t.Fatalf("called=%v err=%v", called, err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected logging output")
	}
}
