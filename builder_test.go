package chsm_test

import (
	"context"
	"testing"

	"github.com/paul-j-lucas/chsm-sub001"
)

// TestBuilderOutOfOrderChildMutation guards against a StateBuilder holding
// a pointer into a parent's Children slice that a later sibling's append
// could reallocate out from under it.
func TestBuilderOutOfOrderChildMutation(t *testing.T) {
	b := chsm.New("m", "root")
	root := b.Root()
	a := root.State("A")
	_ = root.State("B") // forces Children to grow/reallocate after a was captured
	_ = root.State("C")
	a.Transition("e", "B") // must still land on the real "A" entry, not a stranded copy

	b.Event("e")
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ctx := context.Background()
	if err := m.Enter(ctx); err != nil {
		t.Fatal(err)
	}
	if err := m.Queue(ctx, "e", nil); err != nil {
		t.Fatalf("Queue e: %v", err)
	}
	if !m.IsActive(ctx, "B") {
		t.Fatalf("expected transition attached to A to have fired, active = %v", m.ActiveStates(ctx))
	}
}
