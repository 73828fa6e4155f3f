package primitives_test

import (
	"testing"

	"github.com/paul-j-lucas/chsm-sub001/internal/primitives"
)

func TestContextGetSetDelete(t *testing.T) {
	c := primitives.NewContext()
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss on empty context")
	}
	c.Set("k", 42)
	v, ok := c.Get("k")
	if !ok || v.(int) != 42 {
		t.Fatalf("got (%v, %v), want (42, true)", v, ok)
	}
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after Delete")
	}
}

func TestContextSnapshot(t *testing.T) {
	c := primitives.NewContext()
	c.Set("a", 1)
	c.Set("b", 2)
	snap := c.Snapshot()
	if snap["a"] != 1 || snap["b"] != 2 || len(snap) != 2 {
		t.Fatalf("snapshot = %v", snap)
	}
}

func TestEventGuardCache(t *testing.T) {
	e := &primitives.Event{ID: 0}
	e.ResetGuardCache()
	if _, ok := e.CachedGuard(7); ok {
		t.Fatal("expected miss before MemoGuard")
	}
	e.MemoGuard(7, true)
	v, ok := e.CachedGuard(7)
	if !ok || !v {
		t.Fatalf("got (%v, %v), want (true, true)", v, ok)
	}
	e.ResetGuardCache()
	if _, ok := e.CachedGuard(7); ok {
		t.Fatal("expected cache cleared after ResetGuardCache")
	}
}

func TestTargetResolve(t *testing.T) {
	internal := primitives.Target{}
	if got := internal.Resolve(&primitives.Event{}); got != primitives.NoState {
		t.Fatalf("internal target resolved to %v, want NoState", got)
	}

	static := primitives.Target{Kind: primitives.TargetStatic, Static: 3}
	if got := static.Resolve(&primitives.Event{}); got != 3 {
		t.Fatalf("static target resolved to %v, want 3", got)
	}

	dyn := primitives.Target{Kind: primitives.TargetDynamic, Dynamic: func(e *primitives.Event) primitives.StateID {
		return primitives.StateID(e.Precedence)
	}}
	if got := dyn.Resolve(&primitives.Event{Precedence: 5}); got != 5 {
		t.Fatalf("dynamic target resolved to %v, want 5", got)
	}
}
