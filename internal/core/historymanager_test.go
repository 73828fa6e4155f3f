package core

import (
	"testing"

	"github.com/paul-j-lucas/chsm-sub001/internal/primitives"
)

func TestHistoryManagerRecordRestore(t *testing.T) {
	h := newHistoryManager()
	if _, ok := h.restore(1); ok {
		t.Fatal("expected miss before any record")
	}
	h.record(1, []primitives.StateID{2, 3})
	chain, ok := h.restore(1)
	if !ok || len(chain) != 2 || chain[0] != 2 || chain[1] != 3 {
		t.Fatalf("chain = %v, ok = %v", chain, ok)
	}
}

func TestHistoryManagerRecordEmptyChainClears(t *testing.T) {
	h := newHistoryManager()
	h.record(1, []primitives.StateID{2})
	h.record(1, nil)
	if _, ok := h.restore(1); ok {
		t.Fatal("expected recording an empty chain to clear the entry")
	}
}

func TestHistoryManagerRecordCopiesChain(t *testing.T) {
	h := newHistoryManager()
	chain := []primitives.StateID{2, 3}
	h.record(1, chain)
	chain[0] = 99
	got, _ := h.restore(1)
	if got[0] != 2 {
		t.Fatalf("restore returned %v, mutation of caller's slice leaked in", got)
	}
}
