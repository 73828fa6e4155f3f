package core

import "github.com/paul-j-lucas/chsm-sub001/internal/primitives"

// historyManager tracks deep-history configurations. Shallow history needs
// no separate bookkeeping: spec §3/§4.2 already keeps it as a Cluster's own
// LastChildID, kept in sync with the truly-active child on both entry
// (enterState's did_enter_child bookkeeping) and exit. Deep history
// additionally remembers the descendant chain below a cluster (through
// nested clusters, stopping at the first non-cluster state) so re-entry
// can restore that whole chain rather than just the immediate child
// (spec.md's distilled model only describes shallow history; this widens
// it per SPEC_FULL.md §6, grounded on the teacher's
// internal/core/historymanager.go dual shallow/deep design).
type historyManager struct {
	deep map[primitives.StateID][]primitives.StateID
}

func newHistoryManager() *historyManager {
	return &historyManager{deep: make(map[primitives.StateID][]primitives.StateID)}
}

// record stores the active descendant chain (cluster's child, grandchild,
// …) for a deep-history cluster at the moment it is exited.
func (h *historyManager) record(clusterID primitives.StateID, chain []primitives.StateID) {
	if len(chain) == 0 {
		delete(h.deep, clusterID)
		return
	}
	cp := make([]primitives.StateID, len(chain))
	copy(cp, chain)
	h.deep[clusterID] = cp
}

// restore returns the previously recorded descendant chain for clusterID,
// if any. Deep history is deliberately not cleared on Machine.Exit: spec
// §8's round-trip property requires enter();exit() to preserve history for
// the next enter(), the same contract shallow history's LastChildID
// already gets for free by simply not being reset.
func (h *historyManager) restore(clusterID primitives.StateID) ([]primitives.StateID, bool) {
	chain, ok := h.deep[clusterID]
	return chain, ok
}
