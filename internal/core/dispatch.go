package core

import (
	"fmt"
	"sort"

	"github.com/paul-j-lucas/chsm-sub001/internal/primitives"
)

// broadcast dispatches one queued event (one microstep): it walks the
// event's base-event chain most-derived first, gathers guard-passed
// candidate transitions, resolves conflicts, and fires the winners in
// declaration order (spec §4.1 steps 2-6).
func (m *Machine) broadcast(qe queuedEvent) (err error) {
	event := &m.events[qe.eventID]
	event.Params = qe.params
	event.ResetGuardCache()
	defer event.ResetGuardCache()

	m.tracer.BroadcastBegin(event.Name)
	defer m.tracer.BroadcastEnd(event.Name)

	cands := m.gatherCandidates(event)
	winners := m.resolveConflicts(cands)
	sort.Slice(winners, func(i, j int) bool { return winners[i].tid < winners[j].tid })

	for _, c := range winners {
		if ferr := m.fire(c, event); ferr != nil {
			return ferr
		}
	}
	return nil
}

// gatherCandidates walks the precedence chain from event down through its
// bases, collecting transitions bound to each whose source is active and
// whose guard passes, skipping guard evaluation for a transition id
// already memoized this broadcast (spec invariant 5). A guard panic
// aborts only this broadcast (spec §7), recovered here and logged.
func (m *Machine) gatherCandidates(event *primitives.Event) (cands []candidate) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Printf("chsm: guard panic during broadcast of %q, aborting broadcast: %v", event.Name, r)
			cands = nil
		}
	}()

	for eid := event.ID; eid != primitives.NoEvent; eid = m.events[eid].BaseEventID {
		for _, tid := range m.eventIndex[eid] {
			t := &m.transitions[tid]
			if !m.states[t.FromStateID].Active {
				continue
			}
			ok, cached := event.CachedGuard(tid)
			if !cached {
				ok = m.runner.EvalCondition(t.Condition, event)
				event.MemoGuard(tid, ok)
			}
			if !ok {
				continue
			}
			target := primitives.NoState
			if t.Target.Kind != primitives.TargetInternal {
				target = t.Target.Resolve(event)
			}
			cands = append(cands, candidate{tid: tid, from: t.FromStateID, target: target})
		}
	}
	return cands
}

// fire executes one winning transition: exit phase, transition action,
// entry phase (spec §4.1 step 5).
func (m *Machine) fire(c candidate, event *primitives.Event) error {
	t := &m.transitions[c.tid]

	if t.Target.Kind == primitives.TargetInternal {
		m.tracer.TransitionSelected(m.states[c.from].Name, event.Name, "<internal>")
		if err := m.runner.RunAction(t.Action, event); err != nil {
			return &UserCallbackError{Phase: "action", Cause: err}
		}
		return nil
	}

	if c.target < 0 || int(c.target) >= len(m.states) {
		m.logger.Printf("chsm: %v: transition %d from %q targets invalid state %d, treating as internal",
			ErrInvalidTarget, c.tid, m.states[c.from].Name, c.target)
		return m.runner.RunAction(t.Action, event)
	}

	m.tracer.TransitionSelected(m.states[c.from].Name, event.Name, m.states[c.target].Name)

	lca := m.lca(c.from, c.target)
	// When the target is the source itself or a proper ancestor of it, the
	// plain LCA computation returns the target itself, which would leave
	// the target's own exit/re-entry out of scope. Per spec.md's resolution
	// of this open question, such a transition always exits and re-enters
	// the target, so bump the transition's domain one level above it.
	if lca == c.target {
		lca = m.states[lca].ParentID
	}
	// exitState is already recursive (post-order over active children), so
	// the exit phase is a single call on the source-side child of the LCA,
	// not a manual walk up the ancestor chain. The manual walk would exit
	// ancestors before their active descendants and corrupt deep-history
	// capture, which needs descendants still marked active when it runs.
	exitRoot := c.from
	for m.states[exitRoot].ParentID != lca {
		exitRoot = m.states[exitRoot].ParentID
	}
	m.exitState(exitRoot, event)

	if err := m.runner.RunAction(t.Action, event); err != nil {
		return &UserCallbackError{Phase: "action", Cause: err}
	}
	m.tracer.TransitionAction(m.states[c.from].Name, m.states[c.target].Name)

	m.enterPath(lca, c.target, event)
	return nil
}

// exitState deactivates sid in depth-first post-order: for a cluster it
// first exits its one active child, for a set it exits all children in
// reverse declaration order, then invokes sid's own exit action and
// records history bookkeeping on its parent (spec §4.2).
func (m *Machine) exitState(sid primitives.StateID, event *primitives.Event) {
	s := &m.states[sid]
	if !s.Active {
		return
	}

	if s.Kind == primitives.KindCluster && s.History == primitives.HistoryDeep {
		m.history.record(sid, m.activeDescendantChain(sid))
	}

	switch s.Kind {
	case primitives.KindCluster:
		if s.LastChildID != primitives.NoState && m.states[s.LastChildID].Active {
			m.exitState(s.LastChildID, event)
		}
	case primitives.KindSet:
		for i := len(s.Children) - 1; i >= 0; i-- {
			m.exitState(s.Children[i], event)
		}
	}

	if s.Exit != nil {
		_ = s.Exit(event) // exit actions observe no contract-level error; panics propagate per spec §7
	}
	s.Active = false
	m.tracer.ExitAction(s.Name)

	if s.ParentID != primitives.NoState {
		p := &m.states[s.ParentID]
		if p.Kind == primitives.KindCluster {
			p.LastChildID = sid
		}
	}
}

// activeDescendantChain returns the chain of active direct children
// leading down from sid through nested clusters, used to capture deep
// history before exiting.
func (m *Machine) activeDescendantChain(sid primitives.StateID) []primitives.StateID {
	var chain []primitives.StateID
	cur := sid
	for {
		s := &m.states[cur]
		if s.Kind != primitives.KindCluster {
			break
		}
		child := s.LastChildID
		if child == primitives.NoState || !m.states[child].Active {
			break
		}
		chain = append(chain, child)
		cur = child
	}
	return chain
}

// enterPath activates, pre-order, the chain from lca (exclusive) down to
// target (inclusive), then completes the configuration below target
// (spec §4.1 step 5e).
func (m *Machine) enterPath(lca, target primitives.StateID, event *primitives.Event) {
	var chain []primitives.StateID
	for s := target; s != lca; s = m.states[s].ParentID {
		chain = append(chain, s)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	for _, sid := range chain {
		m.enterState(sid, event)
	}
	m.completeEntry(target, event)
}

// enterState activates sid, invokes its enter action, and — per spec §4.2's
// did_enter_child — records sid as its parent cluster's LastChildID so a
// later exit or history re-entry sees the child that is actually active
// rather than whichever child was last recorded on exit.
func (m *Machine) enterState(sid primitives.StateID, event *primitives.Event) {
	s := &m.states[sid]
	s.Active = true
	if s.Enter != nil {
		_ = s.Enter(event)
	}
	m.tracer.EnterAction(s.Name)

	if s.ParentID != primitives.NoState {
		p := &m.states[s.ParentID]
		if p.Kind == primitives.KindCluster {
			p.LastChildID = sid
		}
	}
}

// completeEntry finishes entering sid according to its Kind: a leaf needs
// nothing more; a cluster enters its initial or history child; a set
// enters all children (spec §4.2).
func (m *Machine) completeEntry(sid primitives.StateID, event *primitives.Event) {
	s := &m.states[sid]
	switch s.Kind {
	case primitives.KindLeaf:
		return
	case primitives.KindSet:
		for _, c := range s.Children {
			m.enterState(c, event)
			m.completeEntry(c, event)
		}
	case primitives.KindCluster:
		if s.History == primitives.HistoryDeep {
			if chain, ok := m.history.restore(sid); ok && len(chain) > 0 {
				m.tracer.HistoryRestore(s.Name, m.states[chain[0]].Name, true)
				last := chain[len(chain)-1]
				for _, c := range chain {
					m.enterState(c, event)
				}
				m.completeEntry(last, event)
				return
			}
		}
		child := s.LastChildID
		switch {
		case s.History == primitives.HistoryShallow && child != primitives.NoState:
			m.tracer.HistoryRestore(s.Name, m.states[child].Name, false)
		case len(s.Children) > 0:
			child = s.Children[0]
		default:
			panic(fmt.Sprintf("chsm: cluster %q has no children", s.Name))
		}
		m.enterState(child, event)
		m.completeEntry(child, event)
	}
}
