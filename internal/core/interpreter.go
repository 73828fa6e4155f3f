package core

import "github.com/paul-j-lucas/chsm-sub001/internal/primitives"

// depthOf returns a state's distance from the root (root itself is depth 0).
func (m *Machine) depthOf(id primitives.StateID) int {
	return m.depth[id]
}

// ancestors returns id and every proper ancestor of id, root-first.
func (m *Machine) ancestors(id primitives.StateID) []primitives.StateID {
	var chain []primitives.StateID
	for s := id; s != primitives.NoState; s = m.states[s].ParentID {
		chain = append(chain, s)
	}
	// reverse to root-first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// lca returns the least common ancestor of a and b by walking both
// ancestor chains from the root down until they diverge (spec §3 LCA).
func (m *Machine) lca(a, b primitives.StateID) primitives.StateID {
	ca, cb := m.ancestors(a), m.ancestors(b)
	common := primitives.NoState
	for i := 0; i < len(ca) && i < len(cb); i++ {
		if ca[i] != cb[i] {
			break
		}
		common = ca[i]
	}
	return common
}

// isAncestorOrSelf reports whether a is b or a proper ancestor of b.
func (m *Machine) isAncestorOrSelf(a, b primitives.StateID) bool {
	for s := b; s != primitives.NoState; s = m.states[s].ParentID {
		if s == a {
			return true
		}
	}
	return false
}

// candidate is a guard-passed transition awaiting conflict resolution.
type candidate struct {
	tid    primitives.TransitionID
	from   primitives.StateID
	target primitives.StateID // resolved; NoState for internal transitions
}

// resolveConflicts drops candidates whose exit scope overlaps another
// candidate's, keeping the one with the deepest (innermost) source state;
// ties are broken by the lower transition id, i.e. declaration order
// (spec §4.1 step 4).
func (m *Machine) resolveConflicts(cands []candidate) []candidate {
	dropped := make([]bool, len(cands))
	for i := range cands {
		if dropped[i] {
			continue
		}
		for j := i + 1; j < len(cands); j++ {
			if dropped[j] {
				continue
			}
			if !m.conflicts(cands[i], cands[j]) {
				continue
			}
			if m.better(cands[i], cands[j]) {
				dropped[j] = true
				continue
			}
			dropped[i] = true
			break
		}
	}
	winners := make([]candidate, 0, len(cands))
	for i, c := range cands {
		if !dropped[i] {
			winners = append(winners, c)
		}
	}
	return winners
}

// conflicts reports whether firing both a and b would require exiting
// overlapping states: true when one source is an ancestor-or-self of the
// other (orthogonal Set regions never conflict, since neither source is
// an ancestor of the other).
func (m *Machine) conflicts(a, b candidate) bool {
	return m.isAncestorOrSelf(a.from, b.from) || m.isAncestorOrSelf(b.from, a.from)
}

// better reports whether a should win a conflict against b: deepest
// source wins, ties broken by lower (earlier-declared) transition id.
func (m *Machine) better(a, b candidate) bool {
	da, db := m.depthOf(a.from), m.depthOf(b.from)
	if da != db {
		return da > db
	}
	return a.tid < b.tid
}
