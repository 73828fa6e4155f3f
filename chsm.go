// Package chsm is the public façade of the CHSM runtime: a fluent Builder
// for assembling a state hierarchy by name, and a Machine wrapping the
// dense-id dispatch core so callers never see a StateID/EventID directly.
//
// Grounded on the teacher's root statechart.go (Runtime: mutex-guarded
// Start/Stop/SendEvent over a name-addressed State tree) and builder.go
// (fluent MachineBuilder), re-expressed over internal/core's arena engine.
package chsm

import (
	"context"
	"fmt"
	"sort"

	"github.com/paul-j-lucas/chsm-sub001/internal/assembly"
	"github.com/paul-j-lucas/chsm-sub001/internal/core"
	"github.com/paul-j-lucas/chsm-sub001/internal/primitives"
)

// Action is a user-supplied enter/exit/transition-action callback. params
// is whatever was passed to Machine.Queue for the event being processed.
type Action func(params any) error

// Guard is a user-supplied transition condition callback.
type Guard func(params any) bool

// StateKind selects a state's composition: Leaf (no children), Cluster
// (exclusive-or, exactly one active child), or Set (and, all children
// active concurrently).
type StateKind = assembly.StateKind

const (
	Leaf    = assembly.Leaf
	Cluster = assembly.Cluster
	Set     = assembly.Set
)

// History selects a Cluster's re-entry behaviour on completeEntry.
type History = assembly.History

const (
	HistoryNone    = assembly.HistoryNone
	HistoryShallow = assembly.HistoryShallow
	HistoryDeep    = assembly.HistoryDeep
)

// Re-exported error sentinels (spec §7); callers match with errors.Is.
var (
	ErrNotActive     = core.ErrNotActive
	ErrAlreadyActive = core.ErrAlreadyActive
	ErrUnknownEvent  = core.ErrUnknownEvent
	ErrInvalidTarget = core.ErrInvalidTarget
)

// Machine is a name-addressed wrapper around internal/core.Machine.
type Machine struct {
	inner    *core.Machine
	eventIDs map[string]primitives.EventID
	stateIDs map[string]primitives.StateID
}

// Enter places the root cluster in the active configuration.
func (m *Machine) Enter(ctx context.Context) error { return m.inner.Enter(ctx) }

// Exit deactivates the entire hierarchy.
func (m *Machine) Exit(ctx context.Context) error { return m.inner.Exit(ctx) }

// Active reports whether the machine is currently entered.
func (m *Machine) Active(ctx context.Context) bool { return m.inner.Active(ctx) }

// Run drains the event queue to quiescence; a no-op if inactive or already
// dispatching.
func (m *Machine) Run(ctx context.Context) error { return m.inner.Run(ctx) }

// Queue looks up eventName and appends it to the event queue with params,
// running the dispatch loop if it is not already in progress.
func (m *Machine) Queue(ctx context.Context, eventName string, params any) error {
	id, ok := m.eventIDs[eventName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, eventName)
	}
	return m.inner.Queue(ctx, id, params)
}

// IsActive reports whether the named state is in the active configuration.
// An unknown name is reported inactive.
func (m *Machine) IsActive(ctx context.Context, stateName string) bool {
	id, ok := m.stateIDs[stateName]
	if !ok {
		return false
	}
	return m.inner.IsStateActive(ctx, id)
}

// ActiveStates returns the names of every currently active state, in id
// (declaration) order.
func (m *Machine) ActiveStates(ctx context.Context) []string {
	var names []string
	for name, id := range m.stateIDs {
		if m.inner.IsStateActive(ctx, id) {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool { return m.stateIDs[names[i]] < m.stateIDs[names[j]] })
	return names
}

// Diagram renders the machine's state hierarchy as PlantUML (see
// internal/core/diagram.go; supplemented per SPEC_FULL.md §6).
func (m *Machine) Diagram() string { return core.Diagram(m.inner) }
