package chsm

import (
	"github.com/paul-j-lucas/chsm-sub001/internal/assembly"
	"github.com/paul-j-lucas/chsm-sub001/internal/core"
	"github.com/paul-j-lucas/chsm-sub001/internal/primitives"
)

// Builder provides a fluent API for assembling a Machine by name, mirroring
// the teacher's builder.go MachineBuilder/StateBuilder pair but building an
// assembly.Spec (and so a dense-id arena) instead of a pointer tree.
type Builder struct {
	spec assembly.Spec
}

// StateBuilder configures one state and its children. get resolves the
// live *assembly.StateSpec on every call rather than caching a raw pointer,
// because appending a later sibling to a parent's Children slice can
// reallocate that slice's backing array and strand a stale pointer.
type StateBuilder struct {
	b   *Builder
	get func() *assembly.StateSpec
}

// New starts a Builder for a machine named machineName whose root state is
// rootName, a Cluster by default (the overwhelmingly common case: a root
// is rarely a bare leaf or a top-level Set).
func New(machineName, rootName string) *Builder {
	b := &Builder{}
	b.spec.Name = machineName
	b.spec.Root = assembly.StateSpec{Name: rootName, Kind: assembly.Cluster}
	return b
}

// Root returns a StateBuilder for the root state.
func (b *Builder) Root() *StateBuilder {
	return &StateBuilder{b: b, get: func() *assembly.StateSpec { return &b.spec.Root }}
}

// Event declares an event, optionally deriving from a previously-declared
// base event (spec §3: event inheritance/precedence chain).
func (b *Builder) Event(name string, base ...string) *Builder {
	es := assembly.EventSpec{Name: name}
	if len(base) > 0 {
		es.Base = base[0]
	}
	b.spec.Events = append(b.spec.Events, es)
	return b
}

// Build compiles the accumulated spec into a ready-to-Enter Machine.
func (b *Builder) Build(opts ...core.Option) (*Machine, error) {
	inner, err := assembly.Build(b.spec, opts...)
	if err != nil {
		return nil, err
	}
	m := &Machine{
		inner:    inner,
		eventIDs: make(map[string]primitives.EventID),
		stateIDs: assembly.StateIDs(&b.spec.Root),
	}
	for i, e := range b.spec.Events {
		m.eventIDs[e.Name] = primitives.EventID(i)
	}
	return m, nil
}

// AsKind overrides this state's composition kind (default Leaf for
// children added via State, Cluster for the root).
func (s *StateBuilder) AsKind(k assembly.StateKind) *StateBuilder {
	s.get().Kind = k
	return s
}

// WithHistory marks a cluster as restoring shallow or deep history on
// re-entry (spec §3; deep history is a SPEC_FULL.md supplement).
func (s *StateBuilder) WithHistory(h assembly.History) *StateBuilder {
	s.get().History = h
	return s
}

// OnEnter attaches an enter-action callback.
func (s *StateBuilder) OnEnter(action Action) *StateBuilder {
	s.get().Enter = assembly.ActionRef(action)
	return s
}

// OnExit attaches an exit-action callback.
func (s *StateBuilder) OnExit(action Action) *StateBuilder {
	s.get().Exit = assembly.ActionRef(action)
	return s
}

// State adds a child state (Leaf by default; use AsKind to make it a
// Cluster or Set) and returns its builder for further chaining.
func (s *StateBuilder) State(name string, kind ...assembly.StateKind) *StateBuilder {
	k := assembly.Leaf
	if len(kind) > 0 {
		k = kind[0]
	}
	parent := s.get()
	parent.Children = append(parent.Children, assembly.StateSpec{Name: name, Kind: k})
	index := len(parent.Children) - 1
	parentGet := s.get
	return &StateBuilder{b: s.b, get: func() *assembly.StateSpec { return &parentGet().Children[index] }}
}

// Transition declares a transition from this state, triggered by eventName,
// to the named target state, with an optional guard and action.
func (s *StateBuilder) Transition(eventName, targetName string, opts ...TransitionOption) *StateBuilder {
	t := assembly.TransitionSpec{
		Event:  eventName,
		From:   s.get().Name,
		Target: assembly.TargetStatic,
		To:     targetName,
	}
	for _, opt := range opts {
		opt(&t)
	}
	s.b.spec.Transitions = append(s.b.spec.Transitions, t)
	return s
}

// InternalTransition declares an internal transition (action only, no
// exit/entry) from this state on eventName.
func (s *StateBuilder) InternalTransition(eventName string, action Action, opts ...TransitionOption) *StateBuilder {
	t := assembly.TransitionSpec{
		Event:  eventName,
		From:   s.get().Name,
		Target: assembly.TargetInternal,
		Action: assembly.ActionRef(action),
	}
	for _, opt := range opts {
		opt(&t)
	}
	s.b.spec.Transitions = append(s.b.spec.Transitions, t)
	return s
}

// TransitionOption refines a Transition/InternalTransition call.
type TransitionOption func(*assembly.TransitionSpec)

// WithGuard attaches a condition callback; the transition only wins
// conflict resolution when it returns true (spec §4.1 step 3).
func WithGuard(g Guard) TransitionOption {
	return func(t *assembly.TransitionSpec) { t.Condition = assembly.GuardRef(g) }
}

// WithAction attaches a transition-action callback, run between the exit
// and entry phases (spec §4.1 step 5d). InternalTransition's action
// parameter covers the common case; this is for the Transition path.
func WithAction(action Action) TransitionOption {
	return func(t *assembly.TransitionSpec) { t.Action = assembly.ActionRef(action) }
}
