package assembly

import (
	"fmt"

	"github.com/paul-j-lucas/chsm-sub001/internal/core"
	"github.com/paul-j-lucas/chsm-sub001/internal/primitives"
)

// Build validates spec and compiles it into a dense-id arena, returning a
// ready-to-Enter core.Machine. This is the concrete realization of spec.md
// §6's "generated initializer must provide, in one atomic construction":
// here, the compiler front-end's output is a Spec value rather than
// hand-written construction calls, but the guarantee is the same, either
// Build fully succeeds or no Machine is returned.
func Build(spec Spec, opts ...core.Option) (*core.Machine, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	b := &builder{
		stateIDs: make(map[string]primitives.StateID),
		eventIDs: make(map[string]primitives.EventID),
	}
	b.collectStates(&spec.Root, primitives.NoState)

	for i, e := range spec.Events {
		b.eventIDs[e.Name] = primitives.EventID(i)
	}
	events := make([]primitives.Event, len(spec.Events))
	for i, e := range spec.Events {
		base := primitives.NoEvent
		if e.Base != "" {
			base = b.eventIDs[e.Base]
		}
		events[i] = primitives.Event{ID: primitives.EventID(i), Name: e.Name, BaseEventID: base}
	}
	for i := range events {
		events[i].Precedence = precedenceOf(events, primitives.EventID(i))
	}

	transitions := make([]primitives.Transition, len(spec.Transitions))
	for i, t := range spec.Transitions {
		target := primitives.Target{}
		switch t.Target {
		case TargetStatic:
			target = primitives.Target{Kind: primitives.TargetStatic, Static: b.stateIDs[t.To]}
		case TargetDynamic:
			dyn := t.Dynamic
			target = primitives.Target{Kind: primitives.TargetDynamic, Dynamic: func(e *primitives.Event) primitives.StateID {
				name, ok := dyn(e.Params)
				if !ok {
					return primitives.NoState
				}
				id, ok := b.stateIDs[name]
				if !ok {
					return primitives.NoState
				}
				return id
			}}
		}

		transitions[i] = primitives.Transition{
			ID:          primitives.TransitionID(i),
			EventID:     b.eventIDs[t.Event],
			FromStateID: b.stateIDs[t.From],
			Target:      target,
			Condition:   wrapGuard(t.Condition),
			Action:      wrapAction(t.Action),
		}
	}

	return core.New(b.states, events, transitions, primitives.StateID(0), opts...), nil
}

// builder accumulates the dense arena while walking the named StateSpec
// tree in declaration order (pre-order): the root always gets id 0.
type builder struct {
	states   []primitives.State
	stateIDs map[string]primitives.StateID
	eventIDs map[string]primitives.EventID
}

func (b *builder) collectStates(s *StateSpec, parent primitives.StateID) primitives.StateID {
	id := primitives.StateID(len(b.states))
	b.states = append(b.states, primitives.State{
		ID:       id,
		Name:     s.Name,
		ParentID: parent,
		Kind:     kindOf(s.Kind),
		History:  historyOf(s.History),
		Enter:    wrapAction(s.Enter),
		Exit:     wrapAction(s.Exit),
	})
	b.stateIDs[s.Name] = id

	children := make([]primitives.StateID, 0, len(s.Children))
	for i := range s.Children {
		children = append(children, b.collectStates(&s.Children[i], id))
	}
	b.states[id].Children = children
	if len(children) > 0 {
		b.states[id].LastChildID = children[0]
	} else {
		b.states[id].LastChildID = primitives.NoState
	}
	return id
}

// StateIDs returns the dense StateID every name in root's tree would
// receive from Build, keyed by name. It walks the identical pre-order
// (root first, then children left to right) that collectStates above uses
// when constructing the arena, so callers that only need a name->id index
// (chsm.Builder.Build, for its public-facing name-addressed API) derive it
// from this single place rather than re-deriving the assignment rule
// themselves and risking the two falling out of sync.
func StateIDs(root *StateSpec) map[string]primitives.StateID {
	ids := make(map[string]primitives.StateID)
	collectStateIDs(root, ids)
	return ids
}

func collectStateIDs(s *StateSpec, out map[string]primitives.StateID) {
	out[s.Name] = primitives.StateID(len(out))
	for i := range s.Children {
		collectStateIDs(&s.Children[i], out)
	}
}

func kindOf(k StateKind) primitives.Kind {
	switch k {
	case Cluster:
		return primitives.KindCluster
	case Set:
		return primitives.KindSet
	default:
		return primitives.KindLeaf
	}
}

func historyOf(h History) primitives.History {
	switch h {
	case HistoryShallow:
		return primitives.HistoryShallow
	case HistoryDeep:
		return primitives.HistoryDeep
	default:
		return primitives.HistoryNone
	}
}

func wrapAction(ref ActionRef) func(*primitives.Event) error {
	if ref == nil {
		return nil
	}
	return func(e *primitives.Event) error { return ref(e.Params) }
}

func wrapGuard(ref GuardRef) func(*primitives.Event) bool {
	if ref == nil {
		return nil
	}
	return func(e *primitives.Event) bool { return ref(e.Params) }
}

// precedenceOf returns an event's depth in its base-event chain, root
// bases at 0 (spec §3: "precedence equal to their depth in a base-event
// chain").
func precedenceOf(events []primitives.Event, id primitives.EventID) int {
	depth := 0
	seen := make(map[primitives.EventID]bool)
	for e := events[id]; e.BaseEventID != primitives.NoEvent; e = events[e.BaseEventID] {
		if seen[e.BaseEventID] {
			panic(fmt.Sprintf("assembly: cyclic base-event chain detected at event %q", e.Name))
		}
		seen[e.BaseEventID] = true
		depth++
	}
	return depth
}
