// Package assembly implements the machine assembly contract described in
// spec.md §6: a declarative, name-based description of states, events and
// transitions that a compiler front-end (or a human, or a YAML file) can
// produce in one atomic construction, plus the Build step that compiles it
// down into the dense-id arena internal/core.Machine expects.
//
// Grounded on the teacher's internal/primitives/{machineconfig,stateconfig,
// transitionconfig}.go (name-keyed config structs, Validate, fluent
// builders) and internal/production/persister.go (yaml.v3 (de)serialization).
package assembly

import (
	"errors"
	"fmt"
)

// StateKind mirrors primitives.Kind in the textual assembly contract.
type StateKind string

const (
	Leaf    StateKind = "leaf"
	Cluster StateKind = "cluster"
	Set     StateKind = "set"
)

// History selects a Cluster's re-entry behaviour.
type History string

const (
	HistoryNone    History = ""
	HistoryShallow History = "shallow"
	HistoryDeep    History = "deep"
)

// StateSpec is one node in the assembly contract's state tree (spec §6:
// "ordered list of states with: kind, parent id, enter/exit action, for
// clusters a history flag and child-id list, for sets a child-id list").
// Names, not ids, are the authoring surface; Build assigns dense ids in
// declaration order.
type StateSpec struct {
	Name     string      `yaml:"name"`
	Kind     StateKind   `yaml:"kind"`
	History  History     `yaml:"history,omitempty"`
	Children []StateSpec `yaml:"children,omitempty"`

	Enter ActionRef `yaml:"-"`
	Exit  ActionRef `yaml:"-"`
}

// EventSpec is one entry in the assembly contract's event list, carrying
// an optional base event for the precedence/inheritance chain (spec §4.3).
type EventSpec struct {
	Name string `yaml:"name"`
	Base string `yaml:"base,omitempty"`
}

// TargetKind distinguishes an internal transition from one with a fixed or
// dynamically-resolved target (spec §6: "none | static(to) | dynamic(cb)").
type TargetKind string

const (
	TargetInternal TargetKind = ""
	TargetStatic   TargetKind = "static"
	TargetDynamic  TargetKind = "dynamic"
)

// TransitionSpec is one transition entry: event name, source state name,
// target descriptor, optional guard and action.
type TransitionSpec struct {
	Event  string     `yaml:"event"`
	From   string     `yaml:"from"`
	Target TargetKind `yaml:"target,omitempty"`
	To     string     `yaml:"to,omitempty"`

	Condition GuardRef  `yaml:"-"`
	Action    ActionRef `yaml:"-"`
	Dynamic   func(params any) (string, bool) `yaml:"-"`
}

// ActionRef is an enter/exit/transition-action callback, opaque to assembly.
type ActionRef func(params any) error

// GuardRef is a transition condition callback, opaque to assembly.
type GuardRef func(params any) bool

// Spec is the top-level machine assembly contract: a name, a single root
// state tree, an event list, and a transition list (spec §6).
type Spec struct {
	Name        string           `yaml:"name"`
	Root        StateSpec        `yaml:"root"`
	Events      []EventSpec      `yaml:"events"`
	Transitions []TransitionSpec `yaml:"transitions"`
}

// Validate checks structural well-formedness before Build attempts to
// compile the spec into an arena: unique names, resolvable parents/targets/
// bases, and the Cluster/Set child-count and history placement rules from
// spec.md §3.
func (s *Spec) Validate() error {
	if s.Name == "" {
		return errors.New("assembly: machine name is required")
	}
	if s.Root.Name == "" {
		return errors.New("assembly: root state is required")
	}

	names := make(map[string]bool)
	if err := validateStateTree(&s.Root, names); err != nil {
		return err
	}

	eventNames := make(map[string]bool, len(s.Events))
	for _, e := range s.Events {
		if e.Name == "" {
			return errors.New("assembly: event name is required")
		}
		if eventNames[e.Name] {
			return fmt.Errorf("assembly: duplicate event %q", e.Name)
		}
		eventNames[e.Name] = true
	}
	for _, e := range s.Events {
		if e.Base != "" && !eventNames[e.Base] {
			return fmt.Errorf("assembly: event %q has unknown base %q", e.Name, e.Base)
		}
	}

	for i, t := range s.Transitions {
		if !eventNames[t.Event] {
			return fmt.Errorf("assembly: transition %d: unknown event %q", i, t.Event)
		}
		if !names[t.From] {
			return fmt.Errorf("assembly: transition %d: unknown source state %q", i, t.From)
		}
		switch t.Target {
		case TargetInternal:
		case TargetStatic:
			if !names[t.To] {
				return fmt.Errorf("assembly: transition %d: unknown target state %q", i, t.To)
			}
		case TargetDynamic:
			if t.Dynamic == nil {
				return fmt.Errorf("assembly: transition %d: dynamic target requires a resolver function", i)
			}
		default:
			return fmt.Errorf("assembly: transition %d: invalid target kind %q", i, t.Target)
		}
	}
	return nil
}

func validateStateTree(s *StateSpec, seen map[string]bool) error {
	if s.Name == "" {
		return errors.New("assembly: state name is required")
	}
	if seen[s.Name] {
		return fmt.Errorf("assembly: duplicate state name %q", s.Name)
	}
	seen[s.Name] = true

	switch s.Kind {
	case Leaf:
		if len(s.Children) > 0 {
			return fmt.Errorf("assembly: leaf state %q cannot have children", s.Name)
		}
		if s.History != HistoryNone {
			return fmt.Errorf("assembly: leaf state %q cannot declare history", s.Name)
		}
	case Cluster:
		if len(s.Children) == 0 {
			return fmt.Errorf("assembly: cluster %q requires at least one child", s.Name)
		}
	case Set:
		if len(s.Children) == 0 {
			return fmt.Errorf("assembly: set %q requires at least one child", s.Name)
		}
		if s.History != HistoryNone {
			return fmt.Errorf("assembly: set %q cannot declare history", s.Name)
		}
	default:
		return fmt.Errorf("assembly: state %q has invalid kind %q", s.Name, s.Kind)
	}

	for i := range s.Children {
		if err := validateStateTree(&s.Children[i], seen); err != nil {
			return err
		}
	}
	return nil
}
