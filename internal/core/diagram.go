package core

import (
	"bytes"
	"fmt"

	"github.com/paul-j-lucas/chsm-sub001/internal/primitives"
)

// Diagram renders m's state hierarchy and transition table as PlantUML
// state-diagram source (SPEC_FULL.md §6: a debugging aid with no effect on
// dispatch semantics, grounded on the teacher's production.Visualizer
// ExportDOT). Active states are marked so the diagram doubles as a
// point-in-time configuration snapshot. Composition kind (Cluster/Set) is
// noted textually since PlantUML has no native AND-state keyword.
func Diagram(m *Machine) string {
	var buf bytes.Buffer
	buf.WriteString("@startuml\n")

	for i := range m.states {
		s := &m.states[i]
		parent := "(root)"
		if s.ParentID != primitives.NoState {
			parent = m.states[s.ParentID].Name
		}
		fmt.Fprintf(&buf, "state %q as %s\n", fmt.Sprintf("%s [%s]", s.Name, s.Kind), s.Name)
		if s.ParentID != primitives.NoState {
			fmt.Fprintf(&buf, "%s --> %s : [contains]\n", parent, s.Name)
		}
		if s.Active {
			fmt.Fprintf(&buf, "note right of %s : active\n", s.Name)
		}
	}

	for i := range m.transitions {
		t := &m.transitions[i]
		from := m.states[t.FromStateID].Name
		to := "[internal]"
		switch t.Target.Kind {
		case primitives.TargetStatic:
			to = m.states[t.Target.Static].Name
		case primitives.TargetDynamic:
			to = "[dynamic]"
		}
		fmt.Fprintf(&buf, "%s --> %s : %s\n", from, to, m.events[t.EventID].Name)
	}

	buf.WriteString("@enduml\n")
	return buf.String()
}
