package assembly_test

import (
	"context"
	"testing"

	"github.com/paul-j-lucas/chsm-sub001/internal/assembly"
)

func validSpec() assembly.Spec {
	return assembly.Spec{
		Name: "m",
		Root: assembly.StateSpec{
			Name: "root",
			Kind: assembly.Cluster,
			Children: []assembly.StateSpec{
				{Name: "A", Kind: assembly.Leaf},
				{Name: "B", Kind: assembly.Leaf},
			},
		},
		Events: []assembly.EventSpec{{Name: "e"}},
		Transitions: []assembly.TransitionSpec{
			{Event: "e", From: "A", Target: assembly.TargetStatic, To: "B"},
		},
	}
}

func TestValidateOK(t *testing.T) {
	s := validSpec()
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateUnknownTarget(t *testing.T) {
	s := validSpec()
	s.Transitions[0].To = "nope"
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for unknown transition target")
	}
}

func TestValidateUnknownEvent(t *testing.T) {
	s := validSpec()
	s.Transitions[0].Event = "nope"
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for unknown event")
	}
}

func TestValidateDuplicateStateName(t *testing.T) {
	s := validSpec()
	s.Root.Children = append(s.Root.Children, assembly.StateSpec{Name: "A", Kind: assembly.Leaf})
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for duplicate state name")
	}
}

func TestValidateClusterRequiresChildren(t *testing.T) {
	s := validSpec()
	s.Root.Children[0] = assembly.StateSpec{Name: "A", Kind: assembly.Cluster}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for childless cluster")
	}
}

func TestValidateUnknownBaseEvent(t *testing.T) {
	s := validSpec()
	s.Events = append(s.Events, assembly.EventSpec{Name: "derived", Base: "nope"})
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for unknown base event")
	}
}

func TestBuildAssignsDenseIDsInPreOrder(t *testing.T) {
	m, err := assembly.Build(validSpec())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m == nil {
		t.Fatal("Build returned nil machine")
	}
	// Pre-order over validSpec: root=0, A=1, B=2. Entering activates root
	// and its first child A only.
	ctx := context.Background()
	if err := m.Enter(ctx); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	if !m.IsStateActive(ctx, 0) || !m.IsStateActive(ctx, 1) || m.IsStateActive(ctx, 2) {
		t.Fatal("expected ids root=0, A=1 active and B=2 inactive after Enter")
	}
}

func TestBuildRejectsInvalidSpec(t *testing.T) {
	s := validSpec()
	s.Name = ""
	if _, err := assembly.Build(s); err == nil {
		t.Fatal("expected Build to reject an invalid spec")
	}
}
