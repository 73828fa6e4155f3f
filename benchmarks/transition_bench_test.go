// Package benchmarks measures dispatch-core throughput for the two
// transition shapes spec.md's dense-id arena redesign is meant to make
// cheap: a self-loop and a two-leaf toggle.
//
// Grounded on the teacher's benchmarks/{throughput,transition}_bench_test.go
// (same self-loop / toggle config shapes, b.ResetTimer/b.ReportAllocs
// style), re-expressed over chsm.Builder instead of primitives.MachineConfig.
package benchmarks

import (
	"context"
	"testing"

	"github.com/paul-j-lucas/chsm-sub001"
)

func buildSelfLoop(b *testing.B) *chsm.Machine {
	bldr := chsm.New("self-loop", "root")
	bldr.Root().AsKind(chsm.Cluster).State("idle").Transition("tick", "idle")
	bldr.Event("tick")
	m, err := bldr.Build()
	if err != nil {
		b.Fatalf("Build: %v", err)
	}
	return m
}

func BenchmarkSelfTransition(b *testing.B) {
	m := buildSelfLoop(b)
	ctx := context.Background()
	if err := m.Enter(ctx); err != nil {
		b.Fatal(err)
	}
	defer m.Exit(ctx)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := m.Queue(ctx, "tick", nil); err != nil {
			b.Fatal(err)
		}
	}
}

func buildToggle(b *testing.B) *chsm.Machine {
	bldr := chsm.New("toggle", "root")
	root := bldr.Root().AsKind(chsm.Cluster)
	root.State("leaf1").Transition("tick", "leaf2")
	root.State("leaf2").Transition("tick", "leaf1")
	bldr.Event("tick")
	m, err := bldr.Build()
	if err != nil {
		b.Fatalf("Build: %v", err)
	}
	return m
}

func BenchmarkHierarchicalToggle(b *testing.B) {
	m := buildToggle(b)
	ctx := context.Background()
	if err := m.Enter(ctx); err != nil {
		b.Fatal(err)
	}
	defer m.Exit(ctx)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := m.Queue(ctx, "tick", nil); err != nil {
			b.Fatal(err)
		}
	}
}
