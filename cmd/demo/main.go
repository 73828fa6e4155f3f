package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paul-j-lucas/chsm-sub001"
	"github.com/paul-j-lucas/chsm-sub001/internal/core"
)

// A three-state traffic light, run through a fixed number of TIMER ticks
// with the tracer attached so the transition log prints to stdout.
func main() {
	b := chsm.New("traffic-light", "traffic")
	traffic := b.Root().AsKind(chsm.Cluster)
	traffic.State("red").Transition("TIMER", "green")
	traffic.State("green").Transition("TIMER", "yellow")
	traffic.State("yellow").Transition("TIMER", "red")
	b.Event("TIMER")

	m, err := b.Build(core.WithTracer(core.NewTracer(os.Stdout)))
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	if err := m.Enter(ctx); err != nil {
		panic(err)
	}
	defer m.Exit(ctx)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for cycles := 0; ; {
		select {
		case <-ticker.C:
			if err := m.Queue(ctx, "TIMER", nil); err != nil {
				fmt.Printf("queue error: %v\n", err)
			}
			cycles++
			fmt.Printf("--- cycle %d: active = %v ---\n", cycles, m.ActiveStates(ctx))
			if cycles >= 12 {
				fmt.Println("demo complete after 12 cycles")
				return
			}
		case <-sig:
			fmt.Println("shutting down")
			return
		}
	}
}
