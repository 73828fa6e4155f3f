// Package realtime adapts chsm's event-driven Machine to tick-based
// deterministic execution (spec §5's external-concurrent-producer model):
// producer goroutines submit events into a batch under a mutex; a single
// ticker goroutine drains and dispatches the batch once per tick, in
// submission order, rather than dispatching each event the instant it
// arrives.
//
// Grounded on the teacher's realtime/runtime.go and realtime/tick.go,
// trimmed to the batching/ticking concern itself: the teacher's SCXML
// parallel-region bookkeeping (realtime/parallel.go) has no equivalent
// here because Machine.Queue already drains to quiescence per spec §4.1,
// so a tick only needs to replay the batch, not re-implement macrostep
// completion.
package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/paul-j-lucas/chsm-sub001"
)

// ErrQueueFull is returned by Submit when a tick's batch capacity is
// exceeded before the next tick drains it.
var ErrQueueFull = errors.New("realtime: event batch full")

// Config configures a Runtime's tick rate and batch capacity.
type Config struct {
	TickRate time.Duration // default 16.667ms (60 Hz)
	BatchCap int           // default 1000
}

// Runtime ticks a *chsm.Machine at a fixed rate, replaying each tick's
// submitted events through it in submission order.
type Runtime struct {
	machine  *chsm.Machine
	tickRate time.Duration

	mu          sync.Mutex
	batch       []QueuedEvent
	batchCap    int
	sequenceNum uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRuntime wraps machine for tick-based execution. machine must already
// be built (chsm.Builder.Build) but not yet entered; Start enters it.
func NewRuntime(machine *chsm.Machine, cfg Config) *Runtime {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 16667 * time.Microsecond
	}
	if cfg.BatchCap <= 0 {
		cfg.BatchCap = 1000
	}
	return &Runtime{
		machine:  machine,
		tickRate: cfg.TickRate,
		batch:    make([]QueuedEvent, 0, cfg.BatchCap),
		batchCap: cfg.BatchCap,
	}
}

// Start enters the machine and begins the tick loop.
func (rt *Runtime) Start(ctx context.Context) error {
	if err := rt.machine.Enter(ctx); err != nil {
		return err
	}
	tickCtx, cancel := context.WithCancel(ctx)
	rt.cancel = cancel
	rt.done = make(chan struct{})
	go rt.tickLoop(tickCtx)
	return nil
}

// Stop cancels the tick loop, waits for it to exit, and exits the machine.
func (rt *Runtime) Stop(ctx context.Context) error {
	if rt.cancel != nil {
		rt.cancel()
	}
	if rt.done != nil {
		<-rt.done
	}
	return rt.machine.Exit(ctx)
}

// Submit enqueues an event for the next tick. Thread-safe; callers never
// block waiting on machine dispatch.
func (rt *Runtime) Submit(name string, params any) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if len(rt.batch) >= rt.batchCap {
		return ErrQueueFull
	}
	rt.batch = append(rt.batch, QueuedEvent{Name: name, Params: params, SequenceNum: rt.sequenceNum})
	rt.sequenceNum++
	return nil
}

func (rt *Runtime) tickLoop(ctx context.Context) {
	defer close(rt.done)
	ticker := time.NewTicker(rt.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rt.processTick(ctx)
		}
	}
}

// processTick drains the current batch and replays it through the
// machine in submission order; each Queue call runs its own macrostep
// to quiescence before the next event in the batch is dispatched.
func (rt *Runtime) processTick(ctx context.Context) {
	events := rt.collectBatch()
	for _, qe := range events {
		if err := rt.machine.Queue(ctx, qe.Name, qe.Params); err != nil {
			continue // a single bad event must not stall the rest of the tick
		}
	}
}

func (rt *Runtime) collectBatch() []QueuedEvent {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	events := rt.batch
	rt.batch = make([]QueuedEvent, 0, rt.batchCap)
	return events
}
