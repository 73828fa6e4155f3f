// Package core implements the CHSM dispatch engine: the arena of states,
// events and transitions, the event queue, and the microstep/macrostep
// algorithm described in spec.md §4.1. It is grounded on the teacher's
// internal/core/machine.go (functional-options Machine, mutex-guarded
// event loop, precomputed caches) redesigned around dense integer ids
// per spec.md §9's arena re-architecture note.
package core

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/paul-j-lucas/chsm-sub001/internal/actions"
	"github.com/paul-j-lucas/chsm-sub001/internal/lock"
	"github.com/paul-j-lucas/chsm-sub001/internal/primitives"
)

// queuedEvent is one FIFO entry: an event id plus the parameter block
// supplied at Queue time (spec §4.3: payload lifetime is guaranteed from
// Queue to the end of the enclosing macrostep by copying it in here).
type queuedEvent struct {
	eventID primitives.EventID
	params  any
}

// Machine is the root orchestrator (spec §2, §4.1): it owns the state
// table, transition table, and event queue, and runs the microstep loop.
type Machine struct {
	states      []primitives.State
	events      []primitives.Event
	transitions []primitives.Transition
	depth       []int
	// eventIndex[eid] lists the transitions declared directly against
	// that event id, in declaration order (spec §6 assembly contract).
	eventIndex map[primitives.EventID][]primitives.TransitionID

	root primitives.StateID

	queue      []queuedEvent
	inProgress bool
	active     bool
	// qmu guards queue/inProgress bookkeeping only (append/pop, the
	// inProgress flag) in multithreaded mode. Its critical sections never
	// call user code, so it is always safe to acquire — unlike scope, it
	// is never held across an action/condition callback and so can never
	// deadlock against a reentrant call from one.
	qmu sync.Mutex

	tracer  *Tracer
	runner  actions.Runner
	logger  *log.Logger
	history *historyManager

	// scope is nil in single-threaded cooperative mode (spec §5 default);
	// non-nil in optional multithreaded mode, serialising Enter/Exit against
	// the dispatch loop's body. Besides Enter/Exit/Active/IsStateActive, it
	// is only ever acquired by the one goroutine that qmu+inProgress has
	// just confirmed is the sole active dispatcher (see enqueue/dispatch
	// below), so the dispatch loop's Lock on it never deadlocks against an
	// action callback it runs calling Queue reentrantly:
	// the reentrant call sees inProgress already true under qmu and returns
	// without going near scope at all.
	scope *lock.Scope
}

// Option configures a Machine at construction time.
type Option func(*Machine)

// WithTracer enables debug tracing (spec §6) to the given Tracer.
func WithTracer(t *Tracer) Option {
	return func(m *Machine) { m.tracer = t }
}

// WithRunner overrides how action/condition callbacks are invoked (e.g.
// to add logging); see internal/actions.
func WithRunner(r actions.Runner) Option {
	return func(m *Machine) { m.runner = r }
}

// WithLogger sets the logger used for non-fatal diagnostics (InvalidTarget,
// recovered guard panics).
func WithLogger(l *log.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithMultithreaded enables the optional multithreaded dispatcher (spec
// §4.5/§5): Enter/Exit/Queue/Run are serialised through a scoped mutex
// with deferred-cancellation semantics.
func WithMultithreaded() Option {
	return func(m *Machine) { m.scope = &lock.Scope{} }
}

// New constructs a Machine from an already-validated arena. Callers
// normally go through internal/assembly.Build rather than calling this
// directly.
func New(states []primitives.State, events []primitives.Event, transitions []primitives.Transition, root primitives.StateID, opts ...Option) *Machine {
	m := &Machine{
		states:      states,
		events:      events,
		transitions: transitions,
		root:        root,
		eventIndex:  make(map[primitives.EventID][]primitives.TransitionID),
		runner:      actions.Default{},
		logger:      log.Default(),
		history:     newHistoryManager(),
	}
	for i := range transitions {
		t := &transitions[i]
		m.eventIndex[t.EventID] = append(m.eventIndex[t.EventID], t.ID)
	}
	m.depth = make([]int, len(states))
	for i := range states {
		d := 0
		for p := states[i].ParentID; p != primitives.NoState; p = states[p].ParentID {
			d++
		}
		m.depth[i] = d
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.tracer == nil {
		m.tracer = NewTracer(nil)
	}
	return m
}

func (m *Machine) acquire(ctx context.Context) lock.Release {
	if m.scope == nil {
		return func() error {
			if ctx == nil {
				return nil
			}
			return ctx.Err()
		}
	}
	return m.scope.Lock(ctx)
}

// isActive and setActive go through qmu so that the multithreaded Queue
// path (which never holds scope while it only appends to the queue of an
// already-dispatching machine) still sees a consistent active flag
// instead of racing with Enter/Exit, which set it while holding scope.
func (m *Machine) isActive() bool {
	m.qmu.Lock()
	defer m.qmu.Unlock()
	return m.active
}

func (m *Machine) setActive(v bool) {
	m.qmu.Lock()
	m.active = v
	m.qmu.Unlock()
}

// Enter places the root cluster in the active configuration (spec §4.1).
func (m *Machine) Enter(ctx context.Context) error {
	release := m.acquire(ctx)
	defer release()

	if m.isActive() {
		return ErrAlreadyActive
	}
	m.setActive(true)
	seed := &primitives.Event{ID: primitives.NoEvent, Name: "<enter>"}
	m.enterState(m.root, seed)
	m.completeEntry(m.root, seed)
	return nil
}

// Exit deactivates the entire hierarchy in post-order, invoking exit
// actions; idempotent once inactive (spec §4.1).
func (m *Machine) Exit(ctx context.Context) error {
	release := m.acquire(ctx)
	defer release()

	if !m.isActive() {
		return nil
	}
	seed := &primitives.Event{ID: primitives.NoEvent, Name: "<exit>"}
	m.exitState(m.root, seed)
	m.setActive(false)
	m.qmu.Lock()
	m.queue = nil
	m.qmu.Unlock()
	return nil
}

// Active reports whether the machine is currently entered.
func (m *Machine) Active(ctx context.Context) bool {
	release := m.acquire(ctx)
	defer release()
	return m.isActive()
}

// IsStateActive reports whether the given state id is in the active
// configuration.
func (m *Machine) IsStateActive(ctx context.Context, id primitives.StateID) bool {
	release := m.acquire(ctx)
	defer release()
	if id < 0 || int(id) >= len(m.states) {
		return false
	}
	return m.states[id].Active
}

// Queue appends an event to the FIFO queue; if the machine is not
// already dispatching it runs the loop itself, otherwise it returns
// immediately and the active dispatcher drains it (spec §4.1).
func (m *Machine) Queue(ctx context.Context, eventID primitives.EventID, params any) error {
	if int(eventID) < 0 || int(eventID) >= len(m.events) {
		return fmt.Errorf("%w: %d", ErrUnknownEvent, eventID)
	}

	iAmDispatcher, err := m.enqueue(eventID, params)
	if err != nil {
		return err
	}
	if !iAmDispatcher {
		return nil
	}
	return m.dispatch(ctx)
}

// enqueue appends to the queue and reports whether the caller must drive
// the dispatch loop itself. The append and the inProgress check-and-set
// happen atomically under qmu, so there is exactly one dispatcher at a
// time and no window in which an appended event is seen by nobody: either
// inProgress is already true and the active dispatcher's next queue check
// is guaranteed to observe this append (it too goes through qmu), or it is
// false and this call claims dispatcher status itself before releasing
// qmu. This also makes a reentrant call from an action callback mid-
// broadcast safe — it always finds inProgress already true and returns
// without ever touching scope.
func (m *Machine) enqueue(eventID primitives.EventID, params any) (iAmDispatcher bool, err error) {
	m.qmu.Lock()
	defer m.qmu.Unlock()
	if !m.active {
		return false, ErrNotActive
	}
	m.queue = append(m.queue, queuedEvent{eventID: eventID, params: params})
	if m.inProgress {
		return false, nil
	}
	m.inProgress = true
	return true, nil
}

// Run drains the queue to quiescence. It is a no-op if the machine is
// inactive or already dispatching (spec §4.1: run() is not reentrant).
func (m *Machine) Run(ctx context.Context) error {
	m.qmu.Lock()
	if !m.active || m.inProgress {
		m.qmu.Unlock()
		return nil
	}
	m.inProgress = true
	m.qmu.Unlock()
	return m.dispatch(ctx)
}

// dispatch runs the microstep/macrostep loop under scope (if any), for
// cancellation-safe mutual exclusion against Enter/Exit. It is only ever
// called by the single goroutine enqueue/Run just confirmed as the sole
// dispatcher, so this Lock can never contend with itself and can't
// deadlock against a reentrant Queue call from an action callback.
func (m *Machine) dispatch(ctx context.Context) error {
	release := m.acquire(ctx)
	defer func() {
		if err := release(); err != nil && m.logger != nil {
			m.logger.Printf("chsm: dispatch: context error after release: %v", err)
		}
	}()
	return m.runLocked()
}

// runLocked is the microstep/macrostep loop. Caller must already hold
// dispatcher status (see enqueue/Run) and m.scope, if any. Each queue pop,
// and the final empty check that relinquishes dispatcher status, happens
// under qmu so a concurrent enqueue can never race past a dispatcher that
// is about to stop.
func (m *Machine) runLocked() error {
	for {
		m.qmu.Lock()
		if len(m.queue) == 0 {
			m.inProgress = false
			m.qmu.Unlock()
			return nil
		}
		qe := m.queue[0]
		m.queue = m.queue[1:]
		m.qmu.Unlock()

		if err := m.broadcast(qe); err != nil {
			m.qmu.Lock()
			m.inProgress = false
			m.qmu.Unlock()
			return err
		}
	}
}
