// Package lock provides a scoped critical-section primitive for the
// optional multithreaded dispatcher (spec §4.5). It is the Go analogue of
// the original CHSM runtime's mutex_lock / MUTEX_LOCK-MUTEX_UNLOCK pair
// (original_source/src/c++/lib/chsm.h, pjl_threads.h): acquiring defers
// cancellation until the critical section is released, release always
// unlocks first, and a pending cancellation is observed immediately after.
package lock

import (
	"context"
	"sync"
)

// Scope serialises enter/exit/queue/run the way the original runtime's
// pthread mutex serialised those operations, while giving Go callers a
// deterministic cancellation point instead of pthread_testcancel.
type Scope struct {
	mu sync.Mutex
}

// Release unlocks the scope and returns the context error observed right
// after unlocking, if any. The caller's critical section ran without
// observing ctx cancellation (cancellation was "deferred"); Release is
// where a pending cancellation is finally surfaced.
type Release func() error

// Lock acquires the scope unconditionally (cancellation cannot interrupt
// an in-progress acquisition any more than it could interrupt
// pthread_mutex_lock under PTHREAD_CANCEL_DEFERRED) and returns a Release
// that unlocks and then reports ctx's error, if any.
//
// The mutex is guaranteed to be unlocked by calling the returned Release;
// callers MUST defer it immediately:
//
//	release := scope.Lock(ctx)
//	defer release()
func (s *Scope) Lock(ctx context.Context) Release {
	s.mu.Lock()
	return func() error {
		s.mu.Unlock()
		if ctx == nil {
			return nil
		}
		return ctx.Err()
	}
}

// TryLock attempts to acquire the scope without blocking. It returns nil,
// false if the scope is already held.
func (s *Scope) TryLock(ctx context.Context) (Release, bool) {
	if !s.mu.TryLock() {
		return nil, false
	}
	return func() error {
		s.mu.Unlock()
		if ctx == nil {
			return nil
		}
		return ctx.Err()
	}, true
}
