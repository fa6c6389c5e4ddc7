package sim

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Semaphore is a counting semaphore with a bounded, non-negative permit count.
//
// Blocking and wake-up are delegated to semaphore.Weighted, which parks waiters
// and wakes them in FIFO order. The permit count is tracked alongside so that
// callers can observe it (the bounded-buffer invariants are stated in terms of
// permits). A Semaphore may start with fewer permits than its bound; the
// difference is held back at construction and handed out by Release.
type Semaphore struct {
	name    string
	w       *semaphore.Weighted
	permits atomic.Int64
	max     int64
}

// NewSemaphore creates a semaphore named name holding initial permits, with at
// most max permits outstanding. Panics if the bounds are inconsistent.
func NewSemaphore(name string, initial, max int) *Semaphore {
	if max <= 0 || initial < 0 || initial > max {
		panic(fmt.Sprintf("NewSemaphore(%s): invalid bounds initial=%d max=%d", name, initial, max))
	}
	s := &Semaphore{
		name: name,
		w:    semaphore.NewWeighted(int64(max)),
		max:  int64(max),
	}
	if held := int64(max - initial); held > 0 {
		// Cannot block: the semaphore is fresh and held <= max.
		s.w.TryAcquire(held)
	}
	s.permits.Store(int64(initial))
	return s
}

// Acquire blocks until a permit is available and takes it. If ctx is done
// first, Acquire returns ctx.Err() and no permit is consumed.
func (s *Semaphore) Acquire(ctx context.Context) error {
	if err := s.w.Acquire(ctx, 1); err != nil {
		return err
	}
	s.permits.Add(-1)
	return nil
}

// TryAcquire takes a permit without blocking. Reports whether it succeeded.
func (s *Semaphore) TryAcquire() bool {
	if !s.w.TryAcquire(1) {
		return false
	}
	s.permits.Add(-1)
	return true
}

// Release returns one permit and wakes at most one blocked waiter.
// Releasing beyond the bound is a bookkeeping bug and panics.
func (s *Semaphore) Release() {
	if s.permits.Add(1) > s.max {
		panic(fmt.Sprintf("Semaphore(%s): released more permits than its bound %d", s.name, s.max))
	}
	s.w.Release(1)
}

// Permits returns the number of permits currently available.
func (s *Semaphore) Permits() int {
	return int(s.permits.Load())
}

// Name identifies the semaphore in log messages.
func (s *Semaphore) Name() string {
	return s.name
}

func (s *Semaphore) String() string {
	return fmt.Sprintf("%s(%d/%d)", s.name, s.Permits(), s.max)
}
