package sim

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recordedEvent is an event with the instant it was emitted.
type recordedEvent struct {
	At    time.Time
	Event Event
}

// recorder is a synchronous EventSink that keeps every event in emission
// order. An optional hook runs inside Emit (used to inject faults).
type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
	hook   func(Event)
}

func (r *recorder) Emit(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, recordedEvent{At: time.Now(), Event: ev})
	hook := r.hook
	r.mu.Unlock()
	if hook != nil {
		hook(ev)
	}
}

func (r *recorder) all() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent(nil), r.events...)
}

// count returns how many recorded events satisfy pred.
func (r *recorder) count(pred func(Event) bool) int {
	n := 0
	for _, e := range r.all() {
		if pred(e.Event) {
			n++
		}
	}
	return n
}

// arrivalsWith returns arrival IDs, in emission order, that reached status.
func (r *recorder) arrivalsWith(status ArrivalStatus) []int {
	var ids []int
	for _, e := range r.all() {
		if a, ok := e.Event.(ArrivalStatusChanged); ok && a.Status == status {
			ids = append(ids, a.ArrivalID)
		}
	}
	return ids
}

func isType[T Event](ev Event) bool {
	_, ok := ev.(T)
	return ok
}

// fastTiming shrinks every wait so a full run takes a few hundred
// milliseconds. At speed 1 a service lasts 2 × base.
func fastTiming(base time.Duration) Timing {
	return Timing{
		BaseService:         base,
		StepFloor:           time.Millisecond,
		BaseArrivalInterval: 10 * time.Millisecond,
		MinArrivalInterval:  time.Millisecond,
		CompletionPoll:      5 * time.Millisecond,
		CompletionGrace:     10 * time.Millisecond,
	}
}

func fastConfig(capacity, bays, arrivals int) Config {
	return Config{
		WaitingCapacity: capacity,
		BayCount:        bays,
		TotalArrivals:   arrivals,
		Timing:          fastTiming(20 * time.Millisecond),
		TraceLevel:      "services",
	}
}

// waitDone waits for the controller's current run to tear down.
func waitDone(t *testing.T, c *Controller, timeout time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	require.NoError(t, c.Wait(ctx), "run did not tear down within %v", timeout)
}

// requirePermitInvariants checks the bounded-buffer accounting of a quiet run.
func requirePermitInvariants(t *testing.T, r *run) {
	t.Helper()
	qlen := r.queue.Len()
	require.Equal(t, r.cfg.WaitingCapacity, r.emptySlots.Permits()+qlen, "emptySlots + queue length")
	require.Equal(t, qlen, r.filledSlots.Permits(), "filledSlots")
	require.Equal(t, 1, r.queueMutex.Permits(), "queueMutex")
	require.Equal(t, r.cfg.BayCount, r.baySlots.Permits(), "baySlots")
}
