// Package trace provides run-trace recording for service-station simulations.
// This package has no dependencies on sim/; it stores pure data types.
package trace

import "time"

// ServiceRecord captures one arrival's passage through a bay.
type ServiceRecord struct {
	ArrivalID  int
	BayID      int
	EnqueuedAt time.Time
	DequeuedAt time.Time
	StartedAt  time.Time // zero if the run stopped before service began
	FinishedAt time.Time // zero if the service was aborted
}

// Completed reports whether the service ran to 100%.
func (r ServiceRecord) Completed() bool {
	return !r.FinishedAt.IsZero()
}

// Wait is the time spent in the queue.
func (r ServiceRecord) Wait() time.Duration {
	return r.DequeuedAt.Sub(r.EnqueuedAt)
}

// Duration is the service time; zero for aborted services.
func (r ServiceRecord) Duration() time.Duration {
	if !r.Completed() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// QueueSample captures the queue length right after a mutation.
type QueueSample struct {
	At     time.Time
	Length int
}
