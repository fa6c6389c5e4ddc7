package sim

import (
	"fmt"
	"sync/atomic"
)

// RunState is the controller-owned lifecycle state of a simulation.
type RunState int32

const (
	StateNotStarted RunState = iota
	StateRunning
	StatePaused
	StateStopped
	StateCompleted
)

var runStateNames = map[RunState]string{
	StateNotStarted: "NOT_STARTED",
	StateRunning:    "RUNNING",
	StatePaused:     "PAUSED",
	StateStopped:    "STOPPED",
	StateCompleted:  "COMPLETED",
}

func (s RunState) String() string {
	if name, ok := runStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("RunState(%d)", int32(s))
}

// MarshalText renders the state by name.
func (s RunState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Active reports whether a run in this state still owns live processes.
func (s RunState) Active() bool {
	return s == StateRunning || s == StatePaused
}

// WorkerState is the state of one service worker.
type WorkerState int32

const (
	WorkerReady WorkerState = iota
	WorkerServicing
	WorkerStopped
)

func (s WorkerState) String() string {
	switch s {
	case WorkerReady:
		return "READY"
	case WorkerServicing:
		return "SERVICING"
	case WorkerStopped:
		return "STOPPED"
	}
	return fmt.Sprintf("WorkerState(%d)", int32(s))
}

// MarshalText renders the state by name.
func (s WorkerState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// bayState is written only by the worker that owns the bay and read by
// anyone, hence the atomics.
type bayState struct {
	state    atomic.Int32
	arrival  atomic.Int32 // 0 when READY
	progress atomic.Int32 // valid while SERVICING
}

func (b *bayState) set(state WorkerState, arrival, progress int) {
	b.arrival.Store(int32(arrival))
	b.progress.Store(int32(progress))
	b.state.Store(int32(state))
}

func (b *bayState) load() (WorkerState, int, int) {
	return WorkerState(b.state.Load()), int(b.arrival.Load()), int(b.progress.Load())
}

// BayStatus is a point-in-time view of one bay.
type BayStatus struct {
	BayID     int         `json:"bay_id"`
	State     WorkerState `json:"state"`
	ArrivalID int         `json:"arrival_id,omitempty"`
	Progress  int         `json:"progress"`
}
