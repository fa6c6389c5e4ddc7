package sim

import "fmt"

// Event is a status notification emitted by a run. Events flow one way, from
// the engine to whatever presentation layer is attached through an EventSink.
type Event interface {
	// Type is a stable, lowercase name for the event kind.
	Type() string
}

// ArrivalStatus is the lifecycle stage reported for an arrival.
type ArrivalStatus string

const (
	StatusArrived        ArrivalStatus = "ARRIVED"
	StatusWaitingForSlot ArrivalStatus = "WAITING_FOR_SLOT"
	StatusInQueue        ArrivalStatus = "IN_QUEUE"
	StatusAtBay          ArrivalStatus = "AT_BAY"
	StatusServicing      ArrivalStatus = "SERVICING"
	StatusFinished       ArrivalStatus = "FINISHED"
)

// ArrivalStatusChanged reports an arrival moving to a new stage.
// BayID is set for AT_BAY and SERVICING, zero otherwise.
type ArrivalStatusChanged struct {
	ArrivalID int           `json:"arrival_id"`
	Status    ArrivalStatus `json:"status"`
	BayID     int           `json:"bay_id,omitempty"`
}

func (ArrivalStatusChanged) Type() string { return "arrival_status" }

func (e ArrivalStatusChanged) String() string {
	if e.BayID != 0 {
		return fmt.Sprintf("arrival %d %s(%d)", e.ArrivalID, e.Status, e.BayID)
	}
	return fmt.Sprintf("arrival %d %s", e.ArrivalID, e.Status)
}

// QueueChanged carries the queue contents, front first, after a mutation.
type QueueChanged struct {
	Contents []int `json:"contents"`
}

func (QueueChanged) Type() string { return "queue" }

// BayStatusChanged reports a bay becoming occupied or free.
// ArrivalID is zero when the bay is free.
type BayStatusChanged struct {
	BayID     int  `json:"bay_id"`
	ArrivalID int  `json:"arrival_id,omitempty"`
	Occupied  bool `json:"occupied"`
}

func (BayStatusChanged) Type() string { return "bay_status" }

// BayProgressChanged reports service progress in a bay, in 10% steps.
type BayProgressChanged struct {
	BayID   int `json:"bay_id"`
	Percent int `json:"percent"`
}

func (BayProgressChanged) Type() string { return "bay_progress" }

// LogEvent is a human-readable narration line.
type LogEvent struct {
	Message string `json:"message"`
}

func (LogEvent) Type() string { return "log" }

// Completed fires once when a run reaches quiescence after its last arrival.
type Completed struct{}

func (Completed) Type() string { return "completed" }

// RunStateChanged reports a controller state transition.
type RunStateChanged struct {
	State RunState `json:"state"`
}

func (RunStateChanged) Type() string { return "run_state" }
