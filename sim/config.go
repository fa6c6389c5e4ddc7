package sim

import (
	"fmt"
	"time"

	"github.com/station-sim/station-sim/sim/trace"
)

// Accepted configuration ranges.
const (
	MinWaitingCapacity = 1
	MaxWaitingCapacity = 10
	MinBayCount        = 1
	MaxBayCount        = 10
	MinTotalArrivals   = 1
	MaxTotalArrivals   = 50

	MinSpeedFactor     = 1
	MaxSpeedFactor     = 10
	DefaultSpeedFactor = 2

	// serviceSteps is the number of discrete progress steps in one service.
	serviceSteps = 10
)

// Timing groups every duration the engine waits for. Zero fields fall back to
// DefaultTiming; tests shrink them to milliseconds.
type Timing struct {
	BaseService         time.Duration `json:"base_service_ns"`          // nominal service time at speed 1 is 2 × BaseService
	StepFloor           time.Duration `json:"step_floor_ns"`            // lower bound for one progress step
	BaseArrivalInterval time.Duration `json:"base_arrival_interval_ns"` // inter-arrival gap at speed 1
	MinArrivalInterval  time.Duration `json:"min_arrival_interval_ns"`  // lower bound for the inter-arrival gap
	CompletionPoll      time.Duration `json:"completion_poll_ns"`       // how often the completion monitor looks at the queue
	CompletionGrace     time.Duration `json:"completion_grace_ns"`      // how long quiescence must last before completion
}

// DefaultTiming returns the wall-clock timings of an interactive run.
func DefaultTiming() Timing {
	return Timing{
		BaseService:         8 * time.Second,
		StepFloor:           200 * time.Millisecond,
		BaseArrivalInterval: 3 * time.Second,
		MinArrivalInterval:  1 * time.Second,
		CompletionPoll:      1 * time.Second,
		CompletionGrace:     2 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultTiming.
func (t Timing) withDefaults() Timing {
	d := DefaultTiming()
	if t.BaseService == 0 {
		t.BaseService = d.BaseService
	}
	if t.StepFloor == 0 {
		t.StepFloor = d.StepFloor
	}
	if t.BaseArrivalInterval == 0 {
		t.BaseArrivalInterval = d.BaseArrivalInterval
	}
	if t.MinArrivalInterval == 0 {
		t.MinArrivalInterval = d.MinArrivalInterval
	}
	if t.CompletionPoll == 0 {
		t.CompletionPoll = d.CompletionPoll
	}
	if t.CompletionGrace == 0 {
		t.CompletionGrace = d.CompletionGrace
	}
	return t
}

// ServiceStep returns the duration of one progress step for a service that
// starts at the given speed factor: max(StepFloor, (BaseService*2/speed)/10).
func (t Timing) ServiceStep(speed int) time.Duration {
	speed = clampSpeed(speed)
	step := (t.BaseService * 2 / time.Duration(speed)) / serviceSteps
	return max(t.StepFloor, step)
}

// ArrivalInterval returns the gap between two arrivals at the given speed
// factor: max(MinArrivalInterval, BaseArrivalInterval/speed).
func (t Timing) ArrivalInterval(speed int) time.Duration {
	speed = clampSpeed(speed)
	return max(t.MinArrivalInterval, t.BaseArrivalInterval/time.Duration(speed))
}

// Config is the per-run configuration. It is copied at Start and immutable
// for the lifetime of the run.
type Config struct {
	WaitingCapacity int              `json:"waiting_capacity"` // waiting-area slots (1-10)
	BayCount        int              `json:"bay_count"`        // service bays, one worker each (1-10)
	TotalArrivals   int              `json:"total_arrivals"`   // arrivals to generate (1-50)
	Timing          Timing           `json:"timing"`           // zero fields take DefaultTiming
	TraceLevel      trace.TraceLevel `json:"trace_level,omitempty"`
}

// NewConfig creates a Config with default timing.
func NewConfig(waitingCapacity, bayCount, totalArrivals int) Config {
	return Config{
		WaitingCapacity: waitingCapacity,
		BayCount:        bayCount,
		TotalArrivals:   totalArrivals,
		Timing:          DefaultTiming(),
	}
}

// ConfigError reports an out-of-range configuration parameter.
type ConfigError struct {
	Field    string
	Value    any
	Min, Max int
	Reason   string // set instead of Min/Max for non-range failures
}

func (e *ConfigError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s %v: must be between %d and %d", e.Field, e.Value, e.Min, e.Max)
}

// Validate checks every parameter range. The first violation is returned as
// a *ConfigError.
func (c Config) Validate() error {
	if c.WaitingCapacity < MinWaitingCapacity || c.WaitingCapacity > MaxWaitingCapacity {
		return &ConfigError{Field: "waiting capacity", Value: c.WaitingCapacity, Min: MinWaitingCapacity, Max: MaxWaitingCapacity}
	}
	if c.BayCount < MinBayCount || c.BayCount > MaxBayCount {
		return &ConfigError{Field: "bay count", Value: c.BayCount, Min: MinBayCount, Max: MaxBayCount}
	}
	if c.TotalArrivals < MinTotalArrivals || c.TotalArrivals > MaxTotalArrivals {
		return &ConfigError{Field: "total arrivals", Value: c.TotalArrivals, Min: MinTotalArrivals, Max: MaxTotalArrivals}
	}
	if !trace.IsValidTraceLevel(string(c.TraceLevel)) {
		return &ConfigError{Field: "trace level", Value: c.TraceLevel, Reason: "unknown level"}
	}
	t := c.Timing
	for _, d := range []struct {
		name string
		v    time.Duration
	}{
		{"timing.base_service", t.BaseService},
		{"timing.step_floor", t.StepFloor},
		{"timing.base_arrival_interval", t.BaseArrivalInterval},
		{"timing.min_arrival_interval", t.MinArrivalInterval},
		{"timing.completion_poll", t.CompletionPoll},
		{"timing.completion_grace", t.CompletionGrace},
	} {
		if d.v < 0 {
			return &ConfigError{Field: d.name, Value: d.v, Reason: "must not be negative"}
		}
	}
	return nil
}

func clampSpeed(n int) int {
	return min(max(n, MinSpeedFactor), MaxSpeedFactor)
}
