package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/station-sim/station-sim/sim/trace"
)

// ErrAlreadyRunning is returned by Start while a run is RUNNING or PAUSED.
var ErrAlreadyRunning = errors.New("simulation already running")

// Controller owns the simulation lifecycle. It is the only writer of the run
// state; processes read it through the run's pause gate and context.
//
// Commands never block on worker activity. Start may wait for the previous
// run's goroutines to exit, which is bounded because that run is already
// cancelled.
type Controller struct {
	mu    sync.Mutex // serializes commands
	state atomic.Int32
	speed atomic.Int32
	sink  EventSink
	run   atomic.Pointer[run]
	runs  int
}

// NewController creates an idle controller. Events of every run go to sink;
// a nil sink discards them.
func NewController(sink EventSink) *Controller {
	if sink == nil {
		sink = discardSink{}
	}
	c := &Controller{sink: sink}
	c.speed.Store(DefaultSpeedFactor)
	return c
}

// State returns the current run state.
func (c *Controller) State() RunState {
	return RunState(c.state.Load())
}

// SpeedFactor returns the current speed factor.
func (c *Controller) SpeedFactor() int {
	return int(c.speed.Load())
}

// Start validates cfg and launches a new run: one worker per bay and the
// arrival generator. A configuration error is returned (and logged as an
// event) without starting anything.
func (c *Controller) Start(cfg Config) error {
	cfg.Timing = cfg.Timing.withDefaults()
	if err := cfg.Validate(); err != nil {
		c.logf("Configuration error: %v", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State().Active() {
		return ErrAlreadyRunning
	}
	if prev := c.run.Load(); prev != nil {
		prev.cancel()
		<-prev.done
	}

	c.runs++
	r := newRun(c.runs, c, cfg)
	c.run.Store(r)
	c.setState(StateRunning)
	c.logf("=== Service Station Simulation Started ===")
	c.logf("Configuration: %d waiting slots, %d service bays, %d total arrivals",
		cfg.WaitingCapacity, cfg.BayCount, cfg.TotalArrivals)
	logrus.Debugf("run %d: timing %+v, speed %dx", r.id, cfg.Timing, c.SpeedFactor())
	r.launch()
	c.logf("Simulation is now running")
	return nil
}

// Pause suspends a RUNNING simulation. Processes park at their next check
// point. Reports whether the state changed.
func (c *Controller) Pause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.run.Load()
	if r == nil || !c.state.CompareAndSwap(int32(StateRunning), int32(StatePaused)) {
		return false
	}
	r.gate.Pause()
	r.clock.pause(time.Now())
	c.emitState(StatePaused)
	c.logf("Simulation PAUSED")
	return true
}

// Resume wakes a PAUSED simulation. Reports whether the state changed.
func (c *Controller) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.run.Load()
	if r == nil || !c.state.CompareAndSwap(int32(StatePaused), int32(StateRunning)) {
		return false
	}
	r.clock.resume(time.Now())
	r.gate.Resume()
	c.emitState(StateRunning)
	c.logf("Simulation RESUMED")
	return true
}

// Stop cancels a RUNNING or PAUSED simulation. Blocked processes unblock,
// give back their permits, and exit. Stop does not wait for them; use Wait.
// Reports whether the state changed.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.run.Load()
	if r == nil {
		return false
	}
	for {
		s := c.State()
		if !s.Active() {
			return false
		}
		if c.state.CompareAndSwap(int32(s), int32(StateStopped)) {
			break
		}
	}
	c.logf("Stopping simulation...")
	r.cancel()
	r.clock.stop(time.Now())
	c.emitState(StateStopped)
	c.logf("Simulation stopped")
	return true
}

// SetSpeedFactor clamps n to [1,10] and publishes it. Services already in
// progress keep the factor they started with. Returns the stored value.
func (c *Controller) SetSpeedFactor(n int) int {
	n = clampSpeed(n)
	c.speed.Store(int32(n))
	if c.State().Active() {
		c.logf("Simulation speed set to: %dx", n)
	}
	return n
}

// Wait blocks until every process of the current run has exited, or ctx is
// done. Returns immediately when no run exists.
func (c *Controller) Wait(ctx context.Context) error {
	r := c.run.Load()
	if r == nil {
		return nil
	}
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed once the current run has completed or been
// stopped and all its processes have exited. Nil when no run exists.
func (c *Controller) Done() <-chan struct{} {
	r := c.run.Load()
	if r == nil {
		return nil
	}
	return r.done
}

// Trace returns the current run's trace, or nil if tracing is off.
func (c *Controller) Trace() *trace.SimulationTrace {
	if r := c.run.Load(); r != nil {
		return r.trace
	}
	return nil
}

// Status is a point-in-time view of the simulation.
type Status struct {
	State     RunState      `json:"state"`
	Speed     int           `json:"speed"`
	Config    *Config       `json:"config,omitempty"`
	Queue     []int         `json:"queue"`
	Bays      []BayStatus   `json:"bays"`
	Generated int           `json:"generated"`
	Finished  int           `json:"finished"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// Status reads the current run without locking any simulation resource.
func (c *Controller) Status() Status {
	st := Status{State: c.State(), Speed: c.SpeedFactor(), Queue: []int{}, Bays: []BayStatus{}}
	r := c.run.Load()
	if r == nil {
		return st
	}
	cfg := r.cfg
	st.Config = &cfg
	st.Queue = r.queue.Snapshot()
	st.Bays = r.bayStatuses()
	st.Generated = int(r.generated.Load())
	st.Finished = int(r.finished.Load())
	st.Elapsed = r.clock.elapsed(time.Now())
	return st
}

// complete is called by r's completion monitor. Only a RUNNING run can
// complete, and only once. Reports whether this call completed it.
func (c *Controller) complete(r *run) bool {
	if c.run.Load() != r || !c.state.CompareAndSwap(int32(StateRunning), int32(StateCompleted)) {
		return false
	}
	r.clock.stop(time.Now())
	c.logf("=== Simulation Completed Successfully ===")
	c.sink.Emit(Completed{})
	c.emitState(StateCompleted)
	r.cancel()
	return true
}

func (c *Controller) setState(s RunState) {
	c.state.Store(int32(s))
	c.emitState(s)
}

func (c *Controller) emitState(s RunState) {
	c.sink.Emit(RunStateChanged{State: s})
}

func (c *Controller) logf(format string, args ...any) {
	c.sink.Emit(LogEvent{Message: fmt.Sprintf(format, args...)})
}
