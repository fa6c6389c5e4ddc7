package sim

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/station-sim/station-sim/sim/trace"
)

// run holds everything owned by one simulation run: the immutable config,
// the four semaphores, the queue, per-bay state, and the goroutines. A run is
// created by Controller.Start and never reused.
type run struct {
	id     int
	cfg    Config
	ctrl   *Controller
	sink   EventSink
	ctx    context.Context
	cancel context.CancelFunc
	gate   *pauseGate
	clock  *runClock
	trace  *trace.SimulationTrace

	emptySlots  *Semaphore // free places in the waiting area
	filledSlots *Semaphore // arrivals waiting in the queue
	queueMutex  *Semaphore // binary; guards queue mutation
	baySlots    *Semaphore // one per bay
	queue       *ServiceQueue
	bays        []bayState

	liveArrivals atomic.Int32 // arrival processes not yet returned
	busyWorkers  atomic.Int32 // workers holding a dequeued arrival
	generated    atomic.Int32
	finished     atomic.Int32

	wg   sync.WaitGroup
	done chan struct{} // closed once every goroutine of the run has returned
}

func newRun(id int, ctrl *Controller, cfg Config) *run {
	ctx, cancel := context.WithCancel(context.Background())
	r := &run{
		id:          id,
		cfg:         cfg,
		ctrl:        ctrl,
		sink:        ctrl.sink,
		ctx:         ctx,
		cancel:      cancel,
		gate:        newPauseGate(),
		clock:       newRunClock(time.Now()),
		emptySlots:  NewSemaphore("emptySlots", cfg.WaitingCapacity, cfg.WaitingCapacity),
		filledSlots: NewSemaphore("filledSlots", 0, cfg.WaitingCapacity),
		queueMutex:  NewSemaphore("queueMutex", 1, 1),
		baySlots:    NewSemaphore("baySlots", cfg.BayCount, cfg.BayCount),
		queue:       NewServiceQueue(cfg.WaitingCapacity),
		bays:        make([]bayState, cfg.BayCount),
		done:        make(chan struct{}),
	}
	if cfg.TraceLevel.Enabled() {
		r.trace = trace.NewSimulationTrace(trace.TraceConfig{Level: cfg.TraceLevel})
	}
	return r
}

// launch starts one worker per bay and the arrival generator.
func (r *run) launch() {
	r.wg.Add(r.cfg.BayCount + 1)
	for bay := 1; bay <= r.cfg.BayCount; bay++ {
		go r.work(bay)
	}
	go r.generate()
	go func() {
		r.wg.Wait()
		logrus.Debugf("run %d: all processes exited", r.id)
		close(r.done)
	}()
}

// emit forwards ev to the sink unless the run has been cancelled. Nothing a
// process emits after stop reaches the presentation layer.
func (r *run) emit(ev Event) {
	if r.ctx.Err() != nil {
		return
	}
	r.sink.Emit(ev)
}

func (r *run) logf(format string, args ...any) {
	r.emit(LogEvent{Message: fmt.Sprintf(format, args...)})
}

// checkpoint parks the caller while the run is paused and reports
// cancellation.
func (r *run) checkpoint() error {
	return r.gate.Wait(r.ctx)
}

// sleep waits for d or until the run is cancelled.
func (r *run) sleep(d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-r.ctx.Done():
		return r.ctx.Err()
	}
}

func (r *run) speed() int {
	return int(r.ctrl.speed.Load())
}

// recoverFault must be deferred directly. It isolates a panicking process:
// the fault is logged and the process ends without touching the others.
func (r *run) recoverFault(who string) {
	if p := recover(); p != nil {
		logrus.Warnf("run %d: %s failed: %v", r.id, who, p)
		r.sink.Emit(LogEvent{Message: fmt.Sprintf("ERROR in %s: %v", who, p)})
	}
}

func (r *run) recordQueue() {
	r.trace.RecordQueueLength(trace.QueueSample{At: time.Now(), Length: r.queue.Len()})
}

// quiescent reports whether no arrival is anywhere in the pipeline. The
// counters are read upstream first: an arrival is added to the next stage
// before it leaves the previous one, so a moving arrival is always seen.
func (r *run) quiescent() bool {
	return r.liveArrivals.Load() == 0 &&
		r.queue.Len() == 0 &&
		r.busyWorkers.Load() == 0
}

func (r *run) bayStatuses() []BayStatus {
	out := make([]BayStatus, len(r.bays))
	for i := range r.bays {
		state, arrival, progress := r.bays[i].load()
		out[i] = BayStatus{BayID: i + 1, State: state, ArrivalID: arrival, Progress: progress}
	}
	return out
}

// runClock measures elapsed run time, excluding paused intervals.
type runClock struct {
	mu       sync.Mutex
	started  time.Time
	pausedAt time.Time
	paused   time.Duration
	ended    time.Time
}

func newRunClock(now time.Time) *runClock {
	return &runClock{started: now}
}

func (c *runClock) pause(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pausedAt.IsZero() && c.ended.IsZero() {
		c.pausedAt = now
	}
}

func (c *runClock) resume(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pausedAt.IsZero() {
		c.paused += now.Sub(c.pausedAt)
		c.pausedAt = time.Time{}
	}
}

func (c *runClock) stop(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ended.IsZero() {
		return
	}
	if !c.pausedAt.IsZero() {
		c.paused += now.Sub(c.pausedAt)
		c.pausedAt = time.Time{}
	}
	c.ended = now
}

func (c *runClock) elapsed(now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	end := now
	if !c.ended.IsZero() {
		end = c.ended
	}
	paused := c.paused
	if !c.pausedAt.IsZero() {
		paused += end.Sub(c.pausedAt)
	}
	return end.Sub(c.started) - paused
}
