package sim

import (
	"errors"
	"fmt"
	"time"

	"github.com/station-sim/station-sim/sim/trace"
)

// errQueueUnderflow means a worker won a filled slot but found the queue
// empty. It cannot happen while the bounded-buffer protocol holds.
var errQueueUnderflow = errors.New("queue empty after acquiring a filled slot")

// work is the long-lived consumer of one bay. It serves arrivals until the
// run is cancelled or a fault ends it.
func (r *run) work(bay int) {
	defer r.wg.Done()
	b := &r.bays[bay-1]
	defer b.set(WorkerStopped, 0, 0)
	defer r.recoverFault(fmt.Sprintf("bay %d", bay))

	for {
		err := r.serve(bay)
		if errors.Is(err, errQueueUnderflow) {
			r.logf("ERROR in bay %d: %v", bay, err)
		}
		if err != nil {
			return
		}
	}
}

// serve takes one arrival from the queue and services it:
//
//	acquire filledSlots → acquire queueMutex → dequeue → release queueMutex → release emptySlots
//	→ acquire baySlots → 10 timed progress steps → release baySlots
//
// The step duration is fixed from the speed factor at service start. Every
// permit acquired here is released on every return path.
func (r *run) serve(bay int) error {
	held := &heldPermits{}
	defer held.releaseAll()
	b := &r.bays[bay-1]

	if err := r.checkpoint(); err != nil {
		return err
	}
	if err := r.filledSlots.Acquire(r.ctx); err != nil {
		return err
	}
	// Until the dequeue the arrival is still in the queue; aborting must
	// hand the filled slot back.
	held.add(r.filledSlots)
	if err := r.checkpoint(); err != nil {
		return err
	}
	if err := r.queueMutex.Acquire(r.ctx); err != nil {
		return err
	}
	held.add(r.queueMutex)
	if err := r.checkpoint(); err != nil {
		return err
	}

	r.busyWorkers.Add(1)
	defer r.busyWorkers.Add(-1)
	entry, ok := r.queue.Dequeue()
	held.forget(r.filledSlots)
	if !ok {
		return errQueueUnderflow
	}
	// The freed wait slot is owed to the waiting area from here on.
	held.add(r.emptySlots)
	id := entry.ArrivalID
	rec := trace.ServiceRecord{ArrivalID: id, BayID: bay, EnqueuedAt: entry.EnqueuedAt, DequeuedAt: time.Now()}
	defer func() { r.trace.RecordService(rec) }()

	b.set(WorkerReady, id, 0)
	r.recordQueue()
	r.emit(QueueChanged{Contents: r.queue.Snapshot()})
	r.emit(ArrivalStatusChanged{ArrivalID: id, Status: StatusAtBay, BayID: bay})
	r.logf("Bay %d took arrival %d from queue. Queue size now: %d", bay, id, r.queue.Len())
	held.release(r.queueMutex)
	held.release(r.emptySlots)

	if err := r.baySlots.Acquire(r.ctx); err != nil {
		return err
	}
	held.add(r.baySlots)
	if err := r.checkpoint(); err != nil {
		return err
	}

	speed := r.speed()
	step := r.cfg.Timing.ServiceStep(speed)
	rec.StartedAt = time.Now()
	b.set(WorkerServicing, id, 0)
	r.emit(BayStatusChanged{BayID: bay, ArrivalID: id, Occupied: true})
	r.emit(ArrivalStatusChanged{ArrivalID: id, Status: StatusServicing, BayID: bay})
	r.logf("Bay %d: arrival %d begins service (speed %dx)", bay, id, speed)

	for i := 1; i <= serviceSteps; i++ {
		if err := r.sleep(step); err != nil {
			return err
		}
		if err := r.checkpoint(); err != nil {
			return err
		}
		percent := i * 100 / serviceSteps
		b.progress.Store(int32(percent))
		r.emit(BayProgressChanged{BayID: bay, Percent: percent})
	}

	rec.FinishedAt = time.Now()
	r.finished.Add(1)
	r.logf("Bay %d: arrival %d finishes service", bay, id)
	r.emit(ArrivalStatusChanged{ArrivalID: id, Status: StatusFinished})
	b.set(WorkerReady, 0, 0)
	r.emit(BayStatusChanged{BayID: bay, Occupied: false})
	r.logf("Bay %d is now free", bay)
	held.release(r.baySlots)
	return nil
}
