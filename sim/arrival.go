package sim

import (
	"fmt"
	"time"
)

// arrive runs the producer protocol for one arrival, exactly once:
//
//	ARRIVED → acquire emptySlots → acquire queueMutex → enqueue → release queueMutex → release filledSlots
//
// Pause and stop are honored before each blocking step. On stop the arrival
// gives back whatever it holds and leaves without enqueueing. Once enqueued,
// the wait slot belongs to the queue entry and the process ends.
func (r *run) arrive(id int) {
	defer r.wg.Done()
	defer r.liveArrivals.Add(-1)
	held := &heldPermits{}
	defer held.releaseAll()
	defer r.recoverFault(fmt.Sprintf("arrival %d", id))

	if r.checkpoint() != nil {
		return
	}
	r.emit(ArrivalStatusChanged{ArrivalID: id, Status: StatusArrived})
	r.logf("Arrival %d arrived at the station", id)

	if !r.emptySlots.TryAcquire() {
		r.emit(ArrivalStatusChanged{ArrivalID: id, Status: StatusWaitingForSlot})
		r.logf("Arrival %d is waiting for a free slot in the waiting area", id)
		if r.emptySlots.Acquire(r.ctx) != nil {
			return
		}
	}
	held.add(r.emptySlots)
	if r.checkpoint() != nil {
		return
	}

	if r.queueMutex.Acquire(r.ctx) != nil {
		return
	}
	held.add(r.queueMutex)
	if r.checkpoint() != nil {
		return
	}

	r.queue.Enqueue(QueueEntry{ArrivalID: id, EnqueuedAt: time.Now()})
	held.forget(r.emptySlots)
	held.add(r.filledSlots)
	r.recordQueue()
	r.emit(QueueChanged{Contents: r.queue.Snapshot()})
	r.emit(ArrivalStatusChanged{ArrivalID: id, Status: StatusInQueue})
	r.logf("Arrival %d entered the waiting queue. Queue size: %d", id, r.queue.Len())

	held.release(r.queueMutex)
	held.release(r.filledSlots)
}
