package sim

// generate spawns one arrival process per interval until TotalArrivals have
// been produced, then hands over to the completion monitor. The interval is
// recomputed from the current speed factor before every gap.
func (r *run) generate() {
	defer r.wg.Done()
	defer r.recoverFault("arrival generator")

	for id := 1; id <= r.cfg.TotalArrivals; id++ {
		if r.checkpoint() != nil {
			r.logf("Arrival generator interrupted")
			return
		}
		r.liveArrivals.Add(1)
		r.generated.Add(1)
		r.wg.Add(1)
		go r.arrive(id)
		r.logf("Generated arrival %d", id)

		if r.sleep(r.cfg.Timing.ArrivalInterval(r.speed())) != nil {
			r.logf("Arrival generator interrupted")
			return
		}
	}

	r.logf("All arrivals have been generated. Waiting for completion...")
	r.monitor()
}

// monitor polls for quiescence: empty queue, no live arrival, no worker
// holding an arrival. Quiescence must still hold after the grace interval
// before the run is declared complete. Exits quietly on stop. A pause that
// lands between the last check and completion sends it back to polling.
func (r *run) monitor() {
	t := r.cfg.Timing
	for {
		if r.sleep(t.CompletionPoll) != nil || r.checkpoint() != nil {
			return
		}
		if !r.quiescent() {
			continue
		}
		if r.sleep(t.CompletionGrace) != nil || r.checkpoint() != nil {
			return
		}
		if !r.quiescent() {
			continue
		}
		if r.finish() {
			return
		}
	}
}

// finish tries to complete the run and reports whether the monitor is done:
// either the run completed or it was cancelled.
func (r *run) finish() bool {
	return r.ctrl.complete(r) || r.ctx.Err() != nil
}
