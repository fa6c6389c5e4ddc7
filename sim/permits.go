package sim

// heldPermits records the permits a process owes back to their semaphores.
// Every exit path of an arrival or a worker ends with releaseAll, so a
// cancellation or a recovered panic never leaks a permit.
type heldPermits struct {
	owed []*Semaphore
}

// add records an obligation to release s once.
func (h *heldPermits) add(s *Semaphore) {
	h.owed = append(h.owed, s)
}

// release discharges the most recent obligation on s by releasing it now.
func (h *heldPermits) release(s *Semaphore) {
	if h.drop(s) {
		s.Release()
	}
}

// forget discharges the most recent obligation on s without releasing it.
// Used when ownership of the permit passes elsewhere (e.g. a wait slot that
// now belongs to a queue entry).
func (h *heldPermits) forget(s *Semaphore) {
	h.drop(s)
}

// releaseAll releases every outstanding obligation, newest first.
func (h *heldPermits) releaseAll() {
	for i := len(h.owed) - 1; i >= 0; i-- {
		h.owed[i].Release()
	}
	h.owed = h.owed[:0]
}

// len returns the number of outstanding obligations.
func (h *heldPermits) len() int {
	return len(h.owed)
}

func (h *heldPermits) drop(s *Semaphore) bool {
	for i := len(h.owed) - 1; i >= 0; i-- {
		if h.owed[i] == s {
			h.owed = append(h.owed[:i], h.owed[i+1:]...)
			return true
		}
	}
	return false
}
