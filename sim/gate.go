package sim

import (
	"context"
	"sync"
)

// pauseGate is the shared pause signal of a run. Processes call Wait at their
// check points; while the gate is closed they park on a channel until Resume
// or until their context is cancelled. There is no polling.
type pauseGate struct {
	mu      sync.Mutex
	paused  bool
	resumed chan struct{} // closed by Resume; replaced on every Pause
}

func newPauseGate() *pauseGate {
	return &pauseGate{}
}

// Pause closes the gate. Reports whether the gate changed state.
func (g *pauseGate) Pause() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		return false
	}
	g.paused = true
	g.resumed = make(chan struct{})
	return true
}

// Resume opens the gate and wakes every parked process. Reports whether the
// gate changed state.
func (g *pauseGate) Resume() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused {
		return false
	}
	g.paused = false
	close(g.resumed)
	return true
}

// Paused reports whether the gate is closed.
func (g *pauseGate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Wait returns immediately when the gate is open. Otherwise it blocks until
// the gate reopens (nil) or ctx is done (ctx.Err()). A cancelled context wins
// even when the gate is open, so Wait doubles as a stop check point.
func (g *pauseGate) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	if !g.paused {
		g.mu.Unlock()
		return nil
	}
	resumed := g.resumed
	g.mu.Unlock()

	select {
	case <-resumed:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
