package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPauseGate_Open_WaitReturnsImmediately(t *testing.T) {
	g := newPauseGate()
	assert.NoError(t, g.Wait(context.Background()))
	assert.False(t, g.Paused())
}

func TestPauseGate_Paused_WaitParksUntilResume(t *testing.T) {
	// GIVEN a paused gate and a waiting process
	g := newPauseGate()
	assert.True(t, g.Pause())
	done := make(chan error, 1)
	go func() { done <- g.Wait(context.Background()) }()

	// THEN the process stays parked
	select {
	case <-done:
		t.Fatal("Wait returned while paused")
	case <-time.After(20 * time.Millisecond):
	}

	// WHEN the gate is resumed
	assert.True(t, g.Resume())

	// THEN the process continues
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Resume")
	}
}

func TestPauseGate_Paused_CancelUnblocks(t *testing.T) {
	g := newPauseGate()
	g.Pause()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Wait(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Wait did not observe cancellation")
	}
}

func TestPauseGate_CancelledContext_WinsWhenOpen(t *testing.T) {
	g := newPauseGate()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, g.Wait(ctx), context.Canceled)
}

func TestPauseGate_RepeatedTransitions_AreNoOps(t *testing.T) {
	g := newPauseGate()
	assert.False(t, g.Resume(), "resume of an open gate")
	assert.True(t, g.Pause())
	assert.False(t, g.Pause(), "second pause")
	assert.True(t, g.Resume())
	assert.False(t, g.Resume(), "second resume")
}
