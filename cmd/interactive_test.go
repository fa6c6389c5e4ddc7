package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/station-sim/station-sim/sim"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    consoleCommand
		wantErr bool
	}{
		{line: "", want: consoleCommand{}},
		{line: "  pause ", want: consoleCommand{name: "pause", args: []int{}}},
		{line: "START", want: consoleCommand{name: "start", args: []int{}}},
		{line: "start 4 3 20", want: consoleCommand{name: "start", args: []int{4, 3, 20}}},
		{line: "speed 7", want: consoleCommand{name: "speed", args: []int{7}}},
		{line: "start 4 3", wantErr: true},
		{line: "speed", wantErr: true},
		{line: "speed fast", wantErr: true},
		{line: "status now", wantErr: true},
		{line: "launch", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestConsole() (*console, *bytes.Buffer) {
	var out bytes.Buffer
	defaults := sim.NewConfig(3, 2, 15)
	defaults.Timing = fastTiming()
	return &console{ctrl: sim.NewController(nil), out: &out, defaults: defaults}, &out
}

func execLine(t *testing.T, c *console, line string) error {
	t.Helper()
	cmd, err := parseCommand(line)
	require.NoError(t, err)
	_, err = c.execute(cmd)
	return err
}

func TestConsole_Lifecycle(t *testing.T) {
	// GIVEN a console with a slow service so the run outlives the commands
	c, out := newTestConsole()
	c.defaults.Timing.BaseService = time.Second

	// WHEN a run is started, paused, resumed and stopped
	require.NoError(t, execLine(t, c, "start 2 1 3"))
	assert.Equal(t, sim.StateRunning, c.ctrl.State())
	require.NoError(t, execLine(t, c, "pause"))
	assert.Equal(t, sim.StatePaused, c.ctrl.State())
	assert.Error(t, execLine(t, c, "pause"), "second pause is refused")
	require.NoError(t, execLine(t, c, "status"))
	require.NoError(t, execLine(t, c, "resume"))
	require.NoError(t, execLine(t, c, "stop"))

	// THEN the run is stopped and status was rendered with the custom layout
	assert.Equal(t, sim.StateStopped, c.ctrl.State())
	assert.Contains(t, out.String(), "state: PAUSED")
	assert.Contains(t, out.String(), "queue: ")
	assert.Contains(t, out.String(), "(capacity 2)")
	assert.Contains(t, out.String(), "bay 1:")
	assert.NotContains(t, out.String(), "bay 2:")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.ctrl.Wait(ctx))
}

func TestConsole_StartInvalid_ReturnsConfigError(t *testing.T) {
	c, _ := newTestConsole()

	err := execLine(t, c, "start 0 2 5")

	var cfgErr *sim.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, sim.StateNotStarted, c.ctrl.State())
}

func TestConsole_Speed_ReportsClampedValue(t *testing.T) {
	c, out := newTestConsole()

	require.NoError(t, execLine(t, c, "speed 25"))

	assert.Contains(t, out.String(), "speed factor now 10x")
	assert.Equal(t, 10, c.ctrl.SpeedFactor())
}

func TestConsole_Quit_StopsActiveRun(t *testing.T) {
	c, _ := newTestConsole()
	c.defaults.Timing.BaseService = time.Second
	require.NoError(t, execLine(t, c, "start"))

	quit, err := c.execute(consoleCommand{name: "quit"})

	require.NoError(t, err)
	assert.True(t, quit)
	assert.Equal(t, sim.StateStopped, c.ctrl.State())
	select {
	case <-c.ctrl.Done():
	default:
		t.Fatal("quit returned before the run tore down")
	}
}

// scriptedReader replays lines, then returns err on every further read.
type scriptedReader struct {
	lines []string
	err   error
	reads int
}

func (s *scriptedReader) Readline() (string, error) {
	s.reads++
	if len(s.lines) == 0 {
		return "", s.err
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func TestConsoleLoop_ReadError_EndsSessionAndStopsRun(t *testing.T) {
	// GIVEN a terminal that fails persistently after a start command
	c, out := newTestConsole()
	c.defaults.Timing.BaseService = time.Second
	in := &scriptedReader{lines: []string{"start"}, err: errors.New("terminal gone")}

	// WHEN the console loop runs
	c.loop(in)

	// THEN the loop gives up after the first failed read and stops the run
	assert.Equal(t, 2, in.reads)
	assert.Contains(t, out.String(), "Error reading input: terminal gone")
	assert.Equal(t, sim.StateStopped, c.ctrl.State())
	select {
	case <-c.ctrl.Done():
	default:
		t.Fatal("loop returned before the run tore down")
	}
}

func TestConsoleLoop_BadLineContinues_EOFEnds(t *testing.T) {
	c, out := newTestConsole()
	in := &scriptedReader{lines: []string{"launch", "speed 4"}, err: io.EOF}

	c.loop(in)

	assert.Equal(t, 3, in.reads)
	assert.Contains(t, out.String(), "Error: ")
	assert.Contains(t, out.String(), "speed factor now 4x")
}

func TestPrintEvents_FiltersUnlessVerbose(t *testing.T) {
	events := func() <-chan sim.Event {
		ch := make(chan sim.Event, 3)
		ch <- sim.LogEvent{Message: "Arrival 1 arrived at the station"}
		ch <- sim.BayProgressChanged{BayID: 1, Percent: 40}
		ch <- sim.RunStateChanged{State: sim.StatePaused}
		close(ch)
		return ch
	}

	var quiet, verbose bytes.Buffer
	printEvents(&quiet, events(), false)
	printEvents(&verbose, events(), true)

	assert.Equal(t, "Arrival 1 arrived at the station\n-- PAUSED --\n", quiet.String())
	assert.Contains(t, verbose.String(), "bay 1  40% [####......]")
}
