package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/station-sim/station-sim/sim"
	"github.com/station-sim/station-sim/sim/trace"
)

// formatEvent renders one event as a console line.
func formatEvent(ev sim.Event) string {
	switch e := ev.(type) {
	case sim.LogEvent:
		return e.Message
	case sim.ArrivalStatusChanged:
		return e.String()
	case sim.QueueChanged:
		return fmt.Sprintf("queue %v", e.Contents)
	case sim.BayStatusChanged:
		if e.Occupied {
			return fmt.Sprintf("bay %d occupied by arrival %d", e.BayID, e.ArrivalID)
		}
		return fmt.Sprintf("bay %d free", e.BayID)
	case sim.BayProgressChanged:
		return fmt.Sprintf("bay %d %3d%% %s", e.BayID, e.Percent, progressBar(e.Percent))
	case sim.Completed:
		return "completed"
	case sim.RunStateChanged:
		return fmt.Sprintf("-- %s --", e.State)
	}
	return ev.Type()
}

func progressBar(percent int) string {
	filled := percent / 10
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", 10-filled) + "]"
}

// formatStatus renders a status snapshot over several lines.
func formatStatus(st sim.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "state: %s  speed: %dx", st.State, st.Speed)
	if st.Config == nil {
		return b.String()
	}
	fmt.Fprintf(&b, "  elapsed: %s\n", st.Elapsed.Round(100*time.Millisecond))
	fmt.Fprintf(&b, "arrivals: %d/%d generated, %d finished\n", st.Generated, st.Config.TotalArrivals, st.Finished)
	fmt.Fprintf(&b, "queue: %v (capacity %d)\n", st.Queue, st.Config.WaitingCapacity)
	for _, bay := range st.Bays {
		switch bay.State {
		case sim.WorkerServicing:
			fmt.Fprintf(&b, "bay %d: %s arrival %d %s\n", bay.BayID, bay.State, bay.ArrivalID, progressBar(bay.Progress))
		default:
			fmt.Fprintf(&b, "bay %d: %s\n", bay.BayID, bay.State)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// runSummary is the JSON document printed after a run.
type runSummary struct {
	State       sim.RunState   `json:"state"`
	Config      *sim.Config    `json:"config,omitempty"`
	Generated   int            `json:"generated"`
	Finished    int            `json:"finished"`
	SimTimeMs   int64          `json:"sim_time_ms"`
	WallTimeMs  int64          `json:"wall_time_ms"`
	Served      int            `json:"served"`
	Aborted     int            `json:"aborted"`
	MeanWaitMs  float64        `json:"mean_wait_ms"`
	MaxWaitMs   float64        `json:"max_wait_ms"`
	MeanSvcMs   float64        `json:"mean_service_ms"`
	MaxSvcMs    float64        `json:"max_service_ms"`
	MaxQueueLen int            `json:"max_queue_length"`
	MaxServices int            `json:"max_concurrent_services"`
	PerBay      map[string]int `json:"services_per_bay,omitempty"`
}

func newRunSummary(st sim.Status, ts *trace.TraceSummary, wall time.Duration) runSummary {
	s := runSummary{
		State:      st.State,
		Config:     st.Config,
		Generated:  st.Generated,
		Finished:   st.Finished,
		SimTimeMs:  st.Elapsed.Milliseconds(),
		WallTimeMs: wall.Milliseconds(),
	}
	if ts == nil {
		return s
	}
	s.Served = ts.Served
	s.Aborted = ts.Aborted
	s.MeanWaitMs = millis(ts.MeanWait)
	s.MaxWaitMs = millis(ts.MaxWait)
	s.MeanSvcMs = millis(ts.MeanService)
	s.MaxSvcMs = millis(ts.MaxService)
	s.MaxQueueLen = ts.MaxQueueLength
	s.MaxServices = ts.MaxConcurrentServices
	if len(ts.BayDistribution) > 0 {
		s.PerBay = make(map[string]int, len(ts.BayDistribution))
		for bay, n := range ts.BayDistribution {
			s.PerBay[fmt.Sprintf("bay_%d", bay)] = n
		}
	}
	return s
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// printSummary writes the run summary header and JSON document to w.
func printSummary(w io.Writer, ctrl *sim.Controller, wall time.Duration) error {
	var ts *trace.TraceSummary
	if tr := ctrl.Trace(); tr != nil {
		ts = trace.Summarize(tr)
	}
	data, err := json.MarshalIndent(newRunSummary(ctrl.Status(), ts, wall), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if _, err := fmt.Fprintln(w, "=== Simulation Summary ==="); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
