package trace

import (
	"sort"
	"time"
)

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	Served                int
	Aborted               int
	MeanWait              time.Duration
	MaxWait               time.Duration
	MeanService           time.Duration
	MaxService            time.Duration
	MaxQueueLength        int
	MaxConcurrentServices int
	BayDistribution       map[int]int // bay ID → completed services
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		BayDistribution: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	services := st.Services()
	var totalWait, totalService time.Duration
	for _, r := range services {
		if !r.Completed() {
			summary.Aborted++
			continue
		}
		summary.Served++
		summary.BayDistribution[r.BayID]++
		totalWait += r.Wait()
		totalService += r.Duration()
		summary.MaxWait = max(summary.MaxWait, r.Wait())
		summary.MaxService = max(summary.MaxService, r.Duration())
	}
	if summary.Served > 0 {
		summary.MeanWait = totalWait / time.Duration(summary.Served)
		summary.MeanService = totalService / time.Duration(summary.Served)
	}

	for _, s := range st.QueueSamples() {
		summary.MaxQueueLength = max(summary.MaxQueueLength, s.Length)
	}
	summary.MaxConcurrentServices = maxOverlap(services)

	return summary
}

// maxOverlap sweeps service intervals and returns the peak number that were
// in progress at the same instant. An interval ending at t does not overlap
// one starting at t.
func maxOverlap(services []ServiceRecord) int {
	type edge struct {
		at    time.Time
		delta int
	}
	edges := make([]edge, 0, 2*len(services))
	for _, r := range services {
		if r.StartedAt.IsZero() || !r.Completed() {
			continue
		}
		edges = append(edges, edge{r.StartedAt, +1}, edge{r.FinishedAt, -1})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].at.Equal(edges[j].at) {
			return edges[i].delta < edges[j].delta
		}
		return edges[i].at.Before(edges[j].at)
	})
	cur, peak := 0, 0
	for _, e := range edges {
		cur += e.delta
		peak = max(peak, cur)
	}
	return peak
}
