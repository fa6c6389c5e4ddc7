package trace

import "sync"

// TraceLevel controls the verbosity of run tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelServices captures every service and every queue-length change.
	TraceLevelServices TraceLevel = "services"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:     true,
	TraceLevelServices: true,
	"":                 true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// Enabled reports whether the level records anything.
func (l TraceLevel) Enabled() bool {
	return l == TraceLevelServices
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects records during a run. Records arrive from many
// goroutines, so all access goes through its methods.
// A nil *SimulationTrace accepts and discards records.
type SimulationTrace struct {
	Config TraceConfig

	mu           sync.Mutex
	services     []ServiceRecord
	queueSamples []QueueSample
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:       config,
		services:     make([]ServiceRecord, 0),
		queueSamples: make([]QueueSample, 0),
	}
}

// RecordService appends a service record.
func (st *SimulationTrace) RecordService(record ServiceRecord) {
	if st == nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.services = append(st.services, record)
}

// RecordQueueLength appends a queue-length sample.
func (st *SimulationTrace) RecordQueueLength(sample QueueSample) {
	if st == nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.queueSamples = append(st.queueSamples, sample)
}

// Services returns a copy of the service records in recording order.
func (st *SimulationTrace) Services() []ServiceRecord {
	if st == nil {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]ServiceRecord(nil), st.services...)
}

// QueueSamples returns a copy of the queue-length samples in recording order.
func (st *SimulationTrace) QueueSamples() []QueueSample {
	if st == nil {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]QueueSample(nil), st.queueSamples...)
}
