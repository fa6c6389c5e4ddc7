package sim

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/station-sim/station-sim/sim/trace"
)

// StationBundle holds station configuration, loadable from a YAML file.
// Nil pointer fields mean "not set in YAML"; they do not override the
// Config they are applied to.
type StationBundle struct {
	WaitingCapacity *int         `yaml:"waiting_capacity"`
	BayCount        *int         `yaml:"bay_count"`
	TotalArrivals   *int         `yaml:"total_arrivals"`
	Speed           *int         `yaml:"speed"`
	Trace           string       `yaml:"trace"`
	Timing          TimingBundle `yaml:"timing"`
}

// TimingBundle holds optional overrides for Timing. Durations use Go syntax
// ("8s", "200ms").
type TimingBundle struct {
	BaseService         *time.Duration `yaml:"base_service"`
	StepFloor           *time.Duration `yaml:"step_floor"`
	BaseArrivalInterval *time.Duration `yaml:"base_arrival_interval"`
	MinArrivalInterval  *time.Duration `yaml:"min_arrival_interval"`
	CompletionPoll      *time.Duration `yaml:"completion_poll"`
	CompletionGrace     *time.Duration `yaml:"completion_grace"`
}

// LoadStationBundle reads and parses a YAML station configuration file.
// Unknown keys are rejected so that typos surface as errors.
func LoadStationBundle(path string) (*StationBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading station config: %w", err)
	}
	return ParseStationBundle(data)
}

// ParseStationBundle parses YAML station configuration.
func ParseStationBundle(data []byte) (*StationBundle, error) {
	var bundle StationBundle
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("parsing station config: %w", err)
	}
	return &bundle, nil
}

// Validate checks the fields that can be judged without a full Config.
func (b *StationBundle) Validate() error {
	if !trace.IsValidTraceLevel(b.Trace) {
		return fmt.Errorf("unknown trace level %q", b.Trace)
	}
	if b.Speed != nil && (*b.Speed < MinSpeedFactor || *b.Speed > MaxSpeedFactor) {
		return fmt.Errorf("speed must be between %d and %d, got %d", MinSpeedFactor, MaxSpeedFactor, *b.Speed)
	}
	for name, d := range map[string]*time.Duration{
		"base_service":          b.Timing.BaseService,
		"step_floor":            b.Timing.StepFloor,
		"base_arrival_interval": b.Timing.BaseArrivalInterval,
		"min_arrival_interval":  b.Timing.MinArrivalInterval,
		"completion_poll":       b.Timing.CompletionPoll,
		"completion_grace":      b.Timing.CompletionGrace,
	} {
		if d != nil && *d <= 0 {
			return fmt.Errorf("timing.%s must be positive, got %v", name, *d)
		}
	}
	return nil
}

// Apply overlays every field set in the bundle onto cfg.
func (b *StationBundle) Apply(cfg *Config) {
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setDur := func(dst *time.Duration, src *time.Duration) {
		if src != nil {
			*dst = *src
		}
	}
	setInt(&cfg.WaitingCapacity, b.WaitingCapacity)
	setInt(&cfg.BayCount, b.BayCount)
	setInt(&cfg.TotalArrivals, b.TotalArrivals)
	if b.Trace != "" {
		cfg.TraceLevel = trace.TraceLevel(b.Trace)
	}
	setDur(&cfg.Timing.BaseService, b.Timing.BaseService)
	setDur(&cfg.Timing.StepFloor, b.Timing.StepFloor)
	setDur(&cfg.Timing.BaseArrivalInterval, b.Timing.BaseArrivalInterval)
	setDur(&cfg.Timing.MinArrivalInterval, b.Timing.MinArrivalInterval)
	setDur(&cfg.Timing.CompletionPoll, b.Timing.CompletionPoll)
	setDur(&cfg.Timing.CompletionGrace, b.Timing.CompletionGrace)
}
