package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/station-sim/station-sim/sim"
	"github.com/station-sim/station-sim/sim/trace"
)

// buildConfig resolves the run configuration. Precedence, lowest first:
// flag defaults, the --config bundle, flags set explicitly on the command line.
func buildConfig(cmd *cobra.Command) (sim.Config, int, error) {
	cfg := sim.NewConfig(waitingCapacity, bayCount, totalArrivals)
	cfg.TraceLevel = trace.TraceLevel(traceLevel)
	speed := speedFactor

	if configPath != "" {
		bundle, err := sim.LoadStationBundle(configPath)
		if err != nil {
			return sim.Config{}, 0, err
		}
		if err := bundle.Validate(); err != nil {
			return sim.Config{}, 0, fmt.Errorf("station config %s: %w", configPath, err)
		}
		bundle.Apply(&cfg)
		if bundle.Speed != nil {
			speed = *bundle.Speed
		}
	}

	flags := cmd.Flags()
	if flags.Changed("waiting") {
		cfg.WaitingCapacity = waitingCapacity
	}
	if flags.Changed("bays") {
		cfg.BayCount = bayCount
	}
	if flags.Changed("arrivals") {
		cfg.TotalArrivals = totalArrivals
	}
	if flags.Changed("trace") {
		cfg.TraceLevel = trace.TraceLevel(traceLevel)
	}
	if flags.Changed("speed") {
		speed = speedFactor
	}

	if speed < sim.MinSpeedFactor || speed > sim.MaxSpeedFactor {
		return sim.Config{}, 0, &sim.ConfigError{Field: "speed factor", Value: speed, Min: sim.MinSpeedFactor, Max: sim.MaxSpeedFactor}
	}
	if err := cfg.Validate(); err != nil {
		return sim.Config{}, 0, err
	}
	return cfg, speed, nil
}
