package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/station-sim/station-sim/sim"
)

// resetRunFlags restores every run flag to its default and clears Changed.
func resetRunFlags(t *testing.T) {
	t.Helper()
	reset := func() {
		runCmd.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	reset()
	t.Cleanup(reset)
}

func writeStationYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "station.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildConfig_Defaults(t *testing.T) {
	resetRunFlags(t)

	cfg, speed, err := buildConfig(runCmd)

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.WaitingCapacity)
	assert.Equal(t, 2, cfg.BayCount)
	assert.Equal(t, 15, cfg.TotalArrivals)
	assert.EqualValues(t, "services", cfg.TraceLevel)
	assert.Equal(t, sim.DefaultSpeedFactor, speed)
}

func TestBuildConfig_BundleOverridesDefaults_FlagsOverrideBundle(t *testing.T) {
	// GIVEN a bundle setting bays, arrivals and speed
	resetRunFlags(t)
	path := writeStationYAML(t, "bay_count: 4\ntotal_arrivals: 30\nspeed: 5\n")
	require.NoError(t, runCmd.Flags().Set("config", path))

	// AND an explicit --arrivals flag
	require.NoError(t, runCmd.Flags().Set("arrivals", "7"))

	// WHEN the config is built
	cfg, speed, err := buildConfig(runCmd)

	// THEN the bundle beats defaults and the explicit flag beats the bundle
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.WaitingCapacity, "default kept")
	assert.Equal(t, 4, cfg.BayCount, "from bundle")
	assert.Equal(t, 7, cfg.TotalArrivals, "from flag")
	assert.Equal(t, 5, speed, "from bundle")
}

func TestBuildConfig_OutOfRange_ReturnsConfigError(t *testing.T) {
	tests := []struct {
		flag, value, field string
	}{
		{"waiting", "0", "waiting capacity"},
		{"bays", "11", "bay count"},
		{"arrivals", "51", "total arrivals"},
		{"speed", "12", "speed factor"},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			resetRunFlags(t)
			require.NoError(t, runCmd.Flags().Set(tt.flag, tt.value))

			_, _, err := buildConfig(runCmd)

			var cfgErr *sim.ConfigError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestBuildConfig_InvalidBundle_Rejected(t *testing.T) {
	resetRunFlags(t)
	require.NoError(t, runCmd.Flags().Set("config", writeStationYAML(t, "speed: 0\n")))

	_, _, err := buildConfig(runCmd)

	assert.ErrorContains(t, err, "station config")
}
