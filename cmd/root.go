package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/station-sim/station-sim/sim"
)

var (
	// CLI flags for the station layout
	waitingCapacity int    // Places in the waiting area
	bayCount        int    // Number of service bays (one worker each)
	totalArrivals   int    // Arrivals to generate before completion
	speedFactor     int    // Initial speed factor (1-10)
	configPath      string // Optional YAML station bundle
	traceLevel      string // Run trace level ("none" or "services")
	logLevel        string // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "station-sim",
	Short: "Concurrent service-station simulator",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd runs one simulation from CLI flags until it completes or is interrupted
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the service-station simulation",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, speed, err := buildConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		ctrl := sim.NewController(sim.LogSink{})
		ctrl.SetSpeedFactor(speed)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		startTime := time.Now()
		if err := ctrl.Start(cfg); err != nil {
			logrus.Fatalf("Unable to start simulation: %v", err)
		}

		select {
		case <-ctrl.Done():
		case <-ctx.Done():
			logrus.Info("Interrupted, stopping simulation")
			ctrl.Stop()
			if err := ctrl.Wait(context.Background()); err != nil {
				logrus.Warnf("waiting for teardown: %v", err)
			}
		}

		if err := printSummary(os.Stdout, ctrl, time.Since(startTime)); err != nil {
			logrus.Fatalf("writing summary: %v", err)
		}
		logrus.Infof("Simulation finished in state %s.", ctrl.State())
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().IntVar(&waitingCapacity, "waiting", 3, "Waiting area capacity (1-10)")
	runCmd.Flags().IntVar(&bayCount, "bays", 2, "Number of service bays (1-10)")
	runCmd.Flags().IntVar(&totalArrivals, "arrivals", 15, "Total arrivals to generate (1-50)")
	runCmd.Flags().IntVar(&speedFactor, "speed", sim.DefaultSpeedFactor, "Speed factor (1-10)")
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML station config")
	runCmd.Flags().StringVar(&traceLevel, "trace", "services", "Trace level (none, services)")

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(interactiveCmd)
	rootCmd.AddCommand(serveCmd)
}
