package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"escgate-go/internal/logger"
	"escgate-go/internal/sim"
	"escgate-go/internal/simconfig"
)

var (
	// configPath to the scenario YAML file.
	configPath string
	// logLevel overrides the scenario's log level.
	logLevel string
	// duration overrides the scenario length.
	duration time.Duration
	// pressAt replaces the scenario's button presses.
	pressAt []time.Duration
	// sweepOver overrides the throttle ramp length.
	sweepOver time.Duration

	// rootCmd runs one scenario.
	rootCmd = &cobra.Command{
		Use:   "escsim",
		Short: "Run the ESC arm/disarm controller against simulated hardware.",
		Long: `Runs the throttle controller with a simulated button, throttle input and
pulse output. The scenario comes from a YAML file (see "escsim init"); flags
override individual fields.

Button presses toggle the controller through disarmed, arming and armed.
Mode changes and periodic state lines are logged.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			cfg, err := loadScenario(cmd)
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg)

			lvl, ok := logger.ParseLogLevel(cfg.LogLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", cfg.LogLevel)
			}
			logger.SetLevel(lvl)

			sum, err := sim.Run(ctx, cfg)
			if err != nil {
				return err
			}
			logger.Infof(ctx, "observed %d mode changes, peak armed pulse %d", len(sum.Events), sum.MaxPulse)
			return nil
		},
	}

	// initCmd writes the default scenario.
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a default scenario file.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := simconfig.Save(configPath, simconfig.Default()); err != nil {
				return err
			}
			logger.Infof(context.Background(), "wrote %s", scenarioPath())
			return nil
		},
	}
)

// Execute runs the escsim CLI and exits with non-zero status on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Errorf(context.Background(), "escsim: %v", err)
		os.Exit(1)
	}
}

// loadScenario reads the scenario file. Without an explicit --config a
// missing default file falls back to the built-in scenario.
func loadScenario(cmd *cobra.Command) (*simconfig.Config, error) {
	cfg, err := simconfig.Load(configPath)
	if err == nil {
		return cfg, nil
	}
	if !cmd.Flags().Changed("config") && errors.Is(err, os.ErrNotExist) {
		return simconfig.Default(), nil
	}
	return nil, err
}

func applyFlags(cmd *cobra.Command, cfg *simconfig.Config) {
	f := cmd.Flags()
	if f.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if f.Changed("duration") {
		cfg.Duration = duration
	}
	if f.Changed("press-at") {
		cfg.Presses = pressAt
	}
	if f.Changed("sweep") {
		cfg.Sweep.Over = sweepOver
	}
}

func scenarioPath() string {
	if configPath == "" {
		return simconfig.DefaultConfigFilename
	}
	return configPath
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", simconfig.DefaultConfigFilename, "path to scenario file")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().DurationVarP(&duration, "duration", "d", 0, "scenario length")
	rootCmd.Flags().DurationSliceVarP(&pressAt, "press-at", "p", nil, "button press times from start (repeatable)")
	rootCmd.Flags().DurationVar(&sweepOver, "sweep", 0, "throttle ramp length; 0 disables the sweep")

	rootCmd.AddCommand(initCmd)
}
