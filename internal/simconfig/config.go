// Package simconfig loads and saves the YAML scenario used by escsim.
package simconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"escgate-go/internal/logger"
	"escgate-go/services/esc"
	"escgate-go/types"
)

// Config is one simulator scenario.
type Config struct {
	// ESC is the controller configuration published on config/esc.
	ESC types.ESCConfig `yaml:"esc"`
	// Duration is how long the scenario runs.
	Duration time.Duration `yaml:"duration"`
	// Presses are button press times, measured from start.
	Presses []time.Duration `yaml:"presses"`
	// Sweep drives the throttle input over time.
	Sweep Sweep `yaml:"sweep"`
	// Report is the period of state log lines; zero logs events only.
	Report time.Duration `yaml:"report"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Sweep ramps the simulated throttle from From to To.
type Sweep struct {
	Start time.Duration `yaml:"start"`
	Over  time.Duration `yaml:"over"`
	From  uint16        `yaml:"from"`
	To    uint16        `yaml:"to"`
	Steps uint16        `yaml:"steps"`
}

const (
	// DefaultConfigFilename is used when no path is given.
	DefaultConfigFilename = "escsim.yaml"
	// DefaultDuration bounds a scenario without an explicit duration.
	DefaultDuration = 10 * time.Second
	// DefaultSweepSteps is used when a sweep is set without steps.
	DefaultSweepSteps = 50
	// DefaultFilePermissions is the mode for saved scenarios.
	DefaultFilePermissions = 0o600
)

var (
	errConfigIsNotSet = errors.New("configuration is not set")
	errPressOutside   = errors.New("press time outside scenario duration")
)

// Default is a scenario that arms, sweeps the throttle and disarms.
func Default() *Config {
	return &Config{
		ESC:      types.ESCConfig{Policy: string(esc.PolicyRanged)},
		Duration: 8 * time.Second,
		Presses:  []time.Duration{500 * time.Millisecond, 7 * time.Second},
		Sweep: Sweep{
			Start: 4 * time.Second,
			Over:  2 * time.Second,
			From:  0,
			To:    esc.DefaultSampleMax,
			Steps: DefaultSweepSteps,
		},
		Report:   250 * time.Millisecond,
		LogLevel: "info",
	}
}

// Load reads a scenario from path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal scenario: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal scenario: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write scenario: %w", err)
	}

	return nil
}

// Validate fills defaults and checks the scenario, including the embedded
// controller configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if _, err := esc.Normalise(cfg.ESC); err != nil {
		return fmt.Errorf("esc: %w", err)
	}

	if cfg.Duration <= 0 {
		cfg.Duration = DefaultDuration
	}

	sort.Slice(cfg.Presses, func(i, j int) bool { return cfg.Presses[i] < cfg.Presses[j] })
	for _, p := range cfg.Presses {
		if p < 0 || p > cfg.Duration {
			return fmt.Errorf("%w: %v", errPressOutside, p)
		}
	}

	if cfg.Sweep.Over > 0 && cfg.Sweep.Steps == 0 {
		cfg.Sweep.Steps = DefaultSweepSteps
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}

	return nil
}
