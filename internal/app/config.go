package app

import (
	"errors"
	"fmt"
	"time"
)

// DefaultTickInterval is how often the circuit is evaluated when no interval
// is configured: roughly once per display frame.
const DefaultTickInterval = 16 * time.Millisecond

// Circuit file formats.
const (
	FormatHCL  = "hcl"
	FormatYAML = "yaml"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	CircuitPaths []string // .hcl or .yaml files, directories or globs
	// Format selects the circuit loader: "hcl" or "yaml".
	Format string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	TickInterval time.Duration
	// BPM overrides the circuit's tempo when non-zero.
	BPM int
	// MaxTicks stops the run after that many ticks. Zero runs until the
	// context is cancelled.
	MaxTicks uint64

	// MIDIOut is a file that receives raw MIDI bytes. Empty disables it.
	MIDIOut string

	MonitorURL         string
	MonitorNamespace   string
	InsecureSkipVerify bool
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.CircuitPaths) == 0 {
		return nil, errors.New("at least one circuit path is required")
	}
	switch cfg.Format {
	case "":
		cfg.Format = FormatHCL
	case FormatHCL, FormatYAML:
	default:
		return nil, fmt.Errorf("unknown circuit format %q", cfg.Format)
	}
	if cfg.TickInterval < 0 {
		return nil, fmt.Errorf("tick interval must not be negative, got %s", cfg.TickInterval)
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.BPM < 0 || cfg.BPM > 999 {
		return nil, fmt.Errorf("bpm %d out of range 1..999", cfg.BPM)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck port %d out of range", cfg.HealthcheckPort)
	}
	return &cfg, nil
}
