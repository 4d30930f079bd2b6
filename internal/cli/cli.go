package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/vk/graf/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("graf", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
graf - A tick-driven logic circuit that plays MIDI.

Usage:
  graf [options] [CIRCUIT_PATH...]

Arguments:
  CIRCUIT_PATH
    A .hcl or .yaml file, a directory containing them, or a glob such as
    'circuits/**/*.hcl'.

Options:
`)
		flagSet.PrintDefaults()
	}

	circuitFlag := flagSet.String("circuit", "", "Path to a circuit file, directory or glob.")
	cFlag := flagSet.String("c", "", "Path to a circuit file, directory or glob (shorthand).")
	formatFlag := flagSet.String("format", "", "Circuit file format: 'hcl' or 'yaml'. Guessed from the first path when empty.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	tickFlag := flagSet.Duration("tick-interval", app.DefaultTickInterval, "Interval between circuit evaluations.")
	ticksFlag := flagSet.Uint64("ticks", 0, "Stop after this many ticks. 0 runs until interrupted.")
	bpmFlag := flagSet.Int("bpm", 0, "Override the circuit's tempo, including `bpm` in HCL settings. 0 keeps the circuit's own.")
	midiOutFlag := flagSet.String("midi-out", "", "File that receives raw MIDI bytes, e.g. a MIDI device node.")
	monitorURLFlag := flagSet.String("monitor-url", "", "socket.io server that receives frames and MIDI events.")
	monitorNSFlag := flagSet.String("monitor-namespace", "/", "socket.io namespace for the monitor.")
	insecureFlag := flagSet.Bool("insecure-skip-verify", false, "Skip TLS certificate verification for the monitor.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	var paths []string
	if *circuitFlag != "" {
		paths = append(paths, *circuitFlag)
	} else if *cFlag != "" {
		paths = append(paths, *cFlag)
	}
	paths = append(paths, flagSet.Args()...)
	slog.Debug("Circuit paths determined.", "paths", paths)
	if len(paths) == 0 {
		slog.Debug("No circuit path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *tickFlag <= 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid tick-interval: must be a positive duration"}
	}

	format := strings.ToLower(*formatFlag)
	if format == "" {
		format = guessFormat(paths[0])
	}
	slog.Debug("CLI parameter validation complete.", "format", format)

	config, err := app.NewConfig(app.Config{
		CircuitPaths:       paths,
		Format:             format,
		LogFormat:          logFormat,
		LogLevel:           logLevel,
		HealthcheckPort:    *healthPortFlag,
		TickInterval:       *tickFlag,
		MaxTicks:           *ticksFlag,
		BPM:                *bpmFlag,
		MIDIOut:            *midiOutFlag,
		MonitorURL:         *monitorURLFlag,
		MonitorNamespace:   *monitorNSFlag,
		InsecureSkipVerify: *insecureFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// guessFormat picks yaml for .yaml and .yml paths and hcl for everything
// else, directories included.
func guessFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return app.FormatYAML
	default:
		return app.FormatHCL
	}
}

