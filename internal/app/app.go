package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vk/graf/internal/builder"
	"github.com/vk/graf/internal/config"
	"github.com/vk/graf/internal/ctxlog"
	"github.com/vk/graf/internal/midi"
	"github.com/vk/graf/internal/monitor"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	model  *config.Model
	runID  string
	now    func() time.Time

	circuit    *builder.Circuit
	output     midi.Output
	closers    []io.Closer
	monitor    *monitor.Monitor
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads the circuit
// files with loader but does not build or start anything yet.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.CircuitPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load circuit: %w", err)
	}
	logger.Debug("Circuit loaded into unified model.", "devices", len(model.Devices), "wires", len(model.Wires))

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		model:  model,
		runID:  id.String(),
		now:    time.Now,
	}, nil
}

// RunID identifies this run in logs and monitor frames.
func (a *App) RunID() string {
	return a.runID
}

// Circuit returns the built circuit, or nil before Run has started it.
func (a *App) Circuit() *builder.Circuit {
	return a.circuit
}
