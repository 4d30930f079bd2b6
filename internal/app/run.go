package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/vk/graf/internal/builder"
	"github.com/vk/graf/internal/ctxlog"
	"github.com/vk/graf/internal/midi"
	"github.com/vk/graf/internal/monitor"
)

// Run builds the circuit and ticks it until the context is cancelled or
// MaxTicks is reached. Sounding notes are released before it returns.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger.With("run", a.runID))
	a.logger.Debug("App.Run method started.")

	if err := a.start(ctx); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.stop(ctx))
	}()

	ticker := time.NewTicker(a.config.TickInterval)
	defer ticker.Stop()

	a.logger.Info("Circuit running.", "devices", len(a.circuit.Addresses()), "tick_interval", a.config.TickInterval)
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Circuit stopped.", "reason", ctx.Err())
			return nil
		case now := <-ticker.C:
			if _, err := a.tick(ctx, now); err != nil {
				return err
			}
			if a.config.MaxTicks > 0 && a.circuit.Session.Ticks() >= a.config.MaxTicks {
				a.logger.Info("Circuit finished.", "ticks", a.circuit.Session.Ticks())
				return nil
			}
		}
	}
}

// start builds the circuit and opens every output.
func (a *App) start(ctx context.Context) error {
	circuit, err := builder.Build(ctx, a.model, a.now())
	if err != nil {
		return fmt.Errorf("failed to build circuit: %w", err)
	}
	a.circuit = circuit
	if a.config.BPM > 0 {
		if err := circuit.Session.SetBPM(a.config.BPM); err != nil {
			return err
		}
	}

	outputs := midi.MultiOutput{midi.LogOutput{}}
	if a.config.MIDIOut != "" {
		f, err := os.Create(a.config.MIDIOut)
		if err != nil {
			return fmt.Errorf("failed to open midi output: %w", err)
		}
		stream := midi.NewStreamOutput(f)
		outputs = append(outputs, stream)
		a.closers = append(a.closers, stream)
	}
	if a.config.MonitorURL != "" {
		m, err := monitor.Dial(ctx, monitor.Config{
			URL:                a.config.MonitorURL,
			Namespace:          a.config.MonitorNamespace,
			InsecureSkipVerify: a.config.InsecureSkipVerify,
		}, a.runID)
		if err != nil {
			a.closeAll()
			return err
		}
		a.monitor = m
		outputs = append(outputs, midi.Tolerant{Output: m})
		a.closers = append(a.closers, m)
	}
	a.output = outputs

	a.healthCheckServer(ctx)
	return nil
}

// tick evaluates the circuit once at wall time now, flushes MIDI and
// publishes the resulting frame.
func (a *App) tick(ctx context.Context, now time.Time) (monitor.Frame, error) {
	sess := a.circuit.Session
	outputs := sess.Update(ctx, now)
	if err := sess.Flush(ctx, a.output); err != nil {
		return monitor.Frame{}, err
	}

	tc := sess.Transport()
	frame := monitor.Frame{
		Run:     a.runID,
		Tick:    sess.Ticks(),
		Beat:    tc.BeatClock,
		BPM:     tc.BPM,
		Paused:  tc.Paused,
		Outputs: make(map[string]bool, len(outputs)),
	}
	for addr, v := range builder.Named(a.circuit, outputs) {
		frame.Outputs[addr.String()] = v
	}
	if a.monitor != nil {
		if err := a.monitor.Publish(ctx, frame); err != nil {
			ctxlog.FromContext(ctx).Warn("Failed to publish frame.", "tick", frame.Tick, "error", err)
		}
	}
	return frame, nil
}

// stop releases every sounding note, flushes the final events and closes
// the outputs and the health check server.
func (a *App) stop(ctx context.Context) error {
	// ctx may already be cancelled; the final flush must still go out.
	ctx = context.WithoutCancel(ctx)

	a.circuit.Session.Silence()
	err := a.circuit.Session.Flush(ctx, a.output)
	return errors.Join(err, a.closeAll(), a.closeHealthCheckServer(ctx))
}

func (a *App) closeAll() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
