package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/vk/graf/internal/ctxlog"
	"github.com/vk/graf/internal/dag"
)

// DeviceSnapshot describes one device in a circuit snapshot.
type DeviceSnapshot struct {
	Address  string         `json:"address"`
	Kind     string         `json:"kind"`
	Output   *bool          `json:"output,omitempty"`
	Settings map[string]any `json:"settings"`
}

// WireSnapshot describes one wire in a circuit snapshot.
type WireSnapshot struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Negated bool   `json:"negated,omitempty"`
}

// Snapshot is the JSON document served at /circuit.
type Snapshot struct {
	Run     string           `json:"run"`
	Ticks   uint64           `json:"ticks"`
	BPM     int              `json:"bpm"`
	Beat    float64          `json:"beat"`
	Paused  bool             `json:"paused"`
	Devices []DeviceSnapshot `json:"devices"`
	Wires   []WireSnapshot   `json:"wires"`
}

// snapshot reports the circuit with devices in evaluation order.
func (a *App) snapshot() Snapshot {
	sess := a.circuit.Session
	tc := sess.Transport()
	last := sess.LastOutputs()

	snap := Snapshot{
		Run:     a.runID,
		Ticks:   sess.Ticks(),
		BPM:     tc.BPM,
		Beat:    tc.BeatClock,
		Paused:  tc.Paused,
		Devices: []DeviceSnapshot{},
		Wires:   []WireSnapshot{},
	}
	for _, id := range sess.Devices() {
		addr, _ := a.circuit.Address(id)
		settings, ok := sess.Describe(id)
		if !ok {
			continue
		}
		d := DeviceSnapshot{Address: addr.String(), Kind: addr.Kind, Settings: settings}
		if v, ok := last[id]; ok {
			d.Output = &v
		}
		snap.Devices = append(snap.Devices, d)
	}
	for _, w := range sess.Graph().Wires() {
		from, _ := a.circuit.Address(w.From)
		to, _ := a.circuit.Address(w.To)
		snap.Wires = append(snap.Wires, WireSnapshot{From: from.String(), To: to.String(), Negated: w.Polarity == dag.Negated})
	}
	return snap
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (a *App) circuitHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Circuit endpoint hit.", "remote_addr", r.RemoteAddr)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(a.snapshot()); err != nil {
		a.logger.Error("Failed to encode circuit snapshot.", "error", err)
	}
}

func (a *App) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.healthHandler)
	mux.HandleFunc("GET /circuit", a.circuitHandler)
	return mux
}

// healthCheckServer starts the HTTP server in the background when a port is
// configured.
func (a *App) healthCheckServer(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	if a.config.HealthcheckPort <= 0 {
		logger.Debug("Health check server not started: disabled.")
		return
	}

	addr := fmt.Sprintf(":%d", a.config.HealthcheckPort)
	a.httpServer = &http.Server{
		Addr:              addr,
		Handler:           a.handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info("Health check server starting.", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly.", "error", err)
		}
	}()
}

func (a *App) closeHealthCheckServer(ctx context.Context) error {
	if a.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ctxlog.FromContext(ctx).Info("Shutting down health check server.")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("health check server shutdown failed: %w", err)
	}
	return nil
}
