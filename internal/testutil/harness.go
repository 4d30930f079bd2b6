// Package testutil runs circuits end to end through the application for
// integration tests.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vk/graf/internal/app"
	"github.com/vk/graf/internal/config"
	"github.com/vk/graf/internal/hcl"
	"github.com/vk/graf/internal/yamlcfg"
)

// DefaultTicks is how many ticks a harness run lasts when the caller does
// not say.
const DefaultTicks = 4

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	// MIDI is everything written to the raw MIDI output.
	MIDI []byte
}

// RunCircuit writes files into a temporary directory, loads them as one
// circuit and runs it. Unset fields of cfg get test defaults: the circuit
// path is the temporary directory, ticks are 1ms apart and the run stops
// after DefaultTicks. Startup errors are reported in the result rather than
// failing the test.
func RunCircuit(t *testing.T, files map[string]string, cfg app.Config) *HarnessResult {
	t.Helper()
	return RunCircuitWithContext(context.Background(), t, files, cfg)
}

// RunCircuitWithContext is RunCircuit with a caller-provided context.
func RunCircuitWithContext(ctx context.Context, t *testing.T, files map[string]string, cfg app.Config) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	if len(cfg.CircuitPaths) == 0 {
		cfg.CircuitPaths = []string{tmpDir}
	} else {
		for i, p := range cfg.CircuitPaths {
			cfg.CircuitPaths[i] = filepath.Join(tmpDir, p)
		}
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = time.Millisecond
	}
	if cfg.MaxTicks == 0 {
		cfg.MaxTicks = DefaultTicks
	}
	midiPath := filepath.Join(t.TempDir(), "out.mid")
	cfg.MIDIOut = midiPath
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"

	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}
	result := &HarnessResult{}
	defer func() {
		result.LogOutput = logBuffer.String()
		if os.Getenv("GRAF_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), result.LogOutput)
		}
	}()

	testApp, err := app.NewApp(logBuffer, appConfig, loaderFor(appConfig))
	if err != nil {
		result.Err = err
		return result
	}
	result.App = testApp

	result.Err = testApp.Run(ctx)
	if data, err := os.ReadFile(midiPath); err == nil {
		result.MIDI = data
	}
	return result
}

func loaderFor(cfg *app.Config) config.Loader {
	if cfg.Format == app.FormatYAML {
		return yamlcfg.NewLoader()
	}
	return hcl.NewLoader(hcl.WithBPM(cfg.BPM))
}
