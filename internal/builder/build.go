package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/graf/internal/config"
	"github.com/vk/graf/internal/ctxlog"
	"github.com/vk/graf/internal/dag"
	"github.com/vk/graf/internal/device"
	"github.com/vk/graf/internal/nodeid"
	"github.com/vk/graf/internal/session"
)

// Build constructs a complete, validated circuit from a config model. The
// session's clocks start at now.
func Build(ctx context.Context, model *config.Model, now time.Time) (*Circuit, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting circuit construction.")

	c := &Circuit{
		Session: session.New(now),
		ids:     make(map[nodeid.Address]dag.ID),
		addrs:   make(map[dag.ID]nodeid.Address),
	}

	// First pass: create every device.
	if err := createDevices(ctx, model.Devices, c); err != nil {
		return nil, err
	}
	logger.Debug("Build: Device creation complete.", "device_count", len(c.ids))

	// Second pass: wire them together.
	if err := linkDevices(ctx, model.Wires, c); err != nil {
		return nil, err
	}
	logger.Debug("Build: Wiring complete.", "wire_count", len(model.Wires))

	if t := model.Transport; t != nil {
		if t.BPM != 0 {
			if err := c.Session.SetBPM(t.BPM); err != nil {
				return nil, fmt.Errorf("invalid transport at %s: %w", t.Source, err)
			}
		}
		if t.Paused {
			c.Session.TogglePause()
		}
	}

	logger.Info("Build: Circuit construction successful.", "devices", len(c.ids), "wires", len(model.Wires))
	return c, nil
}

func createDevices(ctx context.Context, defs []*config.Device, c *Circuit) error {
	logger := ctxlog.FromContext(ctx)
	sources := make(map[nodeid.Address]string, len(defs))

	for _, def := range defs {
		addr := def.Address()
		if prev, exists := sources[addr]; exists {
			return fmt.Errorf("device %s defined twice: at %s and at %s", addr, prev, def.Source)
		}
		sources[addr] = def.Source

		body, err := newBody(def)
		if err != nil {
			return err
		}
		id := c.Session.AddDevice(body)
		c.ids[addr] = id
		c.addrs[id] = addr
		logger.Debug("Created device.", "address", addr, "id", id)
	}
	return nil
}

func newBody(def *config.Device) (device.Body, error) {
	kind, err := device.ParseKind(def.Kind)
	if err != nil {
		return nil, fmt.Errorf("device %s.%s at %s: %w", def.Kind, def.Name, def.Source, err)
	}
	body, err := device.New(kind)
	if err != nil {
		return nil, err
	}
	if err := decodeSettings(body, def.Settings); err != nil {
		return nil, fmt.Errorf("device %s at %s: %w", def.Address(), def.Source, err)
	}
	if err := device.Validate(body); err != nil {
		return nil, fmt.Errorf("device %s at %s: %w", def.Address(), def.Source, err)
	}
	return body, nil
}

func linkDevices(ctx context.Context, wires []*config.Wire, c *Circuit) error {
	logger := ctxlog.FromContext(ctx)

	for _, w := range wires {
		from, ok := c.ids[w.From]
		if !ok {
			return fmt.Errorf("wire at %s refers to unknown device %s", w.Source, w.From)
		}
		to, ok := c.ids[w.To]
		if !ok {
			return fmt.Errorf("wire at %s refers to unknown device %s", w.Source, w.To)
		}
		if err := c.Session.CheckConnect(from, to); err != nil {
			return fmt.Errorf("cannot wire %s to %s at %s: %w", w.From, w.To, w.Source, err)
		}
		polarity := dag.Normal
		if w.Negated {
			polarity = dag.Negated
		}
		if err := c.Session.Connect(ctx, from, to, polarity); err != nil {
			return fmt.Errorf("cannot wire %s to %s at %s: %w", w.From, w.To, w.Source, err)
		}
		logger.Debug("Linked devices.", "from", w.From, "to", w.To, "polarity", polarity)
	}
	return nil
}
