package config

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/graf/internal/nodeid"
)

// Model is the unified, format-agnostic representation of a circuit.
type Model struct {
	Transport *Transport
	Devices   []*Device
	Wires     []*Wire
}

// Transport holds the initial tick context settings.
type Transport struct {
	BPM    int
	Paused bool
	// Source is a human-readable location of the definition, for errors.
	Source string
}

// Device is the format-agnostic representation of a `device` block.
type Device struct {
	Kind     string
	Name     string
	Settings map[string]cty.Value
	Source   string
}

// Address returns the device's `kind.name` address.
func (d *Device) Address() nodeid.Address {
	return nodeid.New(d.Kind, d.Name)
}

// Wire is the format-agnostic representation of a `wire` block.
type Wire struct {
	From    nodeid.Address
	To      nodeid.Address
	Negated bool
	Source  string
}

// Merge appends the contents of other to m. Defining the transport in more
// than one place is an error.
func (m *Model) Merge(other *Model) error {
	if other == nil {
		return nil
	}
	if other.Transport != nil {
		if m.Transport != nil {
			return fmt.Errorf("transport defined twice: at %s and at %s", m.Transport.Source, other.Transport.Source)
		}
		m.Transport = other.Transport
	}
	m.Devices = append(m.Devices, other.Devices...)
	m.Wires = append(m.Wires, other.Wires...)
	return nil
}
