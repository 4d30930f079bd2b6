// Package executor runs one synchronous propagation pass over a circuit per
// tick.
package executor

import (
	"context"

	"github.com/vk/graf/internal/ctxlog"
	"github.com/vk/graf/internal/dag"
	"github.com/vk/graf/internal/transport"
)

// Devices is the device table the evaluator drives. Update advances the
// device behind id by one tick; ok is false when the device produced no
// value (a sink).
type Devices interface {
	Update(id dag.ID, tc *transport.Context, inputs []bool) (out bool, ok bool)
}

// Outputs maps every device that produced a value during a tick to that
// value.
type Outputs map[dag.ID]bool

// Evaluator walks a graph's cached topological order once per tick. It keeps
// no state between ticks.
type Evaluator struct {
	graph *dag.Graph
}

// New returns an evaluator over g.
func New(g *dag.Graph) *Evaluator {
	return &Evaluator{graph: g}
}

// Tick evaluates every vertex once, parents before children. The inputs of a
// vertex are the values of its parents in ascending parent ID order, with
// wire polarity applied; parents that produced no value contribute nothing.
//
// The returned mapping belongs to the caller.
func (e *Evaluator) Tick(ctx context.Context, devices Devices, tc *transport.Context) Outputs {
	order := e.graph.Vertices()
	outputs := make(Outputs, len(order))

	for _, id := range order {
		wires := e.graph.Incoming(id)
		inputs := make([]bool, 0, len(wires))
		for _, w := range wires {
			if v, ok := outputs[w.From]; ok {
				inputs = append(inputs, w.Apply(v))
			}
		}

		if out, ok := devices.Update(id, tc, inputs); ok {
			outputs[id] = out
		}
	}

	ctxlog.FromContext(ctx).Debug("Tick evaluated.", "devices", len(order), "outputs", len(outputs))
	return outputs
}
