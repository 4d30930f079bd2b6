package session

import (
	"context"
	"maps"
	"slices"

	"github.com/vk/graf/internal/ctxlog"
	"github.com/vk/graf/internal/dag"
	"github.com/vk/graf/internal/device"
)

// Clipboard holds copies of a selection of devices and the wires running
// between them.
type Clipboard struct {
	Devices map[dag.ID]device.Body
	Wires   []dag.Wire
}

// Empty reports whether the clipboard holds no devices.
func (c Clipboard) Empty() bool {
	return len(c.Devices) == 0
}

// Copy clones the selected devices and every wire whose endpoints are both
// selected. Unknown ids are skipped.
func (s *Session) Copy(ids []dag.ID) Clipboard {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	clip := Clipboard{Devices: make(map[dag.ID]device.Body, len(ids))}
	for _, id := range ids {
		if body, ok := s.devices[id]; ok {
			clip.Devices[id] = device.Clone(body)
		}
	}
	for _, w := range s.graph.Wires() {
		_, from := clip.Devices[w.From]
		_, to := clip.Devices[w.To]
		if from && to {
			clip.Wires = append(clip.Wires, w)
		}
	}
	return clip
}

// Paste adds fresh copies of the clipboard's devices and reconnects the
// copied wires between them. It returns the new ids in the order of the
// original ids. The clipboard can be pasted again. Wires that cannot be
// reconnected are dropped and counted in a warning.
func (s *Session) Paste(ctx context.Context, clip Clipboard) []dag.ID {
	old := slices.Sorted(maps.Keys(clip.Devices))
	remap := make(map[dag.ID]dag.ID, len(old))
	added := make([]dag.ID, 0, len(old))
	for _, id := range old {
		newID := s.AddDevice(device.Clone(clip.Devices[id]))
		remap[id] = newID
		added = append(added, newID)
	}

	failed := 0
	for _, w := range clip.Wires {
		from, okFrom := remap[w.From]
		to, okTo := remap[w.To]
		if !okFrom || !okTo {
			failed++
			continue
		}
		if err := s.Connect(ctx, from, to, w.Polarity); err != nil {
			failed++
		}
	}
	if failed > 0 {
		ctxlog.FromContext(ctx).Warn("Pasted devices with missing wires.", "devices", len(added), "wires", len(clip.Wires), "failed", failed)
	}
	return added
}
