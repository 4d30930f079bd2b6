package builder

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/graf/internal/device"
)

// setter decodes one attribute value onto a device body.
type setter func(body device.Body, v cty.Value) error

var clockSetters = map[string]setter{
	"bpm_sync": func(b device.Body, v cty.Value) error { return decode(v, cty.Bool, &b.(*device.Clock).BPMSync) },
	"period":   func(b device.Body, v cty.Value) error { return decode(v, cty.Number, &b.(*device.Clock).Period) },
	"length":   func(b device.Body, v cty.Value) error { return decodeFraction(v, &b.(*device.Clock).Length) },
	"gate":     func(b device.Body, v cty.Value) error { return decode(v, cty.Number, &b.(*device.Clock).Gate) },
	"offset":   func(b device.Body, v cty.Value) error { return decode(v, cty.Number, &b.(*device.Clock).Offset) },
}

var gateSetters = map[string]setter{
	"operation": func(b device.Body, v cty.Value) error {
		var s string
		if err := decode(v, cty.String, &s); err != nil {
			return err
		}
		op, err := device.ParseOperation(s)
		if err != nil {
			return err
		}
		b.(*device.Gate).Operation = op
		return nil
	},
}

var latchSetters = map[string]setter{
	"on": func(b device.Body, v cty.Value) error { return decode(v, cty.Bool, &b.(*device.Latch).On) },
}

var triggerSetters = map[string]setter{
	"duration":  func(b device.Body, v cty.Value) error { return decode(v, cty.Number, &b.(*device.Trigger).Duration) },
	"bpm_sync":  func(b device.Body, v cty.Value) error { return decode(v, cty.Bool, &b.(*device.Trigger).BPMSync) },
	"length":    func(b device.Body, v cty.Value) error { return decodeFraction(v, &b.(*device.Trigger).Length) },
	"retrigger": func(b device.Body, v cty.Value) error { return decode(v, cty.Bool, &b.(*device.Trigger).Retrigger) },
}

var noteSetters = map[string]setter{
	"channel":  func(b device.Body, v cty.Value) error { return decode(v, cty.Number, &b.(*device.Note).Channel) },
	"octave":   func(b device.Body, v cty.Value) error { return decode(v, cty.Number, &b.(*device.Note).Octave) },
	"velocity": func(b device.Body, v cty.Value) error { return decode(v, cty.Number, &b.(*device.Note).Velocity) },
	"pitch": func(b device.Body, v cty.Value) error {
		var s string
		if err := decode(v, cty.String, &s); err != nil {
			return err
		}
		p, err := device.ParsePitchClass(s)
		if err != nil {
			return err
		}
		b.(*device.Note).Pitch = p
		return nil
	},
}

func settersFor(kind device.Kind) map[string]setter {
	switch kind {
	case device.KindClock:
		return clockSetters
	case device.KindGate:
		return gateSetters
	case device.KindLatch:
		return latchSetters
	case device.KindTrigger:
		return triggerSetters
	case device.KindNote:
		return noteSetters
	default:
		return nil
	}
}

// decodeSettings applies every attribute to body in name order. Unknown
// attributes are errors.
func decodeSettings(body device.Body, settings map[string]cty.Value) error {
	setters := settersFor(device.KindOf(body))
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(settings)) {
		set, ok := setters[name]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown attribute %q for a %s device", name, device.KindOf(body)))
			continue
		}
		if err := set(body, settings[name]); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func decode[T any](v cty.Value, ty cty.Type, dst *T) error {
	if v.IsNull() {
		return errors.New("must not be null")
	}
	if !v.IsWhollyKnown() {
		return errors.New("must be a known value")
	}
	cv, err := convert.Convert(v, ty)
	if err != nil {
		return err
	}
	return gocty.FromCtyValue(cv, dst)
}

// decodeFraction accepts either a two-element sequence [num, den] or a
// "num/den" string.
func decodeFraction(v cty.Value, dst *device.Fraction) error {
	if v.IsNull() {
		return errors.New("must not be null")
	}
	if v.Type() == cty.String {
		num, den, ok := strings.Cut(v.AsString(), "/")
		if !ok {
			return fmt.Errorf("fraction %q must look like n/d", v.AsString())
		}
		n, err := strconv.ParseUint(strings.TrimSpace(num), 10, 32)
		if err != nil {
			return fmt.Errorf("fraction %q: %w", v.AsString(), err)
		}
		d, err := strconv.ParseUint(strings.TrimSpace(den), 10, 32)
		if err != nil {
			return fmt.Errorf("fraction %q: %w", v.AsString(), err)
		}
		*dst = device.Fraction{Num: uint32(n), Den: uint32(d)}
		return nil
	}

	var parts []uint32
	if err := decode(v, cty.List(cty.Number), &parts); err != nil {
		return fmt.Errorf("fraction must be [n, d] or \"n/d\": %w", err)
	}
	if len(parts) != 2 {
		return fmt.Errorf("fraction must have exactly 2 elements, got %d", len(parts))
	}
	*dst = device.Fraction{Num: parts[0], Den: parts[1]}
	return nil
}
