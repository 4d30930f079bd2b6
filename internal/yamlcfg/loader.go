// Package yamlcfg loads circuit descriptions written in YAML into the
// format-agnostic config model. The document layout mirrors the HCL one:
//
//	transport:
//	  bpm: 120
//	devices:
//	  - kind: clock
//	    name: kick
//	    settings:
//	      length: [1, 4]
//	wires:
//	  - from: clock.kick
//	    to: gate.mix
//	    negated: true
package yamlcfg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/vk/graf/internal/config"
	"github.com/vk/graf/internal/ctxlog"
	"github.com/vk/graf/internal/fsutil"
	"github.com/vk/graf/internal/nodeid"
)

type document struct {
	Transport *transportDoc `yaml:"transport"`
	Devices   []deviceDoc   `yaml:"devices"`
	Wires     []wireDoc     `yaml:"wires"`
}

type transportDoc struct {
	BPM    int  `yaml:"bpm"`
	Paused bool `yaml:"paused"`
}

type deviceDoc struct {
	Kind     string         `yaml:"kind"`
	Name     string         `yaml:"name"`
	Settings map[string]any `yaml:"settings"`
}

type wireDoc struct {
	From    string `yaml:"from"`
	To      string `yaml:"to"`
	Negated bool   `yaml:"negated"`
}

// Loader is the YAML implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new YAML circuit loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads every .yaml and .yml file under paths and merges them into one
// model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	files, err := fsutil.ExpandPaths(paths, ".yaml", ".yml")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .yaml circuit files found in %v", paths)
	}

	model := &config.Model{}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read circuit file: %w", err)
		}
		m, err := l.LoadBytes(ctx, file, data)
		if err != nil {
			return nil, err
		}
		if err := model.Merge(m); err != nil {
			return nil, err
		}
	}

	logger.Debug("YAML loading complete.", "files", len(files), "devices", len(model.Devices), "wires", len(model.Wires))
	return model, nil
}

// LoadBytes parses a single YAML document. Unknown fields are rejected.
func (l *Loader) LoadBytes(_ context.Context, filename string, data []byte) (*config.Model, error) {
	var doc document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML file %s: %w", filename, err)
	}

	model := &config.Model{}
	if doc.Transport != nil {
		model.Transport = &config.Transport{
			BPM:    doc.Transport.BPM,
			Paused: doc.Transport.Paused,
			Source: filename + ": transport",
		}
	}

	for i, d := range doc.Devices {
		source := fmt.Sprintf("%s: devices[%d]", filename, i)
		if d.Kind == "" || d.Name == "" {
			return nil, fmt.Errorf("%s: device needs both kind and name", source)
		}
		settings := make(map[string]cty.Value, len(d.Settings))
		for key, raw := range d.Settings {
			v, err := toCty(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: setting %s: %w", source, key, err)
			}
			settings[key] = v
		}
		model.Devices = append(model.Devices, &config.Device{
			Kind:     d.Kind,
			Name:     d.Name,
			Settings: settings,
			Source:   source,
		})
	}

	for i, w := range doc.Wires {
		source := fmt.Sprintf("%s: wires[%d]", filename, i)
		from, err := nodeid.Parse(w.From)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid wire source: %w", source, err)
		}
		to, err := nodeid.Parse(w.To)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid wire target: %w", source, err)
		}
		model.Wires = append(model.Wires, &config.Wire{
			From:    from,
			To:      to,
			Negated: w.Negated,
			Source:  source,
		})
	}
	return model, nil
}

// toCty converts a decoded YAML value into the cty value the HCL loader
// would have produced for the same literal.
func toCty(v any) (cty.Value, error) {
	switch x := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case bool:
		return cty.BoolVal(x), nil
	case int:
		return cty.NumberIntVal(int64(x)), nil
	case int64:
		return cty.NumberIntVal(x), nil
	case uint64:
		return cty.NumberUIntVal(x), nil
	case float64:
		if math.IsNaN(x) {
			return cty.NilVal, errors.New("NaN is not a valid number")
		}
		return cty.NumberFloatVal(x), nil
	case string:
		return cty.StringVal(x), nil
	case []any:
		if len(x) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(x))
		for i, e := range x {
			ev, err := toCty(e)
			if err != nil {
				return cty.NilVal, err
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	case map[string]any:
		if len(x) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(x))
		for k, e := range x {
			ev, err := toCty(e)
			if err != nil {
				return cty.NilVal, err
			}
			attrs[k] = ev
		}
		return cty.ObjectVal(attrs), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported value of type %T", v)
	}
}
