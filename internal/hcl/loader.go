package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/graf/internal/config"
	"github.com/vk/graf/internal/ctxlog"
	"github.com/vk/graf/internal/fsutil"
	"github.com/vk/graf/internal/transport"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	bpm int
}

// Option configures a Loader.
type Option func(*Loader)

// WithBPM makes `bpm` in device settings evaluate to bpm instead of the
// tempo of the transport block. Zero keeps the transport's tempo.
func WithBPM(bpm int) Option {
	return func(l *Loader) {
		l.bpm = bpm
	}
}

// NewLoader creates a new HCL circuit loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load finds every .hcl file under paths, parses them all and translates
// their blocks into one model. Device settings are evaluated only after the
// transport block has been seen, so they may refer to `bpm` wherever the
// transport is defined.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.ExpandPaths(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl circuit files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var bodies []hcl.Body
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		bodies = append(bodies, hclFile.Body)
	}
	return l.translate(ctx, bodies)
}

// LoadBytes parses a single in-memory circuit description. filename is used
// only in diagnostics.
func (l *Loader) LoadBytes(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return l.translate(ctx, []hcl.Body{hclFile.Body})
}

func (l *Loader) translate(ctx context.Context, bodies []hcl.Body) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	var blocks hcl.Blocks
	for _, body := range bodies {
		content, diags := body.Content(rootSchema)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL body: %w", diags)
		}
		blocks = append(blocks, content.Blocks...)
	}

	model := &config.Model{}
	for _, block := range blocks.OfType("transport") {
		t, err := translateTransport(block)
		if err != nil {
			return nil, err
		}
		if err := model.Merge(&config.Model{Transport: t}); err != nil {
			return nil, err
		}
	}

	bpm := transport.DefaultBPM
	switch {
	case l.bpm > 0:
		bpm = l.bpm
	case model.Transport != nil && model.Transport.BPM > 0:
		bpm = model.Transport.BPM
	}
	evalCtx := newEvalContext(bpm)

	for _, block := range blocks.OfType("device") {
		d, err := translateDevice(block, evalCtx)
		if err != nil {
			return nil, err
		}
		model.Devices = append(model.Devices, d)
	}
	for _, block := range blocks.OfType("wire") {
		w, err := translateWire(block, evalCtx)
		if err != nil {
			return nil, err
		}
		model.Wires = append(model.Wires, w)
	}

	logger.Debug("HCL loading complete.", "devices", len(model.Devices), "wires", len(model.Wires), "has_transport", model.Transport != nil)
	return model, nil
}

// newEvalContext exposes the tempo and a handful of numeric functions to
// device settings.
func newEvalContext(bpm int) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"bpm": cty.NumberIntVal(int64(bpm)),
		},
		Functions: map[string]function.Function{
			"min":   stdlib.MinFunc,
			"max":   stdlib.MaxFunc,
			"abs":   stdlib.AbsoluteFunc,
			"floor": stdlib.FloorFunc,
			"ceil":  stdlib.CeilFunc,
		},
	}
}

func translateTransport(block *hcl.Block) (*config.Transport, error) {
	var tb transportBlock
	if diags := gohcl.DecodeBody(block.Body, nil, &tb); diags.HasErrors() {
		return nil, fmt.Errorf("invalid transport block at %s: %w", block.DefRange, diags)
	}
	t := &config.Transport{Source: block.DefRange.String()}
	if tb.BPM != nil {
		t.BPM = *tb.BPM
	}
	if tb.Paused != nil {
		t.Paused = *tb.Paused
	}
	return t, nil
}

func translateDevice(block *hcl.Block, evalCtx *hcl.EvalContext) (*config.Device, error) {
	kind, name := block.Labels[0], block.Labels[1]
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid device %s.%s at %s: %w", kind, name, block.DefRange, diags)
	}

	settings := make(map[string]cty.Value, len(attrs))
	for attrName, attr := range attrs {
		val, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate %s of device %s.%s: %w", attrName, kind, name, diags)
		}
		settings[attrName] = val
	}

	return &config.Device{
		Kind:     kind,
		Name:     name,
		Settings: settings,
		Source:   block.DefRange.String(),
	}, nil
}

func translateWire(block *hcl.Block, evalCtx *hcl.EvalContext) (*config.Wire, error) {
	content, diags := block.Body.Content(wireSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid wire block at %s: %w", block.DefRange, diags)
	}

	w := &config.Wire{Source: block.DefRange.String()}
	from, err := endpointAddress(content.Attributes["from"].Expr, evalCtx)
	if err != nil {
		return nil, fmt.Errorf("invalid wire source at %s: %w", block.DefRange, err)
	}
	to, err := endpointAddress(content.Attributes["to"].Expr, evalCtx)
	if err != nil {
		return nil, fmt.Errorf("invalid wire target at %s: %w", block.DefRange, err)
	}
	w.From, w.To = from, to

	if attr, ok := content.Attributes["negated"]; ok {
		val, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid wire at %s: %w", block.DefRange, diags)
		}
		if err := gocty.FromCtyValue(val, &w.Negated); err != nil {
			return nil, fmt.Errorf("negated must be a bool at %s: %w", block.DefRange, err)
		}
	}
	return w, nil
}
