package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/graf/internal/nodeid"
)

// traversalAddress reads a device reference written as a bare traversal,
// e.g. `clock.kick`.
func traversalAddress(t hcl.Traversal) (nodeid.Address, error) {
	parts := make([]string, 0, len(t))
	for _, step := range t {
		switch p := step.(type) {
		case hcl.TraverseRoot:
			parts = append(parts, p.Name)
		case hcl.TraverseAttr:
			parts = append(parts, p.Name)
		default:
			return nodeid.Address{}, fmt.Errorf("device reference %s cannot be indexed", formatTraversal(t))
		}
	}
	return nodeid.FromParts(parts...)
}

// endpointAddress decodes a wire endpoint. Both `clock.kick` and
// `"clock.kick"` are accepted.
func endpointAddress(expr hcl.Expression, evalCtx *hcl.EvalContext) (nodeid.Address, error) {
	if t, diags := hcl.AbsTraversalForExpr(expr); !diags.HasErrors() {
		return traversalAddress(t)
	}

	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nodeid.Address{}, diags
	}
	if val.IsNull() || !val.Type().Equals(cty.String) {
		return nodeid.Address{}, fmt.Errorf("device reference must be kind.name or a string, got %s", val.Type().FriendlyName())
	}
	return nodeid.Parse(val.AsString())
}

// formatTraversal converts an hcl.Traversal to a human-readable string for
// error messages.
func formatTraversal(t hcl.Traversal) string {
	var out []byte
	for _, step := range t {
		switch p := step.(type) {
		case hcl.TraverseRoot:
			out = append(out, p.Name...)
		case hcl.TraverseAttr:
			out = append(out, '.')
			out = append(out, p.Name...)
		case hcl.TraverseIndex:
			out = append(out, "[...]"...)
		default:
			out = append(out, ".?"...)
		}
	}
	return string(out)
}
