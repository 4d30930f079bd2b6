package hcl

import "github.com/hashicorp/hcl/v2"

// rootSchema lists every top-level block a circuit file may contain.
var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "transport"},
		{Type: "device", LabelNames: []string{"kind", "name"}},
		{Type: "wire"},
	},
}

// transportBlock is decoded with gohcl.
type transportBlock struct {
	BPM    *int  `hcl:"bpm,optional"`
	Paused *bool `hcl:"paused,optional"`
}

// wireSchema describes the body of a `wire` block. Endpoints are decoded by
// hand because they may be bare traversals.
var wireSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "from", Required: true},
		{Name: "to", Required: true},
		{Name: "negated"},
	},
}
