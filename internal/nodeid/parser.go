// internal/nodeid/parser.go
package nodeid

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex matches a single kind or name segment.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

// ValidSegment reports whether s can be used as a kind or a name.
func ValidSegment(s string) bool {
	return segmentRegex.MatchString(s)
}

// Parse creates an Address from its canonical string representation.
// Surrounding whitespace is ignored; the kind is lower-cased.
func Parse(rawID string) (Address, error) {
	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		return Address{}, fmt.Errorf("address cannot be empty")
	}

	kind, name, ok := strings.Cut(rawID, ".")
	if !ok {
		return Address{}, fmt.Errorf("address %q must have the form kind.name", rawID)
	}
	if !ValidSegment(kind) {
		return Address{}, fmt.Errorf("invalid kind %q in address %q", kind, rawID)
	}
	if !ValidSegment(name) {
		return Address{}, fmt.Errorf("invalid name %q in address %q", name, rawID)
	}
	return Address{Kind: strings.ToLower(kind), Name: name}, nil
}

// FromParts builds an address from already separated segments, validating
// both.
func FromParts(parts ...string) (Address, error) {
	if len(parts) != 2 {
		return Address{}, fmt.Errorf("address %q must have exactly two parts, got %d", strings.Join(parts, "."), len(parts))
	}
	return Parse(parts[0] + "." + parts[1])
}
