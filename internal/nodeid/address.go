// internal/nodeid/address.go
package nodeid

import "strings"

// String serializes the Address into its canonical `kind.name` form.
func (a Address) String() string {
	if a.IsZero() {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(a.Kind) + 1 + len(a.Name))
	sb.WriteString(a.Kind)
	sb.WriteRune('.')
	sb.WriteString(a.Name)
	return sb.String()
}

// Less orders addresses by kind, then name.
func (a Address) Less(other Address) bool {
	if a.Kind != other.Kind {
		return a.Kind < other.Kind
	}
	return a.Name < other.Name
}

// MarshalText implements encoding.TextMarshaler so addresses can key JSON
// objects.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
