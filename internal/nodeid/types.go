// internal/nodeid/types.go
package nodeid

// Address identifies a device by its kind and a name unique within that
// kind.
type Address struct {
	Kind string
	Name string
}

// New returns the address kind.name. It does not validate its arguments;
// use Parse for untrusted input.
func New(kind, name string) Address {
	return Address{Kind: kind, Name: name}
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a.Kind == "" && a.Name == ""
}
