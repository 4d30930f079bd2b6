// internal/nodeid/doc.go

/*
Package nodeid provides the human-readable address of a device in a circuit
description, in the canonical form `<kind>.<name>`, e.g. `clock.kick`.

Circuit files refer to devices only by address; the builder maps addresses to
graph vertex ids. This package centralizes formatting and parsing so every
loader accepts exactly the same spellings.
*/
package nodeid
