package device

import (
	"fmt"
	"strings"
)

// Operation is the boolean function a Gate folds over its inputs.
type Operation uint8

const (
	OpAND Operation = iota
	OpOR
	OpXOR
	OpNAND
	OpNOR
	OpXNOR
)

var operationNames = [...]string{"and", "or", "xor", "nand", "nor", "xnor"}

// String returns the lower-case operation name.
func (o Operation) String() string {
	if int(o) < len(operationNames) {
		return operationNames[o]
	}
	return fmt.Sprintf("Operation(%d)", uint8(o))
}

// ParseOperation maps an operation name to its Operation. Matching ignores
// case.
func ParseOperation(s string) (Operation, error) {
	for i, name := range operationNames {
		if strings.EqualFold(s, name) {
			return Operation(i), nil
		}
	}
	return 0, fmt.Errorf("unknown gate operation %q", s)
}

// Gate combines any number of inputs with a boolean operation.
type Gate struct {
	Operation Operation
}

// NewGate returns an AND gate.
func NewGate() *Gate {
	return &Gate{Operation: OpAND}
}

func (g *Gate) update(inputs []bool) bool {
	return g.Operation.Apply(inputs)
}

// Apply folds o over inputs. With no inputs AND and NOR are true, OR, XOR
// and NAND false, and XNOR true. XNOR is the complement of XOR, i.e. true
// when an even number of inputs are high.
func (o Operation) Apply(inputs []bool) bool {
	switch o {
	case OpAND:
		return allHigh(inputs)
	case OpOR:
		return anyHigh(inputs)
	case OpXOR:
		return parity(inputs)
	case OpNAND:
		return !allHigh(inputs)
	case OpNOR:
		return !anyHigh(inputs)
	case OpXNOR:
		return !parity(inputs)
	default:
		return false
	}
}

func (g *Gate) validate() error {
	if int(g.Operation) >= len(operationNames) {
		return fmt.Errorf("unknown gate operation %s", g.Operation)
	}
	return nil
}

func allHigh(in []bool) bool {
	for _, v := range in {
		if !v {
			return false
		}
	}
	return true
}

func anyHigh(in []bool) bool {
	for _, v := range in {
		if v {
			return true
		}
	}
	return false
}

func parity(in []bool) bool {
	odd := false
	for _, v := range in {
		odd = odd != v
	}
	return odd
}
