package builder

import (
	"maps"
	"slices"

	"github.com/vk/graf/internal/dag"
	"github.com/vk/graf/internal/nodeid"
	"github.com/vk/graf/internal/session"
)

// Circuit is the primary artifact of the builder: a session plus the names
// its devices were given in the circuit file.
type Circuit struct {
	Session *session.Session

	ids   map[nodeid.Address]dag.ID
	addrs map[dag.ID]nodeid.Address
}

// ID returns the graph id of the device at addr.
func (c *Circuit) ID(addr nodeid.Address) (dag.ID, bool) {
	id, ok := c.ids[addr]
	return id, ok
}

// Address returns the circuit file address of the device with the given id.
func (c *Circuit) Address(id dag.ID) (nodeid.Address, bool) {
	addr, ok := c.addrs[id]
	return addr, ok
}

// Addresses returns every device address, sorted.
func (c *Circuit) Addresses() []nodeid.Address {
	return slices.SortedFunc(maps.Keys(c.ids), func(a, b nodeid.Address) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
}

// Named converts per-id values into per-address values. Ids without an
// address are dropped.
func Named[V any](c *Circuit, byID map[dag.ID]V) map[nodeid.Address]V {
	out := make(map[nodeid.Address]V, len(byID))
	for id, v := range byID {
		if addr, ok := c.addrs[id]; ok {
			out[addr] = v
		}
	}
	return out
}
