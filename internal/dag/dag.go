package dag

import (
	"maps"
	"slices"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		children: make(map[ID]map[ID]Polarity),
		parents:  make(map[ID]map[ID]Polarity),
		closure:  make(map[ID]map[ID]struct{}),
	}
}

// AddVertex allocates a fresh ID and adds it to the graph as an isolated
// vertex.
func (g *Graph) AddVertex() ID {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.last++
	id := g.last
	g.children[id] = make(map[ID]Polarity)
	g.parents[id] = make(map[ID]Polarity)
	g.recompute()
	return id
}

// AddWire inserts a directed wire from `from` to `to`.
//
// Adding a wire that already exists between the same ordered pair succeeds
// without changing anything, whatever the requested polarity. An
// *IllegalWireError is returned if either endpoint is missing or if `to`
// already reaches `from` (the wire would close a cycle); in both cases the
// graph is unchanged.
func (g *Graph) AddWire(from, to ID, p Polarity) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.children[from][to]; ok {
		return nil
	}
	if !g.hasVertex(from) || !g.hasVertex(to) {
		return &IllegalWireError{From: from, To: to, Reason: ReasonMissingVertex}
	}
	if g.reachable(to, from) {
		return &IllegalWireError{From: from, To: to, Reason: ReasonCycle}
	}

	g.children[from][to] = p
	g.parents[to][from] = p
	g.recompute()
	return nil
}

// RemoveVertex removes a vertex together with every wire touching it.
// Removing an absent vertex is a no-op.
func (g *Graph) RemoveVertex(id ID) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if !g.hasVertex(id) {
		return
	}
	for child := range g.children[id] {
		delete(g.parents[child], id)
	}
	for parent := range g.parents[id] {
		delete(g.children[parent], id)
	}
	delete(g.children, id)
	delete(g.parents, id)
	g.recompute()
}

// RemoveWire removes the wire from `from` to `to`. Removing an absent wire is
// a no-op.
func (g *Graph) RemoveWire(from, to ID) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.children[from][to]; !ok {
		return
	}
	delete(g.children[from], to)
	delete(g.parents[to], from)
	g.recompute()
}

// ContainsVertex reports whether id is a live vertex.
func (g *Graph) ContainsVertex(id ID) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.hasVertex(id)
}

// ContainsWire reports whether a wire from `from` to `to` exists.
func (g *Graph) ContainsWire(from, to ID) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	_, ok := g.children[from][to]
	return ok
}

// IsReachable reports whether a directed path leads from `from` to `to`.
// Every live vertex reaches itself.
func (g *Graph) IsReachable(from, to ID) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.reachable(from, to)
}

// Wire returns the wire from `from` to `to`, if any.
func (g *Graph) Wire(from, to ID) (Wire, bool) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	p, ok := g.children[from][to]
	if !ok {
		return Wire{}, false
	}
	return Wire{From: from, To: to, Polarity: p}, true
}

// Len returns the number of live vertices.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.children)
}

// Vertices returns every live vertex in the cached topological order: for
// each wire u -> v, u comes before v. The returned slice belongs to the
// caller.
func (g *Graph) Vertices() []ID {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return slices.Clone(g.order)
}

// Wires returns every wire in the graph. The order carries no meaning.
func (g *Graph) Wires() []Wire {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var wires []Wire
	for _, from := range sortedIDs(g.children) {
		for _, to := range sortedIDs(g.children[from]) {
			wires = append(wires, Wire{From: from, To: to, Polarity: g.children[from][to]})
		}
	}
	return wires
}

// Parents returns the sources of all wires ending at id.
func (g *Graph) Parents(id ID) []ID {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return sortedIDs(g.parents[id])
}

// Incoming returns all wires ending at id, ordered by source ID.
func (g *Graph) Incoming(id ID) []Wire {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	parents := g.parents[id]
	wires := make([]Wire, 0, len(parents))
	for _, from := range sortedIDs(parents) {
		wires = append(wires, Wire{From: from, To: id, Polarity: parents[from]})
	}
	return wires
}

func (g *Graph) hasVertex(id ID) bool {
	_, ok := g.children[id]
	return ok
}

func (g *Graph) reachable(from, to ID) bool {
	_, ok := g.closure[from][to]
	return ok
}

func sortedIDs[V any](m map[ID]V) []ID {
	return slices.Sorted(maps.Keys(m))
}
