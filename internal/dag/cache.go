package dag

import "fmt"

// recompute rebuilds the topological order and the transitive closure from
// the current wire set. The caller must hold the write lock.
func (g *Graph) recompute() {
	g.order = g.topologicalOrder()
	g.closure = g.transitiveClosure(g.order)
}

// topologicalOrder runs Kahn's algorithm. The working set is a FIFO seeded in
// ascending ID order and children are released in ascending ID order, so a
// given structure always produces the same order.
func (g *Graph) topologicalOrder() []ID {
	inDegree := make(map[ID]int, len(g.parents))
	var queue []ID
	for _, id := range sortedIDs(g.parents) {
		inDegree[id] = len(g.parents[id])
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]ID, 0, len(g.children))
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		order = append(order, v)

		for _, child := range sortedIDs(g.children[v]) {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	// AddWire refuses every wire that would close a cycle, so this only
	// fires if that check is broken.
	if len(order) != len(g.children) {
		panic(fmt.Sprintf("dag: internal inconsistency: topological sort visited %d of %d vertices", len(order), len(g.children)))
	}
	return order
}

// transitiveClosure walks order backwards. Every vertex starts out reaching
// itself and, once all of its children have been folded in, pushes its own
// set into each of its parents.
func (g *Graph) transitiveClosure(order []ID) map[ID]map[ID]struct{} {
	closure := make(map[ID]map[ID]struct{}, len(order))
	set := func(id ID) map[ID]struct{} {
		s, ok := closure[id]
		if !ok {
			s = make(map[ID]struct{})
			closure[id] = s
		}
		return s
	}

	for i := len(order) - 1; i >= 0; i-- {
		v := order[i]
		reach := set(v)
		reach[v] = struct{}{}
		for parent := range g.parents[v] {
			parentReach := set(parent)
			for r := range reach {
				parentReach[r] = struct{}{}
			}
		}
	}
	return closure
}
