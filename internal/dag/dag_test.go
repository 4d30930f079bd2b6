package dag

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bruteReachable answers reachability with a DFS over the raw wire set.
func bruteReachable(g *Graph, from, to ID) bool {
	if !g.hasVertex(from) || !g.hasVertex(to) {
		return false
	}
	seen := map[ID]bool{from: true}
	stack := []ID{from}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if v == to {
			return true
		}
		for child := range g.children[v] {
			if !seen[child] {
				seen[child] = true
				stack = append(stack, child)
			}
		}
	}
	return false
}

// requireInvariants checks every graph invariant against the raw wire set.
func requireInvariants(t *testing.T, g *Graph) {
	t.Helper()

	order := g.Vertices()
	require.Len(t, order, g.Len(), "topological order must cover every vertex")

	index := make(map[ID]int, len(order))
	for i, id := range order {
		require.True(t, g.ContainsVertex(id))
		_, dup := index[id]
		require.False(t, dup, "vertex %d listed twice", id)
		index[id] = i
	}

	for _, w := range g.Wires() {
		require.True(t, g.ContainsVertex(w.From), "wire source %d is not live", w.From)
		require.True(t, g.ContainsVertex(w.To), "wire target %d is not live", w.To)
		require.Less(t, index[w.From], index[w.To], "wire %d -> %d violates order", w.From, w.To)
	}

	for _, u := range order {
		for _, v := range order {
			require.Equal(t, bruteReachable(g, u, v), g.IsReachable(u, v), "reachability %d -> %d", u, v)
			if u != v {
				require.False(t, g.IsReachable(u, v) && g.IsReachable(v, u), "cycle between %d and %d", u, v)
			}
		}
	}
}

func indexOf(order []ID, id ID) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.Zero(t, g.Len())
	assert.Empty(t, g.Vertices())
	assert.Empty(t, g.Wires())
}

func TestAddVertex(t *testing.T) {
	g := New()

	a := g.AddVertex()
	b := g.AddVertex()
	assert.NotZero(t, a)
	assert.NotEqual(t, a, b)
	assert.True(t, g.ContainsVertex(a))
	assert.True(t, g.ContainsVertex(b))
	assert.ElementsMatch(t, []ID{a, b}, g.Vertices())
	assert.Empty(t, g.Parents(a))

	t.Run("ids are never reused", func(t *testing.T) {
		g.RemoveVertex(b)
		c := g.AddVertex()
		assert.NotEqual(t, b, c)
		assert.Greater(t, c, b)
		assert.False(t, g.ContainsVertex(b))
	})
}

func TestAddWire(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		a, b := g.AddVertex(), g.AddVertex()

		require.NoError(t, g.AddWire(a, b, Negated))
		assert.True(t, g.ContainsWire(a, b))
		assert.False(t, g.ContainsWire(b, a))
		assert.True(t, g.IsReachable(a, b))
		assert.False(t, g.IsReachable(b, a))
		assert.Equal(t, []ID{a}, g.Parents(b))

		w, ok := g.Wire(a, b)
		require.True(t, ok)
		assert.Equal(t, Wire{From: a, To: b, Polarity: Negated}, w)
		requireInvariants(t, g)
	})

	t.Run("idempotent for any polarity", func(t *testing.T) {
		g := New()
		a, b := g.AddVertex(), g.AddVertex()

		require.NoError(t, g.AddWire(a, b, Normal))
		before := g.Wires()
		require.NoError(t, g.AddWire(a, b, Normal))
		require.NoError(t, g.AddWire(a, b, Negated))
		assert.Equal(t, before, g.Wires())
		assert.Len(t, g.Wires(), 1)
		assert.Equal(t, Normal, g.Wires()[0].Polarity)
	})

	t.Run("missing endpoints", func(t *testing.T) {
		g := New()
		a := g.AddVertex()

		err := g.AddWire(a, 99, Normal)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrIllegalWire)

		var iwe *IllegalWireError
		require.True(t, errors.As(err, &iwe))
		assert.Equal(t, ReasonMissingVertex, iwe.Reason)

		err = g.AddWire(99, a, Normal)
		assert.ErrorIs(t, err, ErrIllegalWire)
		assert.Empty(t, g.Wires())
	})

	t.Run("self wire is a cycle", func(t *testing.T) {
		g := New()
		a := g.AddVertex()

		err := g.AddWire(a, a, Normal)
		var iwe *IllegalWireError
		require.True(t, errors.As(err, &iwe))
		assert.Equal(t, ReasonCycle, iwe.Reason)
		assert.False(t, g.ContainsWire(a, a))
	})
}

func TestCycleRejectionIsNoop(t *testing.T) {
	g := New()
	a, b, c := g.AddVertex(), g.AddVertex(), g.AddVertex()
	require.NoError(t, g.AddWire(a, b, Normal))
	require.NoError(t, g.AddWire(b, c, Negated))

	wires, order := g.Wires(), g.Vertices()
	closure := make(map[ID]map[ID]struct{}, len(g.closure))
	for k, v := range g.closure {
		inner := make(map[ID]struct{}, len(v))
		for kk := range v {
			inner[kk] = struct{}{}
		}
		closure[k] = inner
	}

	for _, p := range []Polarity{Normal, Negated} {
		err := g.AddWire(c, a, p)
		assert.ErrorIs(t, err, ErrIllegalWire)
	}

	assert.Equal(t, wires, g.Wires())
	assert.Equal(t, order, g.Vertices())
	assert.Equal(t, closure, g.closure)
}

func TestRemoveVertex(t *testing.T) {
	g := New()
	a, b, c := g.AddVertex(), g.AddVertex(), g.AddVertex()
	require.NoError(t, g.AddWire(a, b, Normal))
	require.NoError(t, g.AddWire(b, c, Normal))
	require.True(t, g.IsReachable(a, c))

	g.RemoveVertex(b)

	assert.False(t, g.ContainsVertex(b))
	assert.False(t, g.ContainsWire(a, b))
	assert.False(t, g.ContainsWire(b, c))
	assert.Empty(t, g.Wires())
	assert.False(t, g.IsReachable(a, c))
	assert.Empty(t, g.Parents(c))
	assert.ElementsMatch(t, []ID{a, c}, g.Vertices())
	requireInvariants(t, g)

	t.Run("absent vertex is a noop", func(t *testing.T) {
		g.RemoveVertex(b)
		g.RemoveVertex(1234)
		assert.Equal(t, 2, g.Len())
	})
}

func TestRemoveWire(t *testing.T) {
	g := New()
	a, b := g.AddVertex(), g.AddVertex()
	require.NoError(t, g.AddWire(a, b, Normal))

	g.RemoveWire(a, b)
	assert.False(t, g.ContainsWire(a, b))
	assert.False(t, g.IsReachable(a, b))

	// Removing makes the reverse direction legal again.
	require.NoError(t, g.AddWire(b, a, Normal))
	requireInvariants(t, g)

	g.RemoveWire(a, b) // absent
	g.RemoveWire(7, 8) // unknown vertices
	assert.Len(t, g.Wires(), 1)
}

func TestIncoming(t *testing.T) {
	g := New()
	a, b, c := g.AddVertex(), g.AddVertex(), g.AddVertex()
	require.NoError(t, g.AddWire(b, c, Negated))
	require.NoError(t, g.AddWire(a, c, Normal))

	assert.Equal(t, []Wire{
		{From: a, To: c, Polarity: Normal},
		{From: b, To: c, Polarity: Negated},
	}, g.Incoming(c))
	assert.Empty(t, g.Incoming(a))
	assert.Empty(t, g.Incoming(999))
}

func TestVerticesTopologicalOrder(t *testing.T) {
	t.Run("chain", func(t *testing.T) {
		g := New()
		a, b, c := g.AddVertex(), g.AddVertex(), g.AddVertex()
		require.NoError(t, g.AddWire(a, b, Normal))
		require.NoError(t, g.AddWire(b, c, Negated))
		assert.Equal(t, []ID{a, b, c}, g.Vertices())
	})

	t.Run("reversed creation order", func(t *testing.T) {
		g := New()
		c, b, a := g.AddVertex(), g.AddVertex(), g.AddVertex()
		require.NoError(t, g.AddWire(a, b, Normal))
		require.NoError(t, g.AddWire(b, c, Normal))
		order := g.Vertices()
		assert.Less(t, indexOf(order, a), indexOf(order, b))
		assert.Less(t, indexOf(order, b), indexOf(order, c))
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		g := New()
		a := g.AddVertex()
		order := g.Vertices()
		order[0] = 42
		assert.Equal(t, []ID{a}, g.Vertices())
	})
}

func TestScenarioReverseWireRejected(t *testing.T) {
	g := New()
	a, b := g.AddVertex(), g.AddVertex()

	require.NoError(t, g.AddWire(b, a, Normal))
	require.True(t, g.IsReachable(b, a))

	err := g.AddWire(a, b, Normal)
	assert.ErrorIs(t, err, ErrIllegalWire)
}

func TestDiamond(t *testing.T) {
	g := New()
	a, b, c, d := g.AddVertex(), g.AddVertex(), g.AddVertex(), g.AddVertex()
	require.NoError(t, g.AddWire(a, b, Normal))
	require.NoError(t, g.AddWire(a, c, Normal))
	require.NoError(t, g.AddWire(b, d, Normal))
	require.NoError(t, g.AddWire(c, d, Negated))

	assert.True(t, g.IsReachable(a, d))
	assert.False(t, g.IsReachable(b, c))
	assert.ElementsMatch(t, []ID{b, c}, g.Parents(d))
	assert.ErrorIs(t, g.AddWire(d, a, Normal), ErrIllegalWire)
	requireInvariants(t, g)
}

func TestRandomMutationsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	g := New()
	var live []ID

	for range 400 {
		switch op := rng.IntN(10); {
		case op < 3 || len(live) < 2:
			live = append(live, g.AddVertex())
		case op < 8:
			from, to := live[rng.IntN(len(live))], live[rng.IntN(len(live))]
			wouldCycle := bruteReachable(g, to, from)
			existed := g.ContainsWire(from, to)
			err := g.AddWire(from, to, Polarity(rng.IntN(2)))
			if existed || !wouldCycle {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrIllegalWire)
			}
		case op == 8:
			from, to := live[rng.IntN(len(live))], live[rng.IntN(len(live))]
			g.RemoveWire(from, to)
		default:
			i := rng.IntN(len(live))
			g.RemoveVertex(live[i])
			live = append(live[:i], live[i+1:]...)
		}

		requireInvariants(t, g)
	}
}

func TestPolarity(t *testing.T) {
	assert.Equal(t, "normal", Normal.String())
	assert.Equal(t, "negated", Negated.String())
	assert.Equal(t, "InvalidPolarity", Polarity(9).String())

	assert.True(t, Wire{Polarity: Normal}.Apply(true))
	assert.False(t, Wire{Polarity: Negated}.Apply(true))
	assert.True(t, Wire{Polarity: Negated}.Apply(false))
}

func TestIllegalWireErrorMessage(t *testing.T) {
	err := &IllegalWireError{From: 1, To: 2, Reason: ReasonCycle}
	assert.EqualError(t, err, "illegal wire 1 -> 2: would create a cycle")
}
