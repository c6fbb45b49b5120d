package llp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/llp-go/llp/pkg/graph"
)

func gapTestPathGraph(n int) *graph.AdjacencyGraph {
	adj := make([][]int, n)
	for v := 0; v < n; v++ {
		var succ []int
		if v > 0 {
			succ = append(succ, v-1)
		}
		if v < n-1 {
			succ = append(succ, v+1)
		}
		adj[v] = succ
	}
	return graph.NewAdjacencyGraph(adj)
}

func TestCeilLog2(t *testing.T) {
	cases := []struct {
		x    uint64
		want float64
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{8, 3},
		{9, 4},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ceilLog2(c.x), "ceilLog2(%d)", c.x)
	}
}

func TestLogGapCost_IdentityVsReversedPermutation(t *testing.T) {
	// a path graph is already numbered for locality: every gap is 1.
	g := gapTestPathGraph(8)
	sched := NewParallelScheduler(g, 2, 4)

	identity := make([]int, g.NumNodes())
	for i := range identity {
		identity[i] = i
	}
	reversed := make([]int, g.NumNodes())
	for i := range reversed {
		reversed[i] = g.NumNodes() - 1 - i
	}

	idCost := logGapCost(context.Background(), graph.NewPermutedGraph(g, identity), sched)
	revCost := logGapCost(context.Background(), graph.NewPermutedGraph(g, reversed), sched)

	// reversing a path's numbering is still locality-preserving (it's an
	// isometry of the path), so costs should match exactly.
	assert.Equal(t, idCost, revCost)
	assert.Greater(t, idCost, 0.0)
}

func TestLogGapCost_ScatteredNumberingCostsMore(t *testing.T) {
	g := gapTestPathGraph(16)
	sched := NewParallelScheduler(g, 2, 4)

	identity := make([]int, g.NumNodes())
	for i := range identity {
		identity[i] = i
	}
	// interleave even/odd indices, destroying the path's locality.
	scattered := make([]int, g.NumNodes())
	half := g.NumNodes() / 2
	for i := 0; i < half; i++ {
		scattered[i] = 2 * i
		scattered[half+i] = 2*i + 1
	}

	idCost := logGapCost(context.Background(), graph.NewPermutedGraph(g, identity), sched)
	scatCost := logGapCost(context.Background(), graph.NewPermutedGraph(g, scattered), sched)

	assert.Greater(t, scatCost, idCost)
}
