// Package graph defines the minimal graph contract the LLP core consumes.
//
// This package intentionally does not load, decode, or validate graphs from
// disk: ingestion and bit-level code formats are out of scope for this
// repository (see the LLP package docs). It only describes the random-access
// shape LLP needs and ships a small in-memory adjacency-list graph useful for
// tests and for driving the CLI against synthetic fixtures.
package graph

import "sort"

// Graph is the random-access view of a symmetric, loopless graph that LLP
// operates on. Implementations are not required to check symmetry or
// loop-freedom; callers that violate either will simply get poor clustering.
type Graph interface {
	// NumNodes returns the number of vertices, n. Vertex ids are dense and
	// contiguous in [0, n).
	NumNodes() int

	// NumArcs returns the total number of directed arcs (an undirected edge
	// between a symmetric pair counts as two arcs).
	NumArcs() int64

	// Successors returns the out-neighbours of v. The returned slice must not
	// be retained past the current call by the receiver.
	Successors(v int) []int

	// Outdegree returns len(Successors(v)) without necessarily materialising it.
	Outdegree(v int) int
}

// DegreeCumulative supports the "successor" query ParallelScheduler needs:
// given an arc-count threshold, return the first vertex whose cumulative
// out-degree strictly exceeds it. It is built once per graph and reused
// across every pass and every gamma.
type DegreeCumulative struct {
	// cumul[i] holds the total out-degree of vertices [0, i). cumul has
	// length n+1; cumul[n] == NumArcs().
	cumul []int64
}

// NewDegreeCumulative builds the cumulative out-degree structure for g.
func NewDegreeCumulative(g Graph) *DegreeCumulative {
	n := g.NumNodes()
	cumul := make([]int64, n+1)
	for v := 0; v < n; v++ {
		cumul[v+1] = cumul[v] + int64(g.Outdegree(v))
	}
	return &DegreeCumulative{cumul: cumul}
}

// NumNodes returns n.
func (d *DegreeCumulative) NumNodes() int {
	return len(d.cumul) - 1
}

// Total returns the total arc count, cumul[n].
func (d *DegreeCumulative) Total() int64 {
	return d.cumul[len(d.cumul)-1]
}

// Successor returns the vertex v with cumul[v] <= threshold < cumul[v+1],
// i.e. the vertex that owns the arc at position `threshold` in the
// concatenation of all adjacency lists. Returns NumNodes() if threshold is
// at or beyond the total arc count.
func (d *DegreeCumulative) Successor(threshold int64) int {
	// cumul is non-decreasing; find the first index i with cumul[i] > threshold.
	n := len(d.cumul)
	i := sort.Search(n, func(i int) bool {
		return d.cumul[i] > threshold
	})
	if i == 0 {
		return 0
	}
	return i - 1
}

// At returns the cumulative out-degree up to (excluding) vertex v.
func (d *DegreeCumulative) At(v int) int64 {
	return d.cumul[v]
}

// AdjacencyGraph is a plain in-memory Graph backed by a slice of adjacency
// lists. It exists for tests and for the CLI's synthetic-fixture mode; real
// large-scale graph loading is out of scope.
type AdjacencyGraph struct {
	adj     [][]int
	numArcs int64
}

// NewAdjacencyGraph builds a Graph from pre-built adjacency lists. The caller
// is responsible for symmetry and loop-freedom.
func NewAdjacencyGraph(adj [][]int) *AdjacencyGraph {
	var total int64
	for _, succ := range adj {
		total += int64(len(succ))
	}
	return &AdjacencyGraph{adj: adj, numArcs: total}
}

// NumNodes implements Graph.
func (g *AdjacencyGraph) NumNodes() int { return len(g.adj) }

// NumArcs implements Graph.
func (g *AdjacencyGraph) NumArcs() int64 { return g.numArcs }

// Successors implements Graph.
func (g *AdjacencyGraph) Successors(v int) []int { return g.adj[v] }

// Outdegree implements Graph.
func (g *AdjacencyGraph) Outdegree(v int) int { return len(g.adj[v]) }

// PermutedGraph presents g under a vertex permutation without materialising
// a new adjacency list: successors of the permuted vertex i are the permuted
// successors of perm[i] in g, sorted so that log-gap cost and serialisation
// see them in ascending numeric order as a real permuted BVGraph would.
type PermutedGraph struct {
	g    Graph
	perm []int // perm[i] = original vertex now occupying position i
	inv  []int // inv[v] = position of original vertex v
}

// NewPermutedGraph builds a PermutedGraph view. perm must be a permutation
// of [0, g.NumNodes()).
func NewPermutedGraph(g Graph, perm []int) *PermutedGraph {
	inv := make([]int, len(perm))
	for i, v := range perm {
		inv[v] = i
	}
	return &PermutedGraph{g: g, perm: perm, inv: inv}
}

// NumNodes implements Graph.
func (p *PermutedGraph) NumNodes() int { return p.g.NumNodes() }

// NumArcs implements Graph.
func (p *PermutedGraph) NumArcs() int64 { return p.g.NumArcs() }

// Outdegree implements Graph.
func (p *PermutedGraph) Outdegree(i int) int { return p.g.Outdegree(p.perm[i]) }

// Successors implements Graph. The returned slice is freshly allocated and
// sorted in the permuted numbering, mirroring how a real compressed graph
// would present successors after permutation.
func (p *PermutedGraph) Successors(i int) []int {
	orig := p.g.Successors(p.perm[i])
	out := make([]int, len(orig))
	for j, s := range orig {
		out[j] = p.inv[s]
	}
	sort.Ints(out)
	return out
}
