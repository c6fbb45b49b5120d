package llp

import (
	"context"
	"math/bits"

	"github.com/llp-go/llp/pkg/graph"
)

// logGapCost computes the graph's log-gap cost under a given vertex
// numbering: for every vertex, the successors are visited in ascending
// numbering order and each gap (the absolute difference between consecutive
// successors, with the first successor compared against the vertex itself)
// contributes ceil(log2(1 + gap)) to the total. A lower cost means the
// numbering groups together vertices whose successor sets are numerically
// close, which is exactly the locality property LLP is optimizing for.
//
// The reference implementation (gap_cost.rs) was not available in the
// retrieved source pack; this function implements the formula as stated by
// the design rather than transcribing an upstream file.
func logGapCost(ctx context.Context, g graph.Graph, sched *ParallelScheduler) float64 {
	return sched.Run(ctx, func(ctx context.Context, start, end int) float64 {
		local := 0.0
		for v := start; v < end; v++ {
			succ := g.Successors(v)
			prev := v
			for _, s := range succ {
				gap := s - prev
				if gap < 0 {
					gap = -gap
				}
				local += ceilLog2(1 + uint64(gap))
				prev = s
			}
		}
		return local
	}, func(a, b float64) float64 { return a + b })
}

// ceilLog2 returns ceil(log2(x)) for x >= 1, computed exactly via bit length
// (avoids floating-point log2's rounding pitfalls around powers of two).
func ceilLog2(x uint64) float64 {
	if x <= 1 {
		return 0
	}
	n := x - 1
	return float64(bits.Len64(n))
}
