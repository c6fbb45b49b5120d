// Package llp implements layered label propagation: a parallel, iterative
// graph clustering algorithm whose output labelling is used downstream to
// derive a vertex permutation that improves locality (and hence
// compressibility) of a graph's adjacency representation.
package llp

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/llp-go/llp/internal/llp/preds"
	"github.com/llp-go/llp/pkg/collections"
	"github.com/llp-go/llp/pkg/graph"
	"github.com/llp-go/llp/pkg/utils"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("llp")

// majoritiesPool recycles the per-vertex argmax scratch slice across
// passRange calls (one call per scheduler range per pass), the same
// sync.Pool-backed reuse pkg/collections.SlicePool gives any other
// allocation-heavy hot loop in the codebase.
var majoritiesPool = collections.NewSlicePool[int](64)

// IteratorConfig fixes the per-gamma run parameters that do not change
// across passes: the graph, the scheduler, gamma itself, the shuffle chunk
// size, the stopping predicate and the logger. The RNG seed counter is passed
// separately to NewIterator.
type IteratorConfig struct {
	Graph       graph.Graph
	Scheduler   *ParallelScheduler
	Gamma       float64
	ChunkSize   int
	Predicate   preds.Predicate
	Logger      utils.Logger
}

func (c IteratorConfig) logger() utils.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return nopLogger{}
}

// Iterator runs the inner LLP loop for a single gamma value: repeated passes
// in randomised visit order until its stopping predicate fires or a pass
// makes no changes at all.
type Iterator struct {
	cfg    IteratorConfig
	labels *LabelStore
	can    *collections.AtomicBitset
	perm   *collections.PermutationBuffer
}

// NewIterator allocates the mutable per-vertex state (label store, CanChange
// flags, visit-order permutation) for a graph of the given size.
func NewIterator(cfg IteratorConfig, seed uint64) *Iterator {
	n := cfg.Graph.NumNodes()
	return &Iterator{
		cfg:    cfg,
		labels: NewLabelStore(n),
		can:    collections.NewAtomicBitset(n),
		perm:   collections.NewPermutationBuffer(n, seed),
	}
}

// RunStats summarises one Iterator.Run call: the final cumulative objective
// value, the number of passes it took to converge (or to exhaust the
// predicate/context), and the total number of vertices that changed label
// across every pass. Recorded per-gamma by GammaOrchestrator (SPEC_FULL §12).
type RunStats struct {
	Objective     float64
	Passes        int
	TotalModified int64
}

// Run executes passes until convergence, returning RunStats. The label
// store's Labels() snapshot afterwards is the gamma's result labelling.
func (it *Iterator) Run(ctx context.Context) RunStats {
	n := it.cfg.Graph.NumNodes()

	it.labels.Init()
	it.can.SetAll()

	log := it.cfg.logger().WithField("gamma", it.cfg.Gamma)

	f := 0.0
	var totalModified int64
	for update := 0; ; update++ {
		select {
		case <-ctx.Done():
			return RunStats{Objective: f, Passes: update, TotalModified: totalModified}
		default:
		}

		passCtx, span := tracer.Start(ctx, "llp.pass")

		it.perm.Reset()
		it.perm.Shuffle(it.chunkSize(), it.cfg.Scheduler.NumWorkers())

		order := it.perm.Data()
		var modified atomic.Int64

		delta := it.cfg.Scheduler.Run(passCtx, func(ctx context.Context, start, end int) float64 {
			return it.passRange(order[start:end], start, &modified)
		}, func(a, b float64) float64 { return a + b })

		f += delta
		gain := 0.0
		if f != 0 {
			gain = delta / f
		}
		mod := modified.Load()
		totalModified += mod
		span.End()

		log.Debug("update=%d gain=%.6f modified=%d", update, gain, mod)

		stop := it.cfg.Predicate.Eval(preds.Params{
			NumNodes: n,
			NumArcs:  it.cfg.Graph.NumArcs(),
			Gain:     gain,
			Modified: mod,
			Update:   update,
		})
		if stop || mod == 0 {
			return RunStats{Objective: f, Passes: update + 1, TotalModified: totalModified}
		}
	}
}

func (it *Iterator) chunkSize() int {
	if it.cfg.ChunkSize > 0 {
		return it.cfg.ChunkSize
	}
	return 1_000_000
}

// passRange processes the vertices in visitOrder (a slice of the shared
// shuffled permutation corresponding to one scheduler range), using a
// per-range RNG seeded from the range's start index within the full visit
// order, per the design's reproducibility note. rangeStart is that index.
func (it *Iterator) passRange(visitOrder []int, rangeStart int, modified *atomic.Int64) float64 {
	g := it.cfg.Graph
	gamma := it.cfg.Gamma
	rng := rand.New(rand.NewSource(int64(rangeStart)))
	hist := newHistogram(16)
	localObj := 0.0
	majoritiesPtr := majoritiesPool.Get()
	defer majoritiesPool.Put(majoritiesPtr)
	majorities := *majoritiesPtr

	for _, v := range visitOrder {
		if !it.can.TestAndClear(v) {
			continue
		}
		if g.Outdegree(v) == 0 {
			continue
		}

		curr := it.labels.Label(v)

		hist.reset()
		for _, succ := range g.Successors(v) {
			hist.add(it.labels.Label(succ), 1)
		}
		hist.ensure(curr)

		max := math.Inf(-1)
		old := 0.0
		majorities = majorities[:0]

		hist.forEach(func(label, count int) {
			volume := it.labels.VolumeFetchSub(label)
			val := (1+gamma)*float64(count) - gamma*float64(volume+1)

			switch {
			case val == max:
				majorities = append(majorities, label)
			case val > max:
				max = val
				majorities = majorities[:0]
				majorities = append(majorities, label)
			}
			if label == curr {
				old = val
			}
		})

		next := majorities[rng.Intn(len(majorities))]
		if next != curr {
			modified.Add(1)
			for _, succ := range g.Successors(v) {
				it.can.Set(succ)
			}
			it.labels.VolumeSet(v, next)
		}
		localObj += max - old
	}
	*majoritiesPtr = majorities
	return localObj
}

// Labels returns a snapshot of the converged labelling. Call only after Run
// returns.
func (it *Iterator) Labels() []uint64 {
	return it.labels.Labels()
}
