package llp

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/llp-go/llp/internal/llp/preds"
	"github.com/llp-go/llp/internal/llpstore"
	"github.com/llp-go/llp/pkg/collections"
	"github.com/llp-go/llp/pkg/errors"
	"github.com/llp-go/llp/pkg/graph"
	"github.com/llp-go/llp/pkg/parallel"
	"github.com/llp-go/llp/pkg/utils"
)

// GammaRunResult is the per-gamma outcome the orchestrator records before
// moving on to the combine phase.
type GammaRunResult struct {
	GammaIndex    int
	Gamma         float64
	Cost          float64
	Objective     float64
	Passes        int
	TotalModified int64
	Duration      time.Duration
	LabelsKey     string
}

// OrchestratorConfig fixes the parameters shared across every gamma run.
type OrchestratorConfig struct {
	Graph         graph.Graph
	Gammas        []float64
	Workers       int
	ChunkSize     int
	Granularity   int64
	Seed          uint64
	NewPredicate  func() preds.Predicate
	Store         llpstore.Backend
	Logger        utils.Logger
}

func (c OrchestratorConfig) logger() utils.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return nopLogger{}
}

// Orchestrator runs Iterator for every gamma in the configured schedule,
// then combines the resulting labellings into a single refined labelling
// per §4.5 of the design: order by descending cost, seed result with the
// best gamma's labels, and double-combine every gamma (current then best)
// in that order.
type Orchestrator struct {
	cfg  OrchestratorConfig
	seed atomic.Uint64
}

// NewOrchestrator builds an orchestrator from cfg.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	o := &Orchestrator{cfg: cfg}
	o.seed.Store(cfg.Seed)
	return o
}

// Run executes every gamma, persists each gamma's labels to the configured
// store, and returns the final combined labelling plus per-gamma results
// ordered by gamma index (not by cost).
func (o *Orchestrator) Run(ctx context.Context) ([]uint64, []GammaRunResult, error) {
	g := o.cfg.Graph
	if len(o.cfg.Gammas) == 0 {
		return nil, nil, errors.New(errors.CodeInvalidInput, "gamma schedule must not be empty")
	}
	if g == nil || g.NumNodes() == 0 {
		return nil, nil, errors.New(errors.CodeInvalidInput, "graph must have at least one vertex")
	}
	granularity := o.cfg.Granularity
	if granularity <= 0 {
		granularity = DefaultGranularity(g.NumArcs())
	}
	sched := NewParallelScheduler(g, o.cfg.Workers, granularity)
	log := o.cfg.logger()

	timer := utils.NewTimer("orchestrator", utils.WithLogger(log))
	gammasPhase := timer.Start("gammas")

	results := make([]GammaRunResult, len(o.cfg.Gammas))
	gammaIndices := make([]int, len(o.cfg.Gammas))
	for i := range gammaIndices {
		gammaIndices[i] = i
	}

	// Every gamma is an independent run against the same read-only graph and
	// a reentrant scheduler (ParallelScheduler.Run allocates fresh per-call
	// state), so gammas are evaluated concurrently rather than one after
	// another, the same split-work/reduce shape pkg/parallel.ForEach gives
	// the rest of the codebase's batch operations.
	poolCfg := parallel.DefaultPoolConfig()
	if o.cfg.Workers > 0 {
		poolCfg = poolCfg.WithWorkers(min(o.cfg.Workers, len(gammaIndices)))
	}

	_, err := parallel.ForEach(ctx, gammaIndices, poolCfg, func(ctx context.Context, gi int) error {
		gamma := o.cfg.Gammas[gi]
		gammaCtx, span := tracer.Start(ctx, "llp.gamma")
		defer span.End()

		seed := o.seed.Add(1)
		it := NewIterator(IteratorConfig{
			Graph:     g,
			Scheduler: sched,
			Gamma:     gamma,
			ChunkSize: o.cfg.ChunkSize,
			Predicate: o.cfg.NewPredicate(),
			Logger:    log,
		}, seed)

		start := time.Now()
		stats := it.Run(gammaCtx)
		duration := time.Since(start)
		labels := it.Labels()

		perm := labelsToPermutation(labels)
		// perm[v] is v's new position; NewPermutedGraph takes, for each
		// position, the original vertex placed there.
		order := make([]int, len(perm))
		for v, pos := range perm {
			order[pos] = v
		}
		permG := graph.NewPermutedGraph(g, order)
		cost := logGapCost(gammaCtx, permG, sched)

		key := fmt.Sprintf("labels_%d.bin", gi)
		if o.cfg.Store != nil {
			if err := o.cfg.Store.Put(ctx, key, labels); err != nil {
				return fmt.Errorf("persisting labels for gamma index %d: %w", gi, err)
			}
		}

		log.Info("gamma index=%d gamma=%.6f cost=%.2f objective=%.2f passes=%d modified=%d duration=%s",
			gi, gamma, cost, stats.Objective, stats.Passes, stats.TotalModified, duration)

		results[gi] = GammaRunResult{
			GammaIndex:    gi,
			Gamma:         gamma,
			Cost:          cost,
			Objective:     stats.Objective,
			Passes:        stats.Passes,
			TotalModified: stats.TotalModified,
			Duration:      duration,
			LabelsKey:     key,
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("running gammas: %w", err)
	}
	gammasPhase.Stop()

	combinePhase := timer.Start("combine")
	final, err := o.combinePhase(ctx, results)
	combinePhase.Stop()
	if err != nil {
		return nil, nil, err
	}

	bestIdx := 0
	for i := range results {
		if results[i].Cost < results[bestIdx].Cost {
			bestIdx = i
		}
	}
	log.Info("best gamma index=%d gamma=%.6f with log-gap cost=%.2f", results[bestIdx].GammaIndex, results[bestIdx].Gamma, results[bestIdx].Cost)
	timer.PrintSummary()

	return final, results, nil
}

// combinePhase implements the ordering-by-cost, seed-with-best,
// double-combine-every-gamma refinement described in §4.5.
func (o *Orchestrator) combinePhase(ctx context.Context, results []GammaRunResult) ([]uint64, error) {
	if o.cfg.Store == nil {
		return nil, fmt.Errorf("llp: combine phase requires a labels store")
	}

	_, span := tracer.Start(ctx, "llp.combine")
	defer span.End()

	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return results[order[a]].Cost > results[order[b]].Cost
	})
	bestIdx := order[len(order)-1]

	bestLabels, err := o.cfg.Store.Get(ctx, results[bestIdx].LabelsKey)
	if err != nil {
		return nil, fmt.Errorf("loading best gamma labels: %w", err)
	}

	result := append([]uint64(nil), bestLabels...)
	n := len(result)
	temp := collections.NewPermutationBuffer(n, o.seed.Add(1))

	for _, gi := range order {
		labels, err := o.cfg.Store.Get(ctx, results[gi].LabelsKey)
		if err != nil {
			return nil, fmt.Errorf("loading gamma %d labels: %w", gi, err)
		}
		combine(result, labels, temp)
		combine(result, bestLabels, temp)
	}

	if err := o.cfg.Store.Put(ctx, FinalLabelsKey, result); err != nil {
		return nil, fmt.Errorf("persisting combined labels: %w", err)
	}

	return result, nil
}

// FinalLabelsKey is the store key the combined, final labelling is
// persisted under, parallel to the per-gamma "labels_<index>.bin" keys.
const FinalLabelsKey = "labels_final.bin"

// combine refines result in place so its equivalence classes become the
// intersections of result's and labels' classes, densely renumbered. temp
// is scratch space reused across calls, sized for len(result).
//
// Grounded directly on the upstream LLP crate's combine(): re-init temp to
// identity, sort it by the composite key (result[labels[a]], labels[a],
// result[a]), then walk in sorted order assigning a new dense id to
// result[temp[i]] every time the composite key changes.
func combine(result, labels []uint64, temp *collections.PermutationBuffer) int {
	temp.Reset()
	data := temp.Data()

	less := func(a, b int) bool {
		ra, rb := result[labels[a]], result[labels[b]]
		if ra != rb {
			return ra < rb
		}
		if labels[a] != labels[b] {
			return labels[a] < labels[b]
		}
		return result[a] < result[b]
	}
	sort.Slice(data, func(i, j int) bool { return less(data[i], data[j]) })

	// Neighbours in sorted order share result[labels[a]] whenever they share
	// labels[a], so comparing (result[a], labels[a]) against the previous
	// element's pre-overwrite values detects every change of the composite key.
	prevResult, prevLabel := result[data[0]], labels[data[0]]
	currLabel := uint64(0)
	result[data[0]] = currLabel
	for i := 1; i < len(data); i++ {
		r, l := result[data[i]], labels[data[i]]
		if r != prevResult || l != prevLabel {
			currLabel++
			prevResult, prevLabel = r, l
		}
		result[data[i]] = currLabel
	}
	return int(currLabel) + 1
}

// labelsToPermutation derives the delivery permutation for a converged
// labelling: reset identity, stably sort by label ascending, invert in
// place. This is §4.4's post-convergence steps 1-2.
func labelsToPermutation(labels []uint64) []int {
	n := len(labels)
	perm := collections.NewPermutationBuffer(n, 1)
	perm.Reset()
	perm.SortByKey(func(v int) int { return int(labels[v]) })
	perm.InvertInPlace()
	return append([]int(nil), perm.Data()...)
}
