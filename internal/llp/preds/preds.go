// Package preds implements the pluggable stopping predicates the LLP pass
// loop consults after every update to decide whether a gamma has converged.
package preds

import "fmt"

// Params is the snapshot a predicate is evaluated against after a pass.
type Params struct {
	NumNodes int
	NumArcs  int64
	Gain     float64
	Modified int64
	Update   int
}

// Predicate decides, from a Params snapshot, whether the iteration should
// stop. Implementations are plain values composed with And/Or; no
// closures-over-mutable-state are required except where the predicate itself
// is inherently stateful (e.g. MinGain's consecutive-low-gain counter).
type Predicate interface {
	Eval(p Params) bool
	String() string
}

// MinGain stops once Gain has stayed below Threshold for Patience
// consecutive updates. This is the canonical stopping rule referenced by the
// design: a short burst of low gain is tolerated (the graph may still be
// reshuffling into a better configuration), but sustained stagnation is not.
type MinGain struct {
	Threshold float64
	Patience  int

	below int
}

// NewMinGain constructs a MinGain predicate with its internal counter reset.
func NewMinGain(threshold float64, patience int) *MinGain {
	if patience < 1 {
		patience = 1
	}
	return &MinGain{Threshold: threshold, Patience: patience}
}

func (m *MinGain) Eval(p Params) bool {
	if p.Gain < m.Threshold {
		m.below++
	} else {
		m.below = 0
	}
	return m.below >= m.Patience
}

func (m *MinGain) String() string {
	return fmt.Sprintf("MinGain(threshold=%g, patience=%d)", m.Threshold, m.Patience)
}

// MaxUpdates stops once the zero-based Update index reaches Limit (that is,
// after Limit+1 passes), regardless of gain, so a pathological gamma cannot
// iterate forever.
type MaxUpdates struct {
	Limit int
}

func (m MaxUpdates) Eval(p Params) bool {
	return p.Update >= m.Limit
}

func (m MaxUpdates) String() string {
	return fmt.Sprintf("MaxUpdates(limit=%d)", m.Limit)
}

// Or stops as soon as any child predicate stops. Every child is evaluated
// (not short-circuited) so stateful predicates like MinGain keep their
// counters accurate regardless of evaluation order.
type Or []Predicate

func (o Or) Eval(p Params) bool {
	stop := false
	for _, pred := range o {
		if pred.Eval(p) {
			stop = true
		}
	}
	return stop
}

func (o Or) String() string {
	s := "Or("
	for i, pred := range o {
		if i > 0 {
			s += ", "
		}
		s += pred.String()
	}
	return s + ")"
}

// And stops only once every child predicate stops.
type And []Predicate

func (a And) Eval(p Params) bool {
	stop := true
	for _, pred := range a {
		if !pred.Eval(p) {
			stop = false
		}
	}
	return stop
}

func (a And) String() string {
	s := "And("
	for i, pred := range a {
		if i > 0 {
			s += ", "
		}
		s += pred.String()
	}
	return s + ")"
}

// Default builds the canonical stopping predicate: stop after gain stays
// below threshold for patience consecutive updates, or once the zero-based
// update index reaches maxUpdates (a non-positive maxUpdates adds no cap),
// whichever comes first.
func Default(threshold float64, patience int, maxUpdates int) Predicate {
	preds := Or{NewMinGain(threshold, patience)}
	if maxUpdates > 0 {
		preds = append(preds, MaxUpdates{Limit: maxUpdates})
	}
	return preds
}
