package llp

import "sync/atomic"

// LabelStore holds the current label of every vertex and the volume (vertex
// count) of every label, both accessed through atomic, lock-free operations.
//
// The operations below intentionally do not keep volume perfectly
// consistent with label at every instant: VolumeFetchSub is read-and-drain
// without a matching increment, and the compensating increment only happens
// later, in VolumeSet, when (and if) the vertex actually commits to a new
// label. This mirrors the original LLP implementation's label store and must
// be preserved exactly: Iterator.passRange scores every candidate label as
// (1+gamma)*count - gamma*(VolumeFetchSub(label)+1).
type LabelStore struct {
	label  []atomic.Int64
	volume []atomic.Int64
}

// NewLabelStore allocates a store for n vertices and initialises it.
func NewLabelStore(n int) *LabelStore {
	s := &LabelStore{
		label:  make([]atomic.Int64, n),
		volume: make([]atomic.Int64, n),
	}
	s.Init()
	return s
}

// Init resets the store to the identity labelling: label[v] = v, volume[v] = 1.
// Called once per gamma.
func (s *LabelStore) Init() {
	for v := range s.label {
		s.label[v].Store(int64(v))
		s.volume[v].Store(1)
	}
}

// Label returns the current label of v.
func (s *LabelStore) Label(v int) int {
	return int(s.label[v].Load())
}

// VolumeFetchSub atomically returns the current volume of label l and
// decrements it by one. The decrement is not reversed by the caller; it is
// only ever reversed by a later VolumeSet that assigns l to some vertex, or
// left as permanent (bounded) skew, per the documented design.
func (s *LabelStore) VolumeFetchSub(l int) int64 {
	return s.volume[l].Add(-1) + 1
}

// VolumeSet atomically moves v from its current label to lNew: decrements
// the volume of v's old label, stores the new label, and increments the
// volume of lNew.
func (s *LabelStore) VolumeSet(v int, lNew int) {
	old := s.label[v].Swap(int64(lNew))
	s.volume[old].Add(-1)
	s.volume[lNew].Add(1)
}

// Labels returns a snapshot of all current labels, indexed by vertex. Safe to
// call only once no more writers are active (i.e. after a gamma has
// converged).
func (s *LabelStore) Labels() []uint64 {
	out := make([]uint64, len(s.label))
	for v := range s.label {
		out[v] = uint64(s.label[v].Load())
	}
	return out
}

// Volume returns the current volume of label l. Exposed for tests that check
// the conservation invariant; not used on the hot path.
func (s *LabelStore) Volume(l int) int64 {
	return s.volume[l].Load()
}

// NumLabels returns the number of labels (== number of vertices) the store
// was sized for.
func (s *LabelStore) NumLabels() int {
	return len(s.volume)
}
