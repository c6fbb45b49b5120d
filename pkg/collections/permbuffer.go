package collections

import (
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
)

// PermutationBuffer is a reusable, mutable int permutation of [0, n) together
// with the operations the LLP pass loop performs on it every update: identity
// reset, chunked parallel shuffle, label-keyed sort, and in-place inversion.
//
// It is not itself safe for concurrent mutation (two goroutines must not call
// Reset/Shuffle/SortByKey/InvertInPlace concurrently), but Shuffle dispatches
// its own internal goroutines and is safe to call from a single caller.
type PermutationBuffer struct {
	data []int
	seed atomic.Uint64
}

// NewPermutationBuffer allocates a buffer for n elements and seeds its
// internal RNG counter. It does not initialise data; call Reset first.
func NewPermutationBuffer(n int, seed uint64) *PermutationBuffer {
	p := &PermutationBuffer{data: make([]int, n)}
	p.seed.Store(seed)
	return p
}

// Data returns the underlying slice. Callers must not retain it across a
// Reset, since Reset mutates in place but a later Shuffle/Sort may replace
// element order without reallocating.
func (p *PermutationBuffer) Data() []int {
	return p.data
}

// Len returns the number of elements.
func (p *PermutationBuffer) Len() int {
	return len(p.data)
}

// Reset restores the identity permutation: data[i] = i for all i.
func (p *PermutationBuffer) Reset() {
	for i := range p.data {
		p.data[i] = i
	}
}

// Shuffle randomizes the buffer in independent, concurrently-shuffled chunks
// of chunkSize elements each, using `workers` goroutines to drive the chunks.
// Each chunk draws its own seed from the buffer's shared atomic counter (via
// fetch-add), matching the reference implementation's
// `update_perm.par_chunks_mut(chunk_size)` step: shuffling a chunk at a time
// rather than the whole slice keeps the RNG state per-goroutine and keeps the
// operation embarrassingly parallel, at the cost of not producing a uniformly
// random permutation over the whole range (acceptable here, since the buffer
// is a scan order, not a sampling target).
func (p *PermutationBuffer) Shuffle(chunkSize int, workers int) {
	n := len(p.data)
	if n == 0 {
		return
	}
	if chunkSize <= 0 {
		chunkSize = n
	}
	if workers <= 0 {
		workers = 1
	}

	numChunks := (n + chunkSize - 1) / chunkSize
	var chunkIdx atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				c := chunkIdx.Add(1) - 1
				if int(c) >= numChunks {
					return
				}
				start := int(c) * chunkSize
				end := start + chunkSize
				if end > n {
					end = n
				}
				seed := p.seed.Add(1)
				rng := rand.New(rand.NewSource(int64(seed)))
				chunk := p.data[start:end]
				rng.Shuffle(len(chunk), func(i, j int) {
					chunk[i], chunk[j] = chunk[j], chunk[i]
				})
			}
		}()
	}
	wg.Wait()
}

// SortByKey stably sorts the buffer so that, after the call, data is
// ordered by key(data[i]) ascending, breaking ties by the elements'
// pre-sort relative order. Used post-convergence to bucket vertices by
// their label before the inversion step below; stability matters there
// because the design specifies ties broken by natural order, which only
// holds if the sort does not reorder equal-key elements.
func (p *PermutationBuffer) SortByKey(key func(v int) int) {
	sort.SliceStable(p.data, func(i, j int) bool {
		return key(p.data[i]) < key(p.data[j])
	})
}

// InvertInPlace inverts the permutation held in data, in place, in O(n) time
// and O(1) extra space, using cycle-following with the visited bit encoded as
// the sign of the slot (a visited slot holds the bitwise complement of its
// true value, rather than its true value). This assumes n < 2^63, i.e. that
// indices fit in a signed 64-bit int with room for the sign bit, which holds
// for any graph this package can otherwise address.
//
// Grounded directly on the upstream LLP crate's invert_in_place: Go's ^x is
// the bitwise-complement operator that plays the role of Rust's !i for a
// two's-complement signed integer.
func (p *PermutationBuffer) InvertInPlace() {
	perm := p.data
	for n := range perm {
		i := perm[n]
		if i < 0 {
			perm[n] = ^i
			continue
		}
		if i != n {
			k := n
			for {
				j := perm[i]
				perm[i] = ^k
				if j == n {
					perm[n] = i
					break
				}
				k = i
				i = j
			}
		}
	}
}
