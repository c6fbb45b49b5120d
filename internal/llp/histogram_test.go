package llp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistogram_AddInsertsAndAccumulates(t *testing.T) {
	h := newHistogram(4)
	h.add(7, 1)
	h.add(7, 2)
	h.add(3, 5)

	counts := map[int]int{}
	h.forEach(func(label, count int) { counts[label] = count })

	assert.Equal(t, 3, counts[7])
	assert.Equal(t, 5, counts[3])
	assert.Len(t, counts, 2)
}

func TestHistogram_Ensure(t *testing.T) {
	h := newHistogram(4)
	h.ensure(9)
	h.ensure(9)

	counts := map[int]int{}
	h.forEach(func(label, count int) { counts[label] = count })

	require.Len(t, counts, 1)
	assert.Equal(t, 0, counts[9])
}

func TestHistogram_Reset(t *testing.T) {
	h := newHistogram(4)
	h.add(1, 1)
	h.add(2, 1)
	h.reset()

	seen := 0
	h.forEach(func(label, count int) { seen++ })
	assert.Equal(t, 0, seen)

	h.add(1, 10)
	counts := map[int]int{}
	h.forEach(func(label, count int) { counts[label] = count })
	assert.Equal(t, 10, counts[1])
}

func TestHistogram_GrowsPastLoadFactor(t *testing.T) {
	h := newHistogram(2)
	n := 200
	for i := 0; i < n; i++ {
		h.add(i, i+1)
	}

	counts := map[int]int{}
	h.forEach(func(label, count int) { counts[label] = count })

	require.Len(t, counts, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, i+1, counts[i])
	}
}

func TestHistogram_NegativeLabelsSupported(t *testing.T) {
	h := newHistogram(4)
	h.add(-5, 3)
	counts := map[int]int{}
	h.forEach(func(label, count int) { counts[label] = count })
	assert.Equal(t, 3, counts[-5])
}
