package collections

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestAtomicBitset_Basic(t *testing.T) {
	b := NewAtomicBitset(100)

	if b.Test(5) {
		t.Error("expected bit 5 to be clear initially")
	}

	b.Set(5)
	if !b.Test(5) {
		t.Error("expected bit 5 to be set")
	}

	b.Clear(5)
	if b.Test(5) {
		t.Error("expected bit 5 to be clear after Clear")
	}
}

func TestAtomicBitset_SetAllAndCount(t *testing.T) {
	b := NewAtomicBitset(130)
	b.SetAll()

	if got := b.Count(); got != 130 {
		t.Errorf("expected 130 set bits, got %d", got)
	}

	for i := 0; i < 130; i++ {
		if !b.Test(i) {
			t.Errorf("expected bit %d to be set after SetAll", i)
		}
	}
}

func TestAtomicBitset_TestAndClear(t *testing.T) {
	b := NewAtomicBitset(10)
	b.Set(3)

	if !b.TestAndClear(3) {
		t.Error("expected TestAndClear to observe bit 3 set")
	}
	if b.Test(3) {
		t.Error("expected bit 3 to be clear after TestAndClear")
	}
	if b.TestAndClear(3) {
		t.Error("expected second TestAndClear to observe bit 3 already clear")
	}
}

func TestAtomicBitset_ConcurrentSetClear(t *testing.T) {
	const n = 10_000
	b := NewAtomicBitset(n)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := worker; i < n; i += 8 {
				b.Set(i)
			}
		}(w)
	}
	wg.Wait()

	if got := b.Count(); got != n {
		t.Errorf("expected %d set bits after concurrent Set, got %d", n, got)
	}
}

func TestAtomicBitset_ConcurrentTestAndClearIsExclusive(t *testing.T) {
	const n = 4096
	b := NewAtomicBitset(n)
	b.SetAll()

	var claimed atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < n; i++ {
				if b.TestAndClear(i) {
					claimed.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	if got := claimed.Load(); got != int64(n) {
		t.Errorf("expected exactly %d successful TestAndClear across all goroutines, got %d", n, got)
	}
}
