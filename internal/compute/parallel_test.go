package compute_test

import (
	"sync/atomic"
	"testing"

	"github.com/san-kum/wfsrender/internal/compute"
)

// TestParallelForCoversWholeRange covers the concurrent fan-out path (n well
// above minChunk): every index is visited exactly once.
func TestParallelForCoversWholeRange(t *testing.T) {
	const n = 4096
	seen := make([]int32, n)

	compute.ParallelFor(n, 8, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
	})

	for i, v := range seen {
		if v != 1 {
			t.Fatalf("index %d visited %d times, want exactly 1", i, v)
		}
	}
}

func TestParallelForSerialFallbackBelowMinChunk(t *testing.T) {
	const n = 4
	var calls int32

	compute.ParallelFor(n, 64, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		if start != 0 || end != n {
			t.Fatalf("expected single-shot range [0,%d), got [%d,%d)", n, start, end)
		}
	})

	if calls != 1 {
		t.Fatalf("expected fn called once for n below minChunk, got %d calls", calls)
	}
}

func TestParallelForZeroN(t *testing.T) {
	called := false
	compute.ParallelFor(0, 1, func(start, end int) {
		called = true
	})
	if called {
		t.Fatal("expected fn not to be called for n <= 0")
	}
}
