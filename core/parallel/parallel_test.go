package parallel

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestParallelizeCoversAllItems(t *testing.T) {
	const items = 1000
	var visited [items]int32

	Parallelize(items, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&visited[i], 1)
		}
	})

	for i, count := range visited {
		if count != 1 {
			t.Fatalf("item %d visited %d times, want exactly once", i, count)
		}
	}
}

func TestParallelizeZeroItems(t *testing.T) {
	called := false
	Parallelize(0, func(start, end int) {
		called = true
	})
	if called {
		t.Error("fn should not be called for zero items")
	}
}

func TestParallelizeWithThreshold(t *testing.T) {
	// Below threshold: a single sequential call over the full range.
	var calls int32
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		atomic.AddInt32(&calls, 1)
		if start != 0 || end != 10 {
			t.Errorf("sequential call should cover [0, 10), got [%d, %d)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("expected 1 sequential call, got %d", calls)
	}

	// Above threshold: every item covered exactly once.
	var total int64
	ParallelizeWithThreshold(1000, 100, func(start, end int) {
		atomic.AddInt64(&total, int64(end-start))
	})
	if total != 1000 {
		t.Errorf("expected 1000 items processed, got %d", total)
	}
}

func TestParallelizeWithErrors(t *testing.T) {
	sentinel := errors.New("column 3 failed")

	err := ParallelizeWithErrors(8, func(start, end int) error {
		for i := start; i < end; i++ {
			if i == 3 {
				return sentinel
			}
		}
		return nil
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("expected sentinel error, got %v", err)
	}

	err = ParallelizeWithErrors(8, func(start, end int) error {
		return nil
	})
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}

	err = ParallelizeWithErrors(0, func(start, end int) error {
		return sentinel
	})
	if err != nil {
		t.Errorf("zero items should return nil, got %v", err)
	}
}
