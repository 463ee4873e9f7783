package blockwork_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/cocosip/go-mapbuffer/blockwork"
)

func TestRunCoversWholeRangeExactlyOnce(t *testing.T) {
	const total = 1000
	var mu sync.Mutex
	var seen []int64

	err := blockwork.Run(context.Background(), total, 64, func(lo, hi int64) error {
		mu.Lock()
		defer mu.Unlock()
		for i := lo; i < hi; i++ {
			seen = append(seen, i)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sort.Slice(seen, func(i, j int) bool { return seen[i] < seen[j] })
	if len(seen) != total {
		t.Fatalf("covered %d rows, want %d", len(seen), total)
	}
	for i, v := range seen {
		if v != int64(i) {
			t.Fatalf("row %d missing or duplicated, got sequence %v near index %d", i, seen[max(0, i-2):min(len(seen), i+2)], i)
		}
	}
}

func TestRunPropagatesFirstError(t *testing.T) {
	wantErr := errors.New("boom")
	err := blockwork.Run(context.Background(), 100, 10, func(lo, hi int64) error {
		if lo == 50 {
			return wantErr
		}
		return nil
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Run() error = %v, want wrapping %v", err, wantErr)
	}
}

func TestRunZeroOrNegativeTotalIsNoop(t *testing.T) {
	called := false
	if err := blockwork.Run(context.Background(), 0, 10, func(lo, hi int64) error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Errorf("fn should not be called for total <= 0")
	}
}

func TestRunSmallTotalSingleBlock(t *testing.T) {
	calls := 0
	err := blockwork.Run(context.Background(), 5, 256, func(lo, hi int64) error {
		calls++
		if lo != 0 || hi != 5 {
			t.Errorf("expected single block [0,5), got [%d,%d)", lo, hi)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 call, got %d", calls)
	}
}
