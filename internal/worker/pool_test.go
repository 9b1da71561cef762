package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	tests := []struct {
		workers int
		want    int
	}{
		{4, 4},
		{1, 1},
		{0, 1},
		{-3, 1},
	}
	for _, tt := range tests {
		if got := NewPool(tt.workers).Workers(); got != tt.want {
			t.Errorf("NewPool(%d).Workers() = %d, want %d", tt.workers, got, tt.want)
		}
	}
}

func TestRun_PreservesOrder(t *testing.T) {
	titles := []string{"Moscow", "Paris", "Mount Everest", "Lake Baikal", "Volga"}

	got := Run(context.Background(), NewPool(3), len(titles), func(ctx context.Context, i int) string {
		// later jobs finish first
		time.Sleep(time.Duration(len(titles)-i) * time.Millisecond)
		return titles[i]
	})

	for i := range titles {
		if got[i] != titles[i] {
			t.Fatalf("Run() = %v, want %v", got, titles)
		}
	}
}

func TestRun_BoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32

	Run(context.Background(), NewPool(2), 8, func(ctx context.Context, i int) struct{} {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return struct{}{}
	})

	if p := peak.Load(); p > 2 || p < 1 {
		t.Errorf("peak concurrency = %d, want 1..2", p)
	}
}

func TestRun_Empty(t *testing.T) {
	called := false
	got := Run(context.Background(), NewPool(2), 0, func(ctx context.Context, i int) int {
		called = true
		return i
	})
	if len(got) != 0 || called {
		t.Errorf("Run() = %v, called = %v", got, called)
	}
}

func TestRun_PassesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errs := Run(ctx, NewPool(2), 3, func(ctx context.Context, i int) error {
		return ctx.Err()
	})
	for i, err := range errs {
		if err != context.Canceled {
			t.Errorf("job %d saw %v, want context.Canceled", i, err)
		}
	}
}

func TestRun_RepanicsAfterWait(t *testing.T) {
	var finished atomic.Int32
	defer func() {
		if recover() == nil {
			t.Error("expected Run to re-panic")
		}
		if finished.Load() != 2 {
			t.Errorf("finished = %d, want the other jobs to complete", finished.Load())
		}
	}()

	Run(context.Background(), NewPool(3), 3, func(ctx context.Context, i int) int {
		if i == 1 {
			panic("bad infobox")
		}
		finished.Add(1)
		return i
	})
}
