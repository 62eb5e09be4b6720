package scoring

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestPool_CoversRangeOnce(t *testing.T) {
	for _, tc := range []struct {
		name           string
		workers, chunk int
		n              int
	}{
		{"inline", 4, 100, 50},
		{"exact chunks", 4, 10, 40},
		{"ragged tail", 3, 7, 50},
		{"single worker", 1, 5, 23},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPool(tc.workers, tc.chunk)
			hits := make([]int32, tc.n)
			err := p.Run(context.Background(), tc.n, func(_ context.Context, lo, hi int) error {
				for i := lo; i < hi; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
				return nil
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i, h := range hits {
				if h != 1 {
					t.Errorf("index %d visited %d times", i, h)
				}
			}
		})
	}
}

func TestPool_ZeroWork(t *testing.T) {
	p := NewPool(2, 2)
	called := false
	err := p.Run(context.Background(), 0, func(context.Context, int, int) error {
		called = true
		return nil
	})
	if err != nil || called {
		t.Errorf("expected no call and nil error, got called=%v err=%v", called, err)
	}
}

func TestPool_PropagatesError(t *testing.T) {
	p := NewPool(2, 4)
	boom := errors.New("boom")
	err := p.Run(context.Background(), 40, func(_ context.Context, lo, _ int) error {
		if lo == 8 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestPool_CanceledContext(t *testing.T) {
	p := NewPool(2, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx, 40, func(ctx context.Context, _, _ int) error {
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPool_RespectsLimit(t *testing.T) {
	p := NewPool(2, 1)
	var mu sync.Mutex
	active, peak := 0, 0
	err := p.Run(context.Background(), 20, func(context.Context, int, int) error {
		mu.Lock()
		active++
		peak = max(peak, active)
		mu.Unlock()

		mu.Lock()
		active--
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak > 2 {
		t.Errorf("expected at most 2 concurrent chunks, saw %d", peak)
	}
}

func TestNewPool_Defaults(t *testing.T) {
	p := NewPool(0, 0)
	if p.Workers() < 1 {
		t.Errorf("expected at least one worker, got %d", p.Workers())
	}
	if p.chunkSize != 256 {
		t.Errorf("expected default chunk 256, got %d", p.chunkSize)
	}
}
