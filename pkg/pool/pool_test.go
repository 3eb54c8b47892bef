package pool

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapPreservesIndexOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	results := Map(context.Background(), 3, items, func(_ context.Context, n int) (int, error) {
		return n * 10, nil
	})
	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("unexpected error at %d: %v", i, r.Err)
		}
		if r.Index != i || r.Value != items[i]*10 {
			t.Fatalf("result %d out of place: %+v", i, r)
		}
	}
}

func TestMapCollectsErrors(t *testing.T) {
	boom := errors.New("boom")
	items := []int{0, 1, 2}
	results := Map(context.Background(), 2, items, func(_ context.Context, n int) (int, error) {
		if n == 1 {
			return 0, boom
		}
		return n, nil
	})
	if results[1].Err == nil || !errors.Is(results[1].Err, boom) {
		t.Fatalf("expected error for item 1, got %v", results[1].Err)
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Fatalf("unaffected items must not error")
	}
}

func TestMapRecoversPanics(t *testing.T) {
	items := []int{0, 1}
	results := Map(context.Background(), 2, items, func(_ context.Context, n int) (int, error) {
		if n == 0 {
			panic(fmt.Sprintf("bad item %d", n))
		}
		return n, nil
	})
	if results[0].Err == nil {
		t.Fatalf("expected panic converted to error")
	}
	if results[1].Err != nil || results[1].Value != 1 {
		t.Fatalf("other task must complete: %+v", results[1])
	}
}

func TestMapCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := Map(ctx, 2, []int{1, 2, 3}, func(ctx context.Context, n int) (int, error) {
		return n, ctx.Err()
	})
	for _, r := range results {
		if r.Err == nil {
			t.Fatalf("expected context error, got none")
		}
	}
}
