package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"BarScan/internal/domain/models"
	"BarScan/pkg/cache"
	"BarScan/pkg/logger"
)

type countingSource struct {
	calls int
	err   error
}

func (c *countingSource) GroupedDaily(_ context.Context, s models.Session) ([]models.Bar, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []models.Bar{{Ticker: "XYZ", Date: s.Date, Close: 10, Volume: 100}}, nil
}

var testSession = models.Session{
	Exchange: "XNYS",
	Date:     time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
}

func TestCachedBarSourceHitsUpstreamOnce(t *testing.T) {
	upstream := &countingSource{}
	src := NewCachedBarSource(upstream, cache.NewMemoryCache(), time.Hour, logger.Nop())

	first, err := src.GroupedDaily(context.Background(), testSession)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := src.GroupedDaily(context.Background(), testSession)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if upstream.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", upstream.calls)
	}
	if len(first) != 1 || len(second) != 1 || first[0].Ticker != second[0].Ticker {
		t.Fatalf("cached payload differs: %+v vs %+v", first, second)
	}
	if !second[0].Date.Equal(first[0].Date) {
		t.Fatalf("cached date differs: %v vs %v", first[0].Date, second[0].Date)
	}
}

func TestCachedBarSourceDistinctSessions(t *testing.T) {
	upstream := &countingSource{}
	src := NewCachedBarSource(upstream, cache.NewMemoryCache(), time.Hour, logger.Nop())

	other := models.Session{Exchange: "XNYS", Date: testSession.Date.AddDate(0, 0, 1)}
	if _, err := src.GroupedDaily(context.Background(), testSession); err != nil {
		t.Fatal(err)
	}
	if _, err := src.GroupedDaily(context.Background(), other); err != nil {
		t.Fatal(err)
	}
	if upstream.calls != 2 {
		t.Fatalf("different sessions must not share cache entries, got %d calls", upstream.calls)
	}
}

func TestCachedBarSourceUpstreamErrorNotCached(t *testing.T) {
	upstream := &countingSource{err: errors.New("connection reset")}
	src := NewCachedBarSource(upstream, cache.NewMemoryCache(), time.Hour, logger.Nop())

	if _, err := src.GroupedDaily(context.Background(), testSession); err == nil {
		t.Fatal("expected upstream error to surface")
	}
	upstream.err = nil
	if _, err := src.GroupedDaily(context.Background(), testSession); err != nil {
		t.Fatalf("recovery fetch failed: %v", err)
	}
	if upstream.calls != 2 {
		t.Fatalf("failure must not poison the cache, got %d calls", upstream.calls)
	}
}
