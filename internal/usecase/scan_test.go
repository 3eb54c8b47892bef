package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"BarScan/internal/domain/models"
	"BarScan/internal/service/calendar"
	"BarScan/pkg/logger"
	"BarScan/pkg/metrics"
)

var day8 = time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)

// synthSource serves a deterministic synthetic universe keyed purely by
// date: AAA is flat forever, XYZ is flat except a range+volume spike on
// spikeDate, NEW only starts trading on newFrom.
type synthSource struct {
	spikeDate time.Time
	newFrom   time.Time
	failDate  time.Time
}

func flat(ticker string, d time.Time) models.Bar {
	return models.Bar{Ticker: ticker, Date: d, Open: 10, High: 11, Low: 9, Close: 10, Volume: 1000}
}

func (s *synthSource) GroupedDaily(_ context.Context, sess models.Session) ([]models.Bar, error) {
	d := sess.Date
	if !s.failDate.IsZero() && d.Equal(s.failDate) {
		return nil, errors.New("connection reset")
	}

	bars := []models.Bar{flat("AAA", d)}

	xyz := flat("XYZ", d)
	if d.Equal(s.spikeDate) {
		xyz.High, xyz.Low, xyz.Close, xyz.Volume = 14.5, 10, 14, 3000
	}
	bars = append(bars, xyz)

	if !s.newFrom.IsZero() && !d.Before(s.newFrom) {
		bars = append(bars, flat("NEW", d))
	}
	return bars, nil
}

func scanParams() models.ScanParams {
	return models.NewScanParams(map[string]interface{}{
		"lookback_days":        5,
		"exclude_days":         1,
		"atr_window":           5,
		"ema_window":           5,
		"slope_days":           3,
		"volume_avg_window":    5,
		"dollar_volume_window": 5,
		"range_atr_mult":       2.0,
		"volume_mult":          2.0,
	})
}

func newScanner(src *synthSource) *Scanner {
	fetcher := NewBulkFetcher(src, metrics.Nop{}, logger.Nop(), FetchConfig{
		Workers: 2,
		Retries: 1,
		Timeout: time.Second,
	})
	return NewScanner(calendar.New(), fetcher, nil, nil, metrics.Nop{}, logger.Nop(), 4)
}

func request() ScanRequest {
	return ScanRequest{
		Exchange:   "XNYS",
		Pattern:    "expansion_breakout",
		RangeStart: day8,
		RangeEnd:   day8,
		Params:     scanParams(),
	}
}

func TestScanFindsSingleSpike(t *testing.T) {
	signals, report, err := newScanner(&synthSource{spikeDate: day8}).Scan(context.Background(), request())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(signals) != 1 {
		t.Fatalf("expected exactly one signal, got %d: %+v", len(signals), signals)
	}
	sig := signals[0]
	if sig.Ticker != "XYZ" || !sig.Date.Equal(day8) {
		t.Fatalf("wrong signal: %+v", sig)
	}
	if report.Signals != 1 || len(report.SessionsFailed) != 0 {
		t.Fatalf("wrong report: %+v", report)
	}
	// the flat ticker survived the cheap filter but fired nothing
	if report.TickersAfter < 2 {
		t.Fatalf("flat ticker should survive the filter: %+v", report)
	}
}

func TestScanNoSpikeNoSignals(t *testing.T) {
	// spike outside the output range: still in the data, not a candidate
	src := &synthSource{spikeDate: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)}
	signals, _, err := newScanner(src).Scan(context.Background(), request())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(signals) != 0 {
		t.Fatalf("expected no signals, got %+v", signals)
	}
}

func TestScanSurvivesPartialFetchFailure(t *testing.T) {
	// one historical session fails every attempt; the run must complete,
	// name the gap, and still produce the spike signal
	src := &synthSource{
		spikeDate: day8,
		failDate:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	signals, report, err := newScanner(src).Scan(context.Background(), request())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(report.SessionsFailed) != 1 || report.SessionsFailed[0] != "XNYS:2024-03-01" {
		t.Fatalf("report must name the failed session: %+v", report.SessionsFailed)
	}
	if report.SessionsFetched != report.SessionsRequested-1 {
		t.Fatalf("fetched count mismatch: %+v", report)
	}
	if len(signals) != 1 || signals[0].Ticker != "XYZ" {
		t.Fatalf("signal must be unaffected by the unrelated gap: %+v", signals)
	}
}

func TestScanSkipsTickerWithShortHistory(t *testing.T) {
	// NEW starts trading five sessions before the output date: enough
	// history for the cheap features, not for the full indicator
	// windows, so it is skipped during detection, not fatal
	src := &synthSource{
		spikeDate: day8,
		newFrom:   time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
	}
	signals, report, err := newScanner(src).Scan(context.Background(), request())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	found := false
	for _, tk := range report.TickersSkipped {
		if tk == "NEW" {
			found = true
		}
	}
	if !found {
		t.Fatalf("NEW must be in the skipped list: %+v", report.TickersSkipped)
	}
	if len(signals) != 1 || signals[0].Ticker != "XYZ" {
		t.Fatalf("other tickers must be unaffected: %+v", signals)
	}
}

func TestScanDeterministicAcrossRuns(t *testing.T) {
	s := newScanner(&synthSource{spikeDate: day8})
	first, _, err := s.Scan(context.Background(), request())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	second, _, err := s.Scan(context.Background(), request())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same input must give identical output:\n%+v\n%+v", first, second)
	}
}

func TestScanRejectsBadParams(t *testing.T) {
	req := request()
	req.Params = models.NewScanParams(map[string]interface{}{
		"lookback_days": 3,
		"exclude_days":  5,
	})
	_, _, err := newScanner(&synthSource{}).Scan(context.Background(), req)
	if !errors.Is(err, models.ErrBadParams) {
		t.Fatalf("expected ErrBadParams before any fetch, got %v", err)
	}
}

func TestScanRejectsUnknownExchange(t *testing.T) {
	req := request()
	req.Exchange = "XLON"
	_, _, err := newScanner(&synthSource{}).Scan(context.Background(), req)
	if !errors.Is(err, models.ErrCalendarUnavailable) {
		t.Fatalf("expected ErrCalendarUnavailable, got %v", err)
	}
}

type capturingStore struct {
	batches [][]models.Signal
}

func (c *capturingStore) Init(context.Context) error { return nil }
func (c *capturingStore) StoreBatch(_ context.Context, sigs []models.Signal) error {
	c.batches = append(c.batches, sigs)
	return nil
}
func (c *capturingStore) Close() error { return nil }

func TestScanExportsToStore(t *testing.T) {
	src := &synthSource{spikeDate: day8}
	fetcher := NewBulkFetcher(src, metrics.Nop{}, logger.Nop(), FetchConfig{Workers: 2, Timeout: time.Second})
	store := &capturingStore{}
	s := NewScanner(calendar.New(), fetcher, store, nil, metrics.Nop{}, logger.Nop(), 2)

	signals, _, err := s.Scan(context.Background(), request())
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if len(store.batches) != 1 || !reflect.DeepEqual(store.batches[0], signals) {
		t.Fatalf("store must receive the final signal batch")
	}
}
