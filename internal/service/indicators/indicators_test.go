package indicators

import (
	"errors"
	"math"
	"testing"
	"time"

	"BarScan/internal/domain/models"
)

func flatBars(n int, high, low, close, volume float64) []models.EnrichedBar {
	out := make([]models.EnrichedBar, n)
	for i := range out {
		out[i] = models.EnrichedBar{Bar: models.Bar{
			Ticker: "XYZ",
			Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   close,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: volume,
		}}
	}
	return out
}

var cfg = Config{AtrWindow: 5, EmaWindow: 5, SlopeDays: 3, VolumeAvgWindow: 5}

func TestComputeRejectsShortSeries(t *testing.T) {
	_, err := Compute("XYZ", flatBars(3, 11, 9, 10, 1000), cfg)
	if !errors.Is(err, models.ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestWarmupIsMissingNotZero(t *testing.T) {
	s, err := Compute("XYZ", flatBars(20, 11, 9, 10, 1000), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsNaN(s.TrueRange[0]) {
		t.Fatalf("true range warmup must be NaN, got %v", s.TrueRange[0])
	}
	for i := 0; i < cfg.AtrWindow; i++ {
		if !math.IsNaN(s.ATR[i]) {
			t.Fatalf("ATR[%d] in warmup must be NaN, got %v", i, s.ATR[i])
		}
	}
	for i := 0; i < cfg.SlopeDays; i++ {
		if !math.IsNaN(s.SlopePct[i]) {
			t.Fatalf("slope[%d] in warmup must be NaN, got %v", i, s.SlopePct[i])
		}
	}
}

func TestConstantSeriesValues(t *testing.T) {
	// With constant H=11 L=9 C=10, every true range is 2, so ATR is 2
	// after warmup; EMA and average volume equal the constants.
	s, err := Compute("XYZ", flatBars(20, 11, 9, 10, 1000), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := len(s.Bars) - 1
	if math.Abs(s.ATR[last]-2) > 1e-9 {
		t.Fatalf("expected ATR 2, got %v", s.ATR[last])
	}
	if math.Abs(s.EMA[last]-10) > 1e-9 {
		t.Fatalf("expected EMA 10, got %v", s.EMA[last])
	}
	if math.Abs(s.AvgVolume[last]-1000) > 1e-9 {
		t.Fatalf("expected avg volume 1000, got %v", s.AvgVolume[last])
	}
	if math.Abs(s.SlopePct[last]) > 1e-9 {
		t.Fatalf("expected zero slope on flat closes, got %v", s.SlopePct[last])
	}
}

func TestWindowPosition(t *testing.T) {
	bars := flatBars(12, 11, 9, 10, 1000)
	// make the final bar close at the window high
	bars[11].Close = 11
	s, err := Compute("XYZ", bars, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := s.WindowPosition(11, 5, 1)
	if math.Abs(pos-1) > 1e-9 {
		t.Fatalf("close at window high should be position 1, got %v", pos)
	}

	bars[11].Close = 9
	pos = s.WindowPosition(11, 5, 1)
	if math.Abs(pos) > 1e-9 {
		t.Fatalf("close at window low should be position 0, got %v", pos)
	}
}

func TestWindowPositionInsufficientLookback(t *testing.T) {
	bars := flatBars(12, 11, 9, 10, 1000)
	s, err := Compute("XYZ", bars, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos := s.WindowPosition(3, 5, 1); !math.IsNaN(pos) {
		t.Fatalf("expected NaN for short lookback, got %v", pos)
	}
}

func TestIndexLookup(t *testing.T) {
	bars := flatBars(10, 11, 9, 10, 1000)
	s, err := Compute("XYZ", bars, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i := s.Index(bars[4].Date); i != 4 {
		t.Fatalf("expected index 4, got %d", i)
	}
	if i := s.Index(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)); i != -1 {
		t.Fatalf("expected -1 for unknown date, got %d", i)
	}
}
