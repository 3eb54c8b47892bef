package pattern

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"BarScan/internal/domain/models"
	"BarScan/internal/service/indicators"
)

func baseParams() models.ScanParams {
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

// series of n flat bars (H=11 L=9 C=10 V=1000) with an optional
// expansion bar appended.
func seriesWith(t *testing.T, def Definition, p models.ScanParams, spike *models.Bar) *indicators.Series {
	t.Helper()
	bars := make([]models.EnrichedBar, 0, 21)
	for i := 0; i < 20; i++ {
		bars = append(bars, models.EnrichedBar{Bar: models.Bar{
			Ticker: "XYZ",
			Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   10, High: 11, Low: 9, Close: 10, Volume: 1000,
		}})
	}
	if spike != nil {
		spike.Ticker = "XYZ"
		spike.Date = time.Date(2024, 3, 21, 0, 0, 0, 0, time.UTC)
		bars = append(bars, models.EnrichedBar{Bar: *spike})
	}
	s, err := indicators.Compute("XYZ", bars, def.Indicators(p))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	return s
}

func TestBreakoutFiresOnExpansionDay(t *testing.T) {
	def, err := Get("expansion_breakout")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	p := baseParams()

	// flat ATR is 2 and flat average volume 1000; the spike doubles both
	s := seriesWith(t, def, p, &models.Bar{Open: 10, High: 14.5, Low: 10, Close: 14, Volume: 3000})
	sig := def.Evaluate(s, len(s.Bars)-1, p)
	if sig == nil {
		t.Fatal("expected a breakout signal on the expansion day")
	}
	if sig.Ticker != "XYZ" || sig.Pattern != "expansion_breakout" {
		t.Fatalf("wrong signal identity: %+v", sig)
	}
	if sig.Features["atr"] != 2 || sig.Features["avg_volume"] != 1000 {
		t.Fatalf("signal must carry the reference values it tested against: %v", sig.Features)
	}
}

func TestNoSignalWithoutExpansion(t *testing.T) {
	def, _ := Get("expansion_breakout")
	p := baseParams()
	s := seriesWith(t, def, p, nil)
	for i := range s.Bars {
		if sig := def.Evaluate(s, i, p); sig != nil {
			t.Fatalf("flat series must not signal, got one at %d", i)
		}
	}
}

func TestWarmupReferenceBlocksSignal(t *testing.T) {
	// an expansion inside the ATR warmup has a NaN reference and must
	// fail its clause rather than fire against a zero
	def, _ := Get("expansion_breakout")
	p := baseParams()
	s := seriesWith(t, def, p, nil)
	s.Bars[2].Close = 14
	s.Bars[2].High = 14.5
	s.Bars[2].Volume = 3000
	if sig := def.Evaluate(s, 2, p); sig != nil {
		t.Fatal("evaluation inside warmup must not signal")
	}
}

func TestBreakdownMirrorsBreakout(t *testing.T) {
	down, _ := Get("expansion_breakdown")
	up, _ := Get("expansion_breakout")
	p := baseParams()

	s := seriesWith(t, down, p, &models.Bar{Open: 10, High: 10, Low: 5.5, Close: 6, Volume: 3000})
	i := len(s.Bars) - 1
	if sig := down.Evaluate(s, i, p); sig == nil {
		t.Fatal("expected a breakdown signal on the down expansion")
	}
	if sig := up.Evaluate(s, i, p); sig != nil {
		t.Fatal("a down expansion must not fire the breakout variant")
	}
}

func TestVolumeClauseRejects(t *testing.T) {
	def, _ := Get("expansion_breakout")
	p := baseParams()
	// range expands but volume stays at the average
	s := seriesWith(t, def, p, &models.Bar{Open: 10, High: 14.5, Low: 10, Close: 14, Volume: 1000})
	if sig := def.Evaluate(s, len(s.Bars)-1, p); sig != nil {
		t.Fatal("volume at trailing average must not satisfy the volume clause")
	}
}

func TestShortSeriesSignalOmitsMissingFeatures(t *testing.T) {
	// 9 bars clear MinBars but not lookback+exclude, so the window
	// position is missing while the position clause is disabled. The
	// signal still fires and its snapshot must stay JSON-encodable:
	// missing features are omitted, never NaN.
	def, _ := Get("expansion_breakout")
	p := models.NewScanParams(map[string]interface{}{
		"lookback_days":     10,
		"exclude_days":      1,
		"atr_window":        5,
		"ema_window":        5,
		"slope_days":        3,
		"volume_avg_window": 5,
		"range_atr_mult":    2.0,
		"volume_mult":       2.0,
	})

	bars := make([]models.EnrichedBar, 0, 9)
	for i := 0; i < 8; i++ {
		bars = append(bars, models.EnrichedBar{Bar: models.Bar{
			Ticker: "NEW",
			Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   10, High: 11, Low: 9, Close: 10, Volume: 1000,
		}})
	}
	bars = append(bars, models.EnrichedBar{Bar: models.Bar{
		Ticker: "NEW",
		Date:   time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		Open:   10, High: 14.5, Low: 10, Close: 14, Volume: 3000,
	}})

	s, err := indicators.Compute("NEW", bars, def.Indicators(p))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	sig := def.Evaluate(s, len(s.Bars)-1, p)
	if sig == nil {
		t.Fatal("expected a signal with the position clause disabled")
	}
	if _, ok := sig.Features["window_pos"]; ok {
		t.Fatalf("missing window position must be omitted, got %v", sig.Features["window_pos"])
	}
	for name, v := range sig.Features {
		if math.IsNaN(v) {
			t.Fatalf("feature %q is NaN", name)
		}
	}
	if _, err := json.Marshal(sig); err != nil {
		t.Fatalf("signal must survive JSON encoding: %v", err)
	}
}

func TestValidateParams(t *testing.T) {
	def, _ := Get("expansion_breakout")

	if err := ValidateParams(def, baseParams()); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}

	missing := models.NewScanParams(map[string]interface{}{"exclude_days": 1})
	if err := ValidateParams(def, missing); !errors.Is(err, models.ErrBadParams) {
		t.Fatalf("missing lookback_days must be ErrBadParams, got %v", err)
	}

	inverted := models.NewScanParams(map[string]interface{}{
		"lookback_days": 3,
		"exclude_days":  5,
	})
	if err := ValidateParams(def, inverted); !errors.Is(err, models.ErrBadParams) {
		t.Fatalf("exclude_days > lookback_days must be ErrBadParams, got %v", err)
	}

	unknown := models.NewScanParams(map[string]interface{}{
		"lookback_days": 5,
		"min_prize":     10,
	})
	if err := ValidateParams(def, unknown); !errors.Is(err, models.ErrBadParams) {
		t.Fatalf("unknown parameter must be ErrBadParams, got %v", err)
	}

	// a cheap feature window wider than the volume clause window could
	// filter out a ticker whose full clauses would pass
	wideCheap := models.NewScanParams(map[string]interface{}{
		"lookback_days":        5,
		"dollar_volume_window": 30,
		"volume_avg_window":    10,
	})
	if err := ValidateParams(def, wideCheap); !errors.Is(err, models.ErrBadParams) {
		t.Fatalf("dollar_volume_window > volume_avg_window must be ErrBadParams, got %v", err)
	}

	// the check holds against the schema default too
	narrowVol := models.NewScanParams(map[string]interface{}{
		"lookback_days":     5,
		"volume_avg_window": 10,
	})
	if err := ValidateParams(def, narrowVol); !errors.Is(err, models.ErrBadParams) {
		t.Fatalf("default dollar_volume_window above volume_avg_window must be ErrBadParams, got %v", err)
	}
}

func TestGetUnknownPattern(t *testing.T) {
	if _, err := Get("head_and_shoulders"); !errors.Is(err, models.ErrBadParams) {
		t.Fatalf("unknown pattern must be ErrBadParams, got %v", err)
	}
}

func TestLookbackCoversWidestWindow(t *testing.T) {
	def, _ := Get("expansion_breakout")
	p := models.NewScanParams(map[string]interface{}{
		"lookback_days":        50,
		"exclude_days":         2,
		"atr_window":           14,
		"dollar_volume_window": 20,
	})
	// lookback+exclude dominates every indicator window here
	if got := def.LookbackSessions(p); got != 57 {
		t.Fatalf("expected 52+margin sessions, got %d", got)
	}
}
