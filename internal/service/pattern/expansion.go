package pattern

import (
	"math"

	"BarScan/internal/domain/models"
	"BarScan/internal/service/filter"
	"BarScan/internal/service/indicators"
)

func init() {
	Register(&expansion{name: "expansion_breakout", direction: 1})
	Register(&expansion{name: "expansion_breakdown", direction: -1})
}

// expansion detects a volatility expansion day: a bar whose range and
// volume blow out relative to their own trailing averages, in the
// direction of the recent trend, near the edge of the trailing window.
// direction is +1 for the breakout variant, -1 for the mirrored
// breakdown variant; all clause math is shared.
type expansion struct {
	name      string
	direction float64
}

func (e *expansion) Name() string { return e.name }

func (e *expansion) Schema() []models.ParamSpec {
	return []models.ParamSpec{
		// cheap filter thresholds
		{Name: "min_price", Type: models.ParamNumber, Default: 1.0},
		{Name: "min_volume", Type: models.ParamNumber, Default: 0.0},
		{Name: "min_range", Type: models.ParamNumber, Default: 0.0},
		{Name: "min_dollar_volume", Type: models.ParamNumber, Default: 0.0},

		// window lengths
		{Name: "dollar_volume_window", Type: models.ParamNumber, Default: 20.0},
		{Name: "volume_avg_window", Type: models.ParamNumber, Default: 20.0},
		{Name: "atr_window", Type: models.ParamNumber, Default: 14.0},
		{Name: "ema_window", Type: models.ParamNumber, Default: 20.0},
		{Name: "slope_days", Type: models.ParamNumber, Default: 5.0},
		{Name: "lookback_days", Type: models.ParamNumber, Required: true},
		{Name: "exclude_days", Type: models.ParamNumber, Default: 1.0},

		// trigger clause thresholds
		{Name: "range_atr_mult", Type: models.ParamNumber, Default: 2.0},
		{Name: "volume_mult", Type: models.ParamNumber, Default: 2.0},
		{Name: "gap_atr_mult", Type: models.ParamNumber, Default: 0.0}, // 0 disables the gap clause
		{Name: "min_slope_pct", Type: models.ParamNumber, Default: 0.0},
		{Name: "min_window_pos", Type: models.ParamNumber, Default: 0.0}, // 0 disables the position clause
		{Name: "require_ema_side", Type: models.ParamBool, Default: true},
	}
}

// Thresholds exposes the pattern's cheap tests. Each one is a plain
// floor on a raw or cheaply-derived column, strictly weaker than the
// multiplicative clauses Evaluate applies, so the filter can never drop
// a ticker that would have signalled.
func (e *expansion) Thresholds(p models.ScanParams) filter.Thresholds {
	return filter.Thresholds{
		MinPrice:        p.Number("min_price", 1),
		MinVolume:       p.Number("min_volume", 0),
		MinRange:        p.Number("min_range", 0),
		MinDollarVolume: p.Number("min_dollar_volume", 0),
	}
}

func (e *expansion) Indicators(p models.ScanParams) indicators.Config {
	return indicators.Config{
		AtrWindow:       p.Int("atr_window", 14),
		EmaWindow:       p.Int("ema_window", 20),
		SlopeDays:       p.Int("slope_days", 5),
		VolumeAvgWindow: p.Int("volume_avg_window", 20),
	}
}

// LookbackSessions is the widest trailing requirement of any feature
// plus the safety margin, so the earliest output-range date still sees
// fully warmed indicators.
func (e *expansion) LookbackSessions(p models.ScanParams) int {
	cfg := e.Indicators(p)
	need := p.Int("lookback_days", 0) + p.Int("exclude_days", 0)
	if cfg.AtrWindow+1 > need {
		need = cfg.AtrWindow + 1
	}
	if cfg.EmaWindow > need {
		need = cfg.EmaWindow
	}
	if cfg.SlopeDays+1 > need {
		need = cfg.SlopeDays + 1
	}
	if cfg.VolumeAvgWindow > need {
		need = cfg.VolumeAvgWindow
	}
	if w := p.Int("dollar_volume_window", 20); w > need {
		need = w
	}
	return need + lookbackSafetyMargin
}

// Evaluate applies the trigger conjunction to bar i. Reference values
// (ATR, average volume) are taken at i-1 so the expansion day never
// inflates its own baseline. Any NaN input fails its clause: every
// comparison below is written so that NaN cannot satisfy it.
func (e *expansion) Evaluate(s *indicators.Series, i int, p models.ScanParams) *models.Signal {
	if i < 1 {
		return nil
	}
	bar := s.Bars[i]
	prev := s.Bars[i-1]

	atrRef := s.ATR[i-1]
	volRef := s.AvgVolume[i-1]
	dayRange := bar.Range()
	gap := e.direction * (bar.Open - prev.Close)
	slope := e.direction * s.SlopePct[i]

	// direction: breakout wants an up day, breakdown a down day
	if !(e.direction*(bar.Close-bar.Open) >= 0) {
		return nil
	}
	if !(dayRange >= p.Number("range_atr_mult", 2)*atrRef) {
		return nil
	}
	if !(bar.Volume >= p.Number("volume_mult", 2)*volRef) {
		return nil
	}
	if mult := p.Number("gap_atr_mult", 0); mult > 0 {
		if !(gap >= mult*atrRef) {
			return nil
		}
	}
	if min := p.Number("min_slope_pct", 0); min > 0 {
		if !(slope >= min) {
			return nil
		}
	}

	pos := s.WindowPosition(i, p.Int("lookback_days", 0), p.Int("exclude_days", 0))
	if min := p.Number("min_window_pos", 0); min > 0 {
		edge := pos
		if e.direction < 0 {
			edge = 1 - pos
		}
		if !(edge >= min) {
			return nil
		}
	}

	if p.Bool("require_ema_side", true) {
		if !(e.direction*(bar.Close-s.EMA[i]) > 0) {
			return nil
		}
	}

	// Inputs of disabled clauses can be NaN here (window position on a
	// short series, slope in its warmup). JSON cannot encode NaN, so a
	// missing feature is omitted from the snapshot rather than emitted.
	features := map[string]float64{
		"close":      bar.Close,
		"range":      dayRange,
		"atr":        atrRef,
		"volume":     bar.Volume,
		"avg_volume": volRef,
		"gap":        gap,
		"slope_pct":  slope,
		"window_pos": pos,
		"ema":        s.EMA[i],
	}
	for name, v := range features {
		if math.IsNaN(v) {
			delete(features, name)
		}
	}

	return &models.Signal{
		Ticker:   s.Ticker,
		Date:     bar.Date,
		Pattern:  e.name,
		Features: features,
	}
}
