package indicators

import (
	"fmt"
	"math"
	"time"

	"github.com/markcheno/go-talib"

	"BarScan/internal/domain/models"
)

// Config names the window lengths of the full indicator set.
type Config struct {
	AtrWindow       int
	EmaWindow       int
	SlopeDays       int
	VolumeAvgWindow int
}

// MinBars is the shortest series the indicator set can be computed on.
func (c Config) MinBars() int {
	need := c.AtrWindow + 1 // ATR consumes one bar for the first true range
	if c.EmaWindow > need {
		need = c.EmaWindow
	}
	if c.SlopeDays+1 > need {
		need = c.SlopeDays + 1
	}
	if c.VolumeAvgWindow > need {
		need = c.VolumeAvgWindow
	}
	return need
}

// Series is one ticker's fully indicator-enriched history. Every derived
// slice is parallel to Bars; warmup positions are NaN. All of it is
// computed once per ticker per run. Recomputing inside the per-date loop
// is the classic way to turn a vectorized pass into a >1000x slowdown.
type Series struct {
	Ticker string
	Bars   []models.EnrichedBar

	TrueRange []float64
	ATR       []float64
	EMA       []float64
	SlopePct  []float64 // percent change over SlopeDays
	AvgVolume []float64
}

// Compute builds the indicator set for one ticker. The bars must already
// be sorted ascending by date (the pipeline guarantees this). A series
// shorter than the longest window is rejected with ErrInsufficientHistory
// rather than producing short-window numbers.
func Compute(ticker string, bars []models.EnrichedBar, cfg Config) (*Series, error) {
	if len(bars) < cfg.MinBars() {
		return nil, fmt.Errorf("%w: %s has %d bars, need %d",
			models.ErrInsufficientHistory, ticker, len(bars), cfg.MinBars())
	}

	n := len(bars)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	volume := make([]float64, n)
	for i, b := range bars {
		high[i] = b.High
		low[i] = b.Low
		closes[i] = b.Close
		volume[i] = b.Volume
	}

	s := &Series{
		Ticker:    ticker,
		Bars:      bars,
		TrueRange: maskWarmup(talib.TRange(high, low, closes), 1),
		ATR:       maskWarmup(talib.Atr(high, low, closes, cfg.AtrWindow), cfg.AtrWindow),
		EMA:       maskWarmup(talib.Ema(closes, cfg.EmaWindow), cfg.EmaWindow-1),
		SlopePct:  maskWarmup(talib.Roc(closes, cfg.SlopeDays), cfg.SlopeDays),
		AvgVolume: maskWarmup(talib.Sma(volume, cfg.VolumeAvgWindow), cfg.VolumeAvgWindow-1),
	}
	return s, nil
}

// maskWarmup replaces the leading warmup region with NaN. talib pads it
// with zeros, which downstream clause math would happily treat as real
// values; missing must stay missing.
func maskWarmup(vals []float64, firstValid int) []float64 {
	for i := 0; i < firstValid && i < len(vals); i++ {
		vals[i] = math.NaN()
	}
	return vals
}

// Index returns the position of the bar with the given date, or -1.
func (s *Series) Index(date time.Time) int {
	for i := range s.Bars {
		if s.Bars[i].Date.Equal(date) {
			return i
		}
	}
	return -1
}

// WindowPosition locates the close of bar i inside its own trailing
// range: 0 means at the window low, 1 at the window high. The window is
// the lookback-long slice ending exclude sessions before i, so the
// candidate date itself never contaminates its own reference window.
// Returns NaN when the series does not reach back far enough.
func (s *Series) WindowPosition(i, lookback, exclude int) float64 {
	lo := i - exclude - lookback
	hi := i - exclude
	if lo < 0 || hi <= lo {
		return math.NaN()
	}

	winHigh := math.Inf(-1)
	winLow := math.Inf(1)
	for j := lo; j <= hi; j++ {
		if s.Bars[j].High > winHigh {
			winHigh = s.Bars[j].High
		}
		if s.Bars[j].Low < winLow {
			winLow = s.Bars[j].Low
		}
	}
	if winHigh == winLow {
		return math.NaN()
	}
	return (s.Bars[i].Close - winLow) / (winHigh - winLow)
}
