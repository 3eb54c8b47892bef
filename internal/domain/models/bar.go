package models

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the canonical wire format for session dates.
const DateLayout = "2006-01-02"

// Session is one confirmed trading day on an exchange.
type Session struct {
	Exchange string
	Date     time.Time // UTC midnight
}

// Key returns a stable identifier, e.g. "XNYS:2024-03-08".
func (s Session) Key() string {
	return fmt.Sprintf("%s:%s", s.Exchange, s.Date.Format(DateLayout))
}

// Bar is one (ticker, session) OHLCV row of the long-form table.
type Bar struct {
	Ticker string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Range returns the intraday high-low span.
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// EnrichedBar is a Bar plus the cheap per-ticker trailing features used by
// the smart filter. Missing features are NaN, never zero.
type EnrichedBar struct {
	Bar
	PrevClose            float64
	TrailingDollarVolume float64
}

// SortBars orders rows by (ticker, date), the canonical table order.
// Stages that fan out across workers re-sort with this before returning so
// scheduling never affects output.
func SortBars(rows []EnrichedBar) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Ticker != rows[j].Ticker {
			return rows[i].Ticker < rows[j].Ticker
		}
		return rows[i].Date.Before(rows[j].Date)
	})
}
