package models

import (
	"sort"
	"time"
)

// Signal is one pattern occurrence: ticker, trigger date, which clause set
// fired, and every feature value that went into the decision so the result
// can be audited without re-running the scan. Signals are append-only.
type Signal struct {
	Ticker   string             `json:"ticker"`
	Date     time.Time          `json:"date"`
	Pattern  string             `json:"pattern"`
	Features map[string]float64 `json:"features"`
}

// FeatureNames returns the signal's feature names, sorted, so exports
// can lay features out deterministically.
func (s Signal) FeatureNames() []string {
	out := make([]string, 0, len(s.Features))
	for name := range s.Features {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SortSignals orders signals by (ticker, date), the canonical output order.
func SortSignals(signals []Signal) {
	sort.Slice(signals, func(i, j int) bool {
		if signals[i].Ticker != signals[j].Ticker {
			return signals[i].Ticker < signals[j].Ticker
		}
		return signals[i].Date.Before(signals[j].Date)
	})
}

// StageTiming records elapsed wall time for one pipeline stage.
type StageTiming struct {
	Stage   string        `json:"stage"`
	Elapsed time.Duration `json:"elapsed"`
}

// RunReport is the completeness report returned with every run, success or
// not. The caller judges from it whether coverage was acceptable.
type RunReport struct {
	Exchange   string    `json:"exchange"`
	Pattern    string    `json:"pattern"`
	RangeStart time.Time `json:"range_start"`
	RangeEnd   time.Time `json:"range_end"`

	SessionsRequested int      `json:"sessions_requested"`
	SessionsFetched   int      `json:"sessions_fetched"`
	SessionsFailed    []string `json:"sessions_failed,omitempty"`

	RowsFetched   int `json:"rows_fetched"`
	RowsFiltered  int `json:"rows_filtered"`
	TickersBefore int `json:"tickers_before_filter"`
	TickersAfter  int `json:"tickers_after_filter"`

	TickersEvaluated int      `json:"tickers_evaluated"`
	TickersSkipped   []string `json:"tickers_skipped,omitempty"`

	Signals int           `json:"signals"`
	Stages  []StageTiming `json:"stages"`
	Elapsed time.Duration `json:"elapsed"`
}
