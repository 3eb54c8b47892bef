package filter

import (
	"time"

	"BarScan/internal/domain/models"
)

// Thresholds are the cheap inclusion tests. They must be provably weaker
// than any pattern's full trigger clauses so the funnel can never drop a
// ticker that would have signalled.
type Thresholds struct {
	MinPrice        float64
	MinVolume       float64
	MinRange        float64
	MinDollarVolume float64
}

// Result is the filtered table plus funnel counts for the run report.
type Result struct {
	Rows              []models.EnrichedBar
	CandidatesIn      int
	CandidatesPassing int
	TickersBefore     int
	TickersSurviving  int
}

// Apply shrinks the table in two tiers. Rows inside [rangeStart, rangeEnd]
// are candidates and get the threshold test; rows outside are historical
// context and are NEVER tested. Filtering historical rows is what silently
// corrupts rolling indicators downstream. A ticker survives with its full
// historical depth iff at least one of its candidate rows passes; a ticker
// with no passing candidate is dropped entirely.
func Apply(rows []models.EnrichedBar, rangeStart, rangeEnd time.Time, th Thresholds) Result {
	res := Result{}

	surviving := make(map[string]struct{})
	tickers := make(map[string]struct{})
	for _, r := range rows {
		tickers[r.Ticker] = struct{}{}
		if !inRange(r.Date, rangeStart, rangeEnd) {
			continue
		}
		res.CandidatesIn++
		if passes(r, th) {
			res.CandidatesPassing++
			surviving[r.Ticker] = struct{}{}
		}
	}
	res.TickersBefore = len(tickers)
	res.TickersSurviving = len(surviving)

	// Surviving tickers keep every row, including candidate rows that
	// failed the cheap test: dropping those would punch holes in the
	// series and corrupt rolling windows for later candidate dates. The
	// weaker-threshold guarantee means a failed candidate can never fire
	// the full clauses anyway.
	out := make([]models.EnrichedBar, 0, len(rows)/8)
	for _, r := range rows {
		if _, ok := surviving[r.Ticker]; ok {
			out = append(out, r)
		}
	}
	res.Rows = out
	return res
}

func inRange(d, start, end time.Time) bool {
	return !d.Before(start) && !d.After(end)
}

// passes applies the cheap tests. NaN features fail every comparison,
// which is the intended behavior: a candidate without enough trailing
// history for the cheap features cannot satisfy the full clauses either.
func passes(r models.EnrichedBar, th Thresholds) bool {
	if r.Close < th.MinPrice {
		return false
	}
	if r.Volume < th.MinVolume {
		return false
	}
	if r.Range() < th.MinRange {
		return false
	}
	if !(r.TrailingDollarVolume >= th.MinDollarVolume) {
		return false
	}
	return true
}
