package features

import (
	"math"
	"sort"

	"BarScan/internal/domain/models"
)

// Enrich adds the cheap per-ticker trailing features the smart filter
// needs: previous session's close and an N-session rolling mean of
// close*volume. Everything is grouped by ticker and computed over trailing
// windows only, so no row's feature reads a later date. Features without a
// full window are NaN, never a short-window average.
func Enrich(bars []models.Bar, dollarVolumeWindow int) []models.EnrichedBar {
	if dollarVolumeWindow < 1 {
		dollarVolumeWindow = 1
	}

	sort.Slice(bars, func(i, j int) bool {
		if bars[i].Ticker != bars[j].Ticker {
			return bars[i].Ticker < bars[j].Ticker
		}
		return bars[i].Date.Before(bars[j].Date)
	})

	out := make([]models.EnrichedBar, 0, len(bars))
	for start := 0; start < len(bars); {
		end := start
		for end < len(bars) && bars[end].Ticker == bars[start].Ticker {
			end++
		}
		out = append(out, enrichTicker(bars[start:end], dollarVolumeWindow)...)
		start = end
	}
	return out
}

func enrichTicker(series []models.Bar, window int) []models.EnrichedBar {
	out := make([]models.EnrichedBar, len(series))
	var rolling float64

	for i, b := range series {
		row := models.EnrichedBar{
			Bar:                  b,
			PrevClose:            math.NaN(),
			TrailingDollarVolume: math.NaN(),
		}
		if i > 0 {
			row.PrevClose = series[i-1].Close
		}

		rolling += b.Close * b.Volume
		if i >= window {
			rolling -= series[i-window].Close * series[i-window].Volume
		}
		if i >= window-1 {
			row.TrailingDollarVolume = rolling / float64(window)
		}
		out[i] = row
	}
	return out
}
