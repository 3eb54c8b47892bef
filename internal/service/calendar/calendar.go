package calendar

import (
	"context"
	"fmt"
	"time"

	"BarScan/internal/domain/models"
	"BarScan/internal/domain/repository"
	"BarScan/pkg/util"
)

// Service resolves trading sessions from a static holiday table. It is the
// leaf of the pipeline: deterministic, no I/O, no dependencies.
type Service struct{}

func New() repository.Calendar {
	return &Service{}
}

// Resolve returns the ascending sessions in [start, end], both inclusive.
func (s *Service) Resolve(_ context.Context, exchange string, start, end time.Time) ([]models.Session, error) {
	if err := checkCoverage(exchange, start, end); err != nil {
		return nil, err
	}

	start = util.MidnightUTC(start)
	end = util.MidnightUTC(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: range end %s before start %s",
			models.ErrCalendarUnavailable, util.FormatDate(end), util.FormatDate(start))
	}

	var out []models.Session
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if isOpen(d) {
			out = append(out, models.Session{Exchange: exchange, Date: d})
		}
	}
	return out, nil
}

// SessionsBefore returns the n sessions strictly before d, ascending.
func (s *Service) SessionsBefore(_ context.Context, exchange string, d time.Time, n int) ([]models.Session, error) {
	if err := checkCoverage(exchange, d, d); err != nil {
		return nil, err
	}

	d = util.MidnightUTC(d)
	out := make([]models.Session, 0, n)
	for cur := d.AddDate(0, 0, -1); len(out) < n; cur = cur.AddDate(0, 0, -1) {
		if cur.Year() < coverageStartYear {
			return nil, fmt.Errorf("%w: lookback before %d-01-01 (need %d more sessions)",
				models.ErrCalendarUnavailable, coverageStartYear, n-len(out))
		}
		if isOpen(cur) {
			out = append(out, models.Session{Exchange: exchange, Date: cur})
		}
	}

	// collected backwards; reverse to ascending
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func checkCoverage(exchange string, start, end time.Time) error {
	if _, ok := supportedExchanges[exchange]; !ok {
		return fmt.Errorf("%w: unknown exchange %q", models.ErrCalendarUnavailable, exchange)
	}
	if start.Year() < coverageStartYear || end.Year() > coverageEndYear {
		return fmt.Errorf("%w: holiday table covers %d-%d, requested %s..%s",
			models.ErrCalendarUnavailable, coverageStartYear, coverageEndYear,
			util.FormatDate(start), util.FormatDate(end))
	}
	return nil
}

func isOpen(d time.Time) bool {
	if util.IsWeekend(d) {
		return false
	}
	_, holiday := usEquityHolidays[util.FormatDate(d)]
	return !holiday
}
