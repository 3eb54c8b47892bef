package models

import "errors"

var (
	// ErrCalendarUnavailable means the holiday calendar cannot answer for
	// the requested exchange or date range. Fatal: proceeding with wrong
	// day counts would corrupt the lookback math.
	ErrCalendarUnavailable = errors.New("calendar unavailable")

	// ErrBadParams means the scan parameter set failed schema validation.
	// Fatal, raised before any fetch.
	ErrBadParams = errors.New("bad scan parameters")

	// ErrInsufficientHistory means a ticker's series is too short for the
	// requested windows. Per-ticker: the ticker is skipped, the run
	// continues.
	ErrInsufficientHistory = errors.New("insufficient history")
)
