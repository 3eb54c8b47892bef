package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BarScan/internal/domain/models"
	"BarScan/internal/domain/repository"
	"BarScan/internal/service/features"
	"BarScan/internal/service/filter"
	"BarScan/internal/service/indicators"
	"BarScan/internal/service/pattern"
	"BarScan/pkg/logger"
	"BarScan/pkg/pool"
)

// ScanRequest is one scan invocation: which exchange, which pattern,
// the output range signals are wanted for, and the parameter set.
type ScanRequest struct {
	Exchange   string
	Pattern    string
	RangeStart time.Time
	RangeEnd   time.Time
	Params     models.ScanParams
}

// Scanner runs the five-stage pipeline: resolve sessions, bulk fetch,
// cheap features, two-tier filter, expensive detection. Store and
// publisher are optional export collaborators; a nil one is skipped.
type Scanner struct {
	calendar  repository.Calendar
	fetcher   *BulkFetcher
	store     repository.SignalStore
	publisher repository.SignalPublisher
	metrics   repository.Metrics
	log       *logger.Logger
	workers   int
}

func NewScanner(
	cal repository.Calendar,
	fetcher *BulkFetcher,
	store repository.SignalStore,
	publisher repository.SignalPublisher,
	metrics repository.Metrics,
	log *logger.Logger,
	computeWorkers int,
) *Scanner {
	if computeWorkers <= 0 {
		computeWorkers = 1
	}
	return &Scanner{
		calendar:  cal,
		fetcher:   fetcher,
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
		workers:   computeWorkers,
	}
}

// Scan runs the pipeline end to end. Setup failures (unknown pattern,
// bad parameters, calendar gaps) abort before any fetch; everything
// after that degrades per session or per ticker and is surfaced in the
// report instead of failing the run.
func (s *Scanner) Scan(ctx context.Context, req ScanRequest) ([]models.Signal, *models.RunReport, error) {
	started := time.Now()
	report := &models.RunReport{
		Exchange:   req.Exchange,
		Pattern:    req.Pattern,
		RangeStart: req.RangeStart,
		RangeEnd:   req.RangeEnd,
	}

	def, err := pattern.Get(req.Pattern)
	if err != nil {
		return nil, report, err
	}
	if err := pattern.ValidateParams(def, req.Params); err != nil {
		return nil, report, err
	}

	// stage 1: sessions. The historical window reaches back far enough
	// that every output-range date has fully warmed indicators.
	stageStart := time.Now()
	sessions, err := s.resolveSessions(ctx, req, def.LookbackSessions(req.Params))
	if err != nil {
		return nil, report, err
	}
	s.observeStage(report, "calendar", stageStart)
	report.SessionsRequested = len(sessions)

	if len(sessions) == 0 {
		report.Elapsed = time.Since(started)
		return nil, report, nil
	}

	// stage 2: one bulk request per session through the bounded pool
	stageStart = time.Now()
	bars, fetchReport := s.fetcher.FetchAll(ctx, sessions)
	s.observeStage(report, "fetch", stageStart)
	report.SessionsFetched = fetchReport.Fetched
	report.SessionsFailed = fetchReport.Failed
	report.RowsFetched = len(bars)

	// stage 3: cheap per-ticker features
	stageStart = time.Now()
	enriched := features.Enrich(bars, req.Params.Int("dollar_volume_window", 20))
	s.observeStage(report, "cheap_features", stageStart)

	// stage 4: two-tier smart filter
	stageStart = time.Now()
	filtered := filter.Apply(enriched, req.RangeStart, req.RangeEnd, def.Thresholds(req.Params))
	s.observeStage(report, "filter", stageStart)
	report.RowsFiltered = len(filtered.Rows)
	report.TickersBefore = filtered.TickersBefore
	report.TickersAfter = filtered.TickersSurviving

	// stage 5: full indicators + clause evaluation, parallel per ticker
	stageStart = time.Now()
	signals, evaluated, skipped := s.detect(ctx, def, req, filtered.Rows)
	s.observeStage(report, "detect", stageStart)
	report.TickersEvaluated = evaluated
	report.TickersSkipped = skipped

	models.SortSignals(signals)
	report.Signals = len(signals)
	s.metrics.SignalsEmitted(len(signals))

	if err := s.export(ctx, signals, report); err != nil {
		return nil, report, err
	}

	report.Elapsed = time.Since(started)
	s.log.Info("scan complete",
		logger.String("pattern", req.Pattern),
		logger.Int("sessions", report.SessionsRequested),
		logger.Int("sessions_failed", len(report.SessionsFailed)),
		logger.Int("tickers_after_filter", report.TickersAfter),
		logger.Int("signals", report.Signals),
		logger.Duration("elapsed", report.Elapsed))
	return signals, report, nil
}

// resolveSessions builds the full fetch window: lookback sessions
// strictly before the range plus the output-range sessions themselves.
func (s *Scanner) resolveSessions(ctx context.Context, req ScanRequest, lookback int) ([]models.Session, error) {
	out, err := s.calendar.Resolve(ctx, req.Exchange, req.RangeStart, req.RangeEnd)
	if err != nil {
		return nil, fmt.Errorf("resolve output range: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	hist, err := s.calendar.SessionsBefore(ctx, req.Exchange, out[0].Date, lookback)
	if err != nil {
		return nil, fmt.Errorf("resolve lookback window: %w", err)
	}
	return append(hist, out...), nil
}

type tickerGroup struct {
	ticker string
	rows   []models.EnrichedBar
}

// detect computes the full indicator set once per ticker and evaluates
// the pattern's clauses on each output-range date. Tickers are
// independent, so the work fans out over the compute pool; one ticker's
// failure skips that ticker only.
func (s *Scanner) detect(ctx context.Context, def pattern.Definition, req ScanRequest, rows []models.EnrichedBar) ([]models.Signal, int, []string) {
	groups := groupByTicker(rows)
	cfg := def.Indicators(req.Params)

	results := pool.Map(ctx, s.workers, groups, func(_ context.Context, g tickerGroup) ([]models.Signal, error) {
		return evalTicker(def, cfg, req, g)
	})

	var signals []models.Signal
	var skipped []string
	evaluated := 0
	for _, r := range results {
		if r.Err != nil {
			skipped = append(skipped, groups[r.Index].ticker)
			reason := "error"
			if errors.Is(r.Err, models.ErrInsufficientHistory) {
				reason = "insufficient_history"
			}
			s.metrics.TickerSkipped(reason)
			s.log.Debug("ticker skipped",
				logger.String("ticker", groups[r.Index].ticker),
				logger.Error(r.Err))
			continue
		}
		evaluated++
		s.metrics.TickerEvaluated()
		signals = append(signals, r.Value...)
	}
	return signals, evaluated, skipped
}

// evalTicker is the per-ticker unit of stage 5: indicators once, then a
// stateless clause evaluation per output-range date.
func evalTicker(def pattern.Definition, cfg indicators.Config, req ScanRequest, g tickerGroup) ([]models.Signal, error) {
	series, err := indicators.Compute(g.ticker, g.rows, cfg)
	if err != nil {
		return nil, err
	}

	var out []models.Signal
	for i := range series.Bars {
		d := series.Bars[i].Date
		if d.Before(req.RangeStart) || d.After(req.RangeEnd) {
			continue
		}
		if sig := def.Evaluate(series, i, req.Params); sig != nil {
			out = append(out, *sig)
		}
	}
	return out, nil
}

// groupByTicker splits the filtered table into per-ticker slices. Rows
// arrive sorted by (ticker, date), so groups are contiguous.
func groupByTicker(rows []models.EnrichedBar) []tickerGroup {
	var groups []tickerGroup
	for start := 0; start < len(rows); {
		end := start
		for end < len(rows) && rows[end].Ticker == rows[start].Ticker {
			end++
		}
		groups = append(groups, tickerGroup{ticker: rows[start].Ticker, rows: rows[start:end]})
		start = end
	}
	return groups
}

// export hands the finished signal list to the configured sinks. Sink
// errors are surfaced: the scan computed correctly but the caller must
// know the results did not land.
func (s *Scanner) export(ctx context.Context, signals []models.Signal, report *models.RunReport) error {
	if len(signals) == 0 {
		return nil
	}
	stageStart := time.Now()
	if s.store != nil {
		if err := s.store.StoreBatch(ctx, signals); err != nil {
			return fmt.Errorf("store signals: %w", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishBatch(ctx, signals); err != nil {
			return fmt.Errorf("publish signals: %w", err)
		}
	}
	s.observeStage(report, "export", stageStart)
	return nil
}

func (s *Scanner) observeStage(report *models.RunReport, stage string, start time.Time) {
	elapsed := time.Since(start)
	s.metrics.ObserveStage(stage, elapsed)
	report.Stages = append(report.Stages, models.StageTiming{Stage: stage, Elapsed: elapsed})
}
