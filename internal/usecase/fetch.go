package usecase

import (
	"context"
	"time"

	"BarScan/internal/domain/models"
	"BarScan/internal/domain/repository"
	"BarScan/internal/service/massdata"
	"BarScan/internal/service/ratelimit"
	"BarScan/pkg/logger"
	"BarScan/pkg/pool"
)

// FetchConfig bounds the bulk fetch: pool width, retry budget per
// session, per-attempt deadline and the upstream rate limit.
type FetchConfig struct {
	Workers      int
	Retries      int
	Timeout      time.Duration
	RateLimitRPS float64
}

// FetchReport is the per-run completeness record of the fetch stage.
// Failed carries session keys so the caller can judge coverage.
type FetchReport struct {
	Requested int
	Fetched   int
	Failed    []string
}

// BulkFetcher turns a session list into one bar table with exactly one
// upstream request per session. A session's failure is recorded and the
// batch continues; only context cancellation stops it early.
type BulkFetcher struct {
	source  repository.BarSource
	limiter *ratelimit.Limiter
	metrics repository.Metrics
	log     *logger.Logger
	cfg     FetchConfig
}

func NewBulkFetcher(source repository.BarSource, metrics repository.Metrics, log *logger.Logger, cfg FetchConfig) *BulkFetcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &BulkFetcher{
		source:  source,
		limiter: ratelimit.New(),
		metrics: metrics,
		log:     log,
		cfg:     cfg,
	}
}

// FetchAll fetches every session through the bounded pool and returns
// the concatenated bars of the sessions that succeeded. The bar table's
// date set exactly equals the fetched sessions: one request per session,
// no duplicates, failures excluded rather than padded.
func (f *BulkFetcher) FetchAll(ctx context.Context, sessions []models.Session) ([]models.Bar, FetchReport) {
	report := FetchReport{Requested: len(sessions)}

	results := pool.Map(ctx, f.cfg.Workers, sessions, f.fetchOne)

	var bars []models.Bar
	for _, r := range results {
		session := sessions[r.Index]
		if r.Err != nil {
			report.Failed = append(report.Failed, session.Key())
			f.metrics.SessionFailed()
			f.log.Warn("session fetch failed",
				logger.String("session", session.Key()),
				logger.Error(r.Err))
			continue
		}
		report.Fetched++
		f.metrics.SessionFetched()
		bars = append(bars, r.Value...)
	}

	f.log.Info("bulk fetch done",
		logger.Int("requested", report.Requested),
		logger.Int("fetched", report.Fetched),
		logger.Int("failed", len(report.Failed)),
		logger.Int("rows", len(bars)))
	return bars, report
}

// fetchOne runs one session's request with its retry budget. Only
// transient errors are retried; a malformed payload fails immediately.
func (f *BulkFetcher) fetchOne(ctx context.Context, session models.Session) ([]models.Bar, error) {
	var lastErr error
	for attempt := 0; attempt <= f.cfg.Retries; attempt++ {
		if err := f.waitForSlot(ctx); err != nil {
			return nil, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
		bars, err := f.source.GroupedDaily(attemptCtx, session)
		cancel()
		if err == nil {
			return bars, nil
		}
		lastErr = err
		if !massdata.Retryable(err) {
			break
		}
		f.log.Debug("retrying session fetch",
			logger.String("session", session.Key()),
			logger.Int("attempt", attempt+1),
			logger.Error(err))
	}
	return nil, lastErr
}

// waitForSlot blocks until the upstream token bucket yields a token or
// the context is cancelled. A zero RPS disables limiting.
func (f *BulkFetcher) waitForSlot(ctx context.Context) error {
	if f.cfg.RateLimitRPS <= 0 {
		return nil
	}
	for !f.limiter.Allow("massdata", f.cfg.RateLimitRPS, f.cfg.RateLimitRPS) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}
	return nil
}
