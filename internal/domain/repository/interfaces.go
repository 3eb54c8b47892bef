package repository

import (
	"context"
	"time"

	"BarScan/internal/domain/models"
)

// BarSource returns every actively traded ticker's bar for one session.
// One call, one session, all tickers: the pipeline never fetches per
// ticker. Whether the source is a vendor HTTP endpoint or a cache in front
// of one is irrelevant to the pipeline's correctness contract.
type BarSource interface {
	GroupedDaily(ctx context.Context, session models.Session) ([]models.Bar, error)
}

// Calendar resolves trading sessions for an exchange.
type Calendar interface {
	// Resolve returns the ascending sessions in [start, end], both
	// inclusive, weekends and holidays excluded.
	Resolve(ctx context.Context, exchange string, start, end time.Time) ([]models.Session, error)

	// SessionsBefore returns the n sessions strictly before d, ascending.
	SessionsBefore(ctx context.Context, exchange string, d time.Time, n int) ([]models.Session, error)
}

// SignalStore persists a finished run's signals. Export collaborator:
// the pipeline works without one.
type SignalStore interface {
	Init(ctx context.Context) error
	StoreBatch(ctx context.Context, signals []models.Signal) error
	Close() error
}

// SignalPublisher pushes signals to a downstream topic. Export
// collaborator, same as SignalStore.
type SignalPublisher interface {
	PublishBatch(ctx context.Context, signals []models.Signal) error
	Close() error
}

// Metrics records pipeline observability counters.
type Metrics interface {
	ObserveStage(stage string, elapsed time.Duration)
	SessionFetched()
	SessionFailed()
	TickerEvaluated()
	TickerSkipped(reason string)
	SignalsEmitted(n int)
}
