package repository

import (
	"context"
	"fmt"

	"BarScan/internal/domain/models"
	domainrepo "BarScan/internal/domain/repository"
	"BarScan/pkg/clickhouse"
	"BarScan/pkg/logger"
)

var signalSchema = []string{
	`CREATE TABLE IF NOT EXISTS scan_signals (
		ticker      String,
		trigger_date Date,
		pattern     String,
		feature_names  Array(String),
		feature_values Array(Float64),
		created_at  DateTime DEFAULT now()
	) ENGINE = MergeTree()
	ORDER BY (pattern, trigger_date, ticker)`,
}

// ClickHouseSignalStore persists finished signal batches into an
// append-only MergeTree table. Features are stored as parallel arrays
// so new feature names never need a schema change.
type ClickHouseSignalStore struct {
	client *clickhouse.Client
	log    *logger.Logger
}

func NewClickHouseSignalStore(client *clickhouse.Client, log *logger.Logger) domainrepo.SignalStore {
	return &ClickHouseSignalStore{client: client, log: log}
}

func (s *ClickHouseSignalStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, signalSchema)
}

// StoreBatch inserts the batch inside one transaction so a failed run
// never leaves half a batch behind.
func (s *ClickHouseSignalStore) StoreBatch(ctx context.Context, signals []models.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := s.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO scan_signals (ticker, trigger_date, pattern, feature_names, feature_values) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, sig := range signals {
		names, values := featureColumns(sig)
		if _, err := stmt.ExecContext(ctx, sig.Ticker, sig.Date, sig.Pattern, names, values); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert signal %s/%s: %w", sig.Ticker, sig.Pattern, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	s.log.Info("signals stored",
		logger.Int("count", len(signals)))
	return nil
}

func (s *ClickHouseSignalStore) Close() error {
	return s.client.Close()
}

// featureColumns flattens the feature map into sorted parallel arrays
// so rows for the same pattern always line up column-wise.
func featureColumns(sig models.Signal) ([]string, []float64) {
	names := sig.FeatureNames()
	values := make([]float64, len(names))
	for i, n := range names {
		values[i] = sig.Features[n]
	}
	return names, values
}
