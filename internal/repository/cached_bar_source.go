package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"BarScan/internal/domain/models"
	domainrepo "BarScan/internal/domain/repository"
	"BarScan/pkg/cache"
	"BarScan/pkg/logger"
)

// CachedBarSource decorates a BarSource with a session-level cache.
// Grouped daily payloads are immutable once a session has closed, so a
// long TTL is safe; repeated scans over overlapping windows then cost
// one upstream request per session total, not per run. Cache failures
// fall through to the upstream: the cache can only save requests, never
// fail a fetch.
type CachedBarSource struct {
	upstream domainrepo.BarSource
	cache    cache.Service
	ttl      time.Duration
	log      *logger.Logger
}

func NewCachedBarSource(upstream domainrepo.BarSource, c cache.Service, ttl time.Duration, log *logger.Logger) domainrepo.BarSource {
	return &CachedBarSource{upstream: upstream, cache: c, ttl: ttl, log: log}
}

func (s *CachedBarSource) GroupedDaily(ctx context.Context, session models.Session) ([]models.Bar, error) {
	key := fmt.Sprintf("grouped:%s", session.Key())

	var cached []models.Bar
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn("bar cache read failed",
			logger.String("session", session.Key()),
			logger.Error(err))
	}

	bars, err := s.upstream.GroupedDaily(ctx, session)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, bars, s.ttl); err != nil {
		s.log.Warn("bar cache write failed",
			logger.String("session", session.Key()),
			logger.Error(err))
	}
	return bars, nil
}
