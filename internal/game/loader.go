package game

import (
	"context"
	"fmt"

	"github.com/wonny/chartguess/internal/series"
	"github.com/wonny/chartguess/pkg/logger"
	"github.com/wonny/chartguess/pkg/redis"
)

// PayloadFetcher is the provider call that produces a raw daily payload
type PayloadFetcher interface {
	FetchDaily(ctx context.Context, symbol string) (*series.RawPayload, error)
}

// SeriesArchive persists and serves previously fetched series
type SeriesArchive interface {
	SaveSeries(ctx context.Context, s *series.Series) error
	GetBySymbol(ctx context.Context, symbol string) ([]series.Point, error)
}

// ProviderLoader builds series from the provider, with a payload cache in
// front and an optional archive behind: fresh payloads are written through
// to the archive, and a throttled provider falls back to it.
// ⭐ SSOT: 시리즈 로딩 경로는 이 로더에서만
type ProviderLoader struct {
	provider PayloadFetcher
	cache    *redis.Cache
	archive  SeriesArchive // nil when no database is configured
	logger   *logger.Logger
}

// NewProviderLoader creates the loader chain. archive may be nil.
func NewProviderLoader(provider PayloadFetcher, cache *redis.Cache, archive SeriesArchive, log *logger.Logger) *ProviderLoader {
	return &ProviderLoader{
		provider: provider,
		cache:    cache,
		archive:  archive,
		logger:   log,
	}
}

// Load fetches, validates and normalizes the daily series for symbol
func (l *ProviderLoader) Load(ctx context.Context, symbol string) (*series.Series, error) {
	cacheKey := redis.DailyPayloadKey(symbol)

	// Cached raw payload short-circuits the provider entirely
	var cached series.RawPayload
	if found, err := l.cache.Get(ctx, cacheKey, &cached); err == nil && found {
		l.logger.WithField("symbol", symbol).Debug("Daily payload served from cache")
		return series.Build(symbol, &cached)
	}

	payload, err := l.provider.FetchDaily(ctx, symbol)
	if err != nil {
		// Transport failure: the archive is the only remaining source
		if s, ok := l.fromArchive(ctx, symbol); ok {
			l.logger.WithError(err).WithField("symbol", symbol).Warn("Provider unreachable, serving archived series")
			return s, nil
		}
		return nil, fmt.Errorf("fetch daily payload for %s: %w", symbol, err)
	}

	loaded, err := series.Build(symbol, payload)
	if err != nil {
		if series.IsRateLimited(err) {
			if s, ok := l.fromArchive(ctx, symbol); ok {
				l.logger.WithField("symbol", symbol).Warn("Provider throttled, serving archived series")
				return s, nil
			}
		}
		return nil, err
	}

	// A valid payload is worth caching; failures here never fail the load
	if err := l.cache.Set(ctx, cacheKey, payload, redis.TTLDaily); err != nil {
		l.logger.WithError(err).Warn("Failed to cache daily payload")
	}
	if l.archive != nil {
		if err := l.archive.SaveSeries(ctx, loaded); err != nil {
			l.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to archive series")
		}
	}

	return loaded, nil
}

// fromArchive loads a previously archived series, if one exists
func (l *ProviderLoader) fromArchive(ctx context.Context, symbol string) (*series.Series, bool) {
	if l.archive == nil {
		return nil, false
	}

	points, err := l.archive.GetBySymbol(ctx, symbol)
	if err != nil || len(points) == 0 {
		return nil, false
	}
	return series.New(symbol, points), true
}
