package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/chartguess/internal/external/alphavantage"
	"github.com/wonny/chartguess/internal/external/stooq"
	"github.com/wonny/chartguess/internal/series"
	"github.com/wonny/chartguess/internal/store"
	"github.com/wonny/chartguess/pkg/config"
	"github.com/wonny/chartguess/pkg/logger"
	"github.com/wonny/chartguess/pkg/redis"
)

// ArchiveRefreshJob re-fetches the tracked symbols daily and persists
// their price series so the archive fallback stays fresh
// ⭐ SSOT: 가격 아카이브 갱신 스케줄은 이 Job에서만
type ArchiveRefreshJob struct {
	provider *alphavantage.Client
	archive  *store.PriceRepository
	cache    *redis.Cache
	config   *config.Config
	logger   *logger.Logger
}

// NewArchiveRefreshJob creates a new archive refresh job
func NewArchiveRefreshJob(provider *alphavantage.Client, archive *store.PriceRepository, cache *redis.Cache, cfg *config.Config, log *logger.Logger) *ArchiveRefreshJob {
	return &ArchiveRefreshJob{
		provider: provider,
		archive:  archive,
		cache:    cache,
		config:   cfg,
		logger:   log,
	}
}

// Name returns the job name
func (j *ArchiveRefreshJob) Name() string {
	return "archive_refresh"
}

// Schedule returns the cron schedule (every day at 10 PM, after US close)
func (j *ArchiveRefreshJob) Schedule() string {
	return "0 0 22 * * *" // 10 PM daily (with seconds)
}

// Run fetches each tracked symbol and writes it through to the archive.
// One bad symbol does not abort the rest; failures are counted.
func (j *ArchiveRefreshJob) Run(ctx context.Context) error {
	symbols := j.config.Game.TrackedSymbols
	if len(symbols) == 0 {
		j.logger.Info("No tracked symbols configured, skipping archive refresh")
		return nil
	}

	j.logger.WithField("symbols", len(symbols)).Info("Starting archive refresh")

	failed := 0
	for _, symbol := range symbols {
		if err := j.refreshSymbol(ctx, symbol); err != nil {
			failed++
			j.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"error":  err.Error(),
			}).Warn("Symbol refresh failed")
		}
	}

	if failed == len(symbols) {
		return fmt.Errorf("archive refresh: all %d symbols failed", failed)
	}

	j.logger.WithFields(map[string]interface{}{
		"refreshed": len(symbols) - failed,
		"failed":    failed,
	}).Info("Archive refresh completed")
	return nil
}

func (j *ArchiveRefreshJob) refreshSymbol(ctx context.Context, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	payload, err := j.provider.FetchDaily(ctx, symbol)
	if err != nil {
		return fmt.Errorf("fetch daily: %w", err)
	}

	s, err := series.Build(symbol, payload)
	if err != nil {
		return fmt.Errorf("build series: %w", err)
	}

	if j.archive != nil {
		if err := j.archive.SaveSeries(ctx, s); err != nil {
			return fmt.Errorf("save series: %w", err)
		}
	}

	// Drop the stale cache entry so the next game sees the fresh series
	if j.cache != nil {
		if err := j.cache.Delete(ctx, redis.DailyPayloadKey(symbol)); err != nil {
			j.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to invalidate payload cache")
		}
	}

	return nil
}

// DirectoryRefreshJob refreshes the cached most-active listing so the
// random-symbol picker does not hit the directory site on demand
type DirectoryRefreshJob struct {
	directory *stooq.Client
	cache     *redis.Cache
	logger    *logger.Logger
}

// NewDirectoryRefreshJob creates a new directory refresh job
func NewDirectoryRefreshJob(directory *stooq.Client, cache *redis.Cache, log *logger.Logger) *DirectoryRefreshJob {
	return &DirectoryRefreshJob{
		directory: directory,
		cache:     cache,
		logger:    log,
	}
}

// Name returns the job name
func (j *DirectoryRefreshJob) Name() string {
	return "directory_refresh"
}

// Schedule returns the cron schedule (every 6 hours)
func (j *DirectoryRefreshJob) Schedule() string {
	return "0 0 */6 * * *" // Every 6 hours
}

// Run scrapes the most-active listing and caches it
func (j *DirectoryRefreshJob) Run(ctx context.Context) error {
	j.logger.Info("Starting directory refresh")

	listings, err := j.directory.MostActive(ctx)
	if err != nil {
		return fmt.Errorf("fetch most active: %w", err)
	}
	if len(listings) == 0 {
		return fmt.Errorf("directory returned no listings")
	}

	if err := j.cache.Set(ctx, redis.DirectoryKey(), listings, redis.TTLDaily); err != nil {
		return fmt.Errorf("cache listings: %w", err)
	}

	j.logger.WithField("listings", len(listings)).Info("Directory refresh completed")
	return nil
}
