package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/valetparking/backend/internal/domain/entities"
	"github.com/zatekoja/valetparking/backend/internal/domain/providers"
	"github.com/zatekoja/valetparking/backend/internal/domain/repositories"
	"github.com/zatekoja/valetparking/backend/internal/infrastructure/observability"
)

const dashboardCacheFamily = "dashboard"

// CachedReportingAdapter wraps a ReportingRepository and caches the
// per-location booking counters. Revenue is not cached because payments
// are written outside the booking lifecycle. Everything else passes through.
type CachedReportingAdapter struct {
	repositories.ReportingRepository
	cache      providers.CacheProvider
	ttlSeconds int
	metrics    *observability.Metrics
}

// NewCachedReportingAdapter creates a new cached reporting adapter
func NewCachedReportingAdapter(
	adapter repositories.ReportingRepository,
	cache providers.CacheProvider,
	ttlSeconds int,
	metrics *observability.Metrics,
) repositories.ReportingRepository {
	return &CachedReportingAdapter{
		ReportingRepository: adapter,
		cache:               cache,
		ttlSeconds:          ttlSeconds,
		metrics:             metrics,
	}
}

const initialGeneration = "0"

func statusCountKey(locationID, generation string, status entities.BookingStatus) string {
	return providers.DashboardCacheKey(locationID, generation+":status:"+string(status))
}

func startedCountKey(locationID, generation string, window repositories.TimeWindow) string {
	return providers.DashboardCacheKey(locationID, fmt.Sprintf("%s:started:%d", generation, window.From.Unix()))
}

// generation returns the current cache generation of a location. ok is
// false when the cache cannot be read; callers then bypass the cache.
func (a *CachedReportingAdapter) generation(ctx context.Context, locationID string) (string, bool) {
	data, err := a.cache.Get(ctx, providers.DashboardGenerationKey(locationID))
	switch {
	case err == nil:
		return string(data), true
	case errors.Is(err, providers.ErrCacheMiss):
		return initialGeneration, true
	default:
		log.Warn().Err(err).Str("location_id", locationID).Msg("Cache generation read failed, falling back to database")
		observability.RecordCacheMiss(ctx, a.metrics, dashboardCacheFamily)
		return "", false
	}
}

// CountByStatus counts bookings at a location with caching
func (a *CachedReportingAdapter) CountByStatus(ctx context.Context, locationID string, status entities.BookingStatus) (int64, error) {
	generation, ok := a.generation(ctx, locationID)
	if !ok {
		return a.ReportingRepository.CountByStatus(ctx, locationID, status)
	}
	key := statusCountKey(locationID, generation, status)
	if n, ok := a.cachedInt(ctx, key); ok {
		return n, nil
	}

	n, err := a.ReportingRepository.CountByStatus(ctx, locationID, status)
	if err != nil {
		return 0, err
	}
	a.store(ctx, key, strconv.FormatInt(n, 10))
	return n, nil
}

// CountStarted counts bookings started in window with caching
func (a *CachedReportingAdapter) CountStarted(ctx context.Context, locationID string, window repositories.TimeWindow) (int64, error) {
	generation, ok := a.generation(ctx, locationID)
	if !ok {
		return a.ReportingRepository.CountStarted(ctx, locationID, window)
	}
	key := startedCountKey(locationID, generation, window)
	if n, ok := a.cachedInt(ctx, key); ok {
		return n, nil
	}

	n, err := a.ReportingRepository.CountStarted(ctx, locationID, window)
	if err != nil {
		return 0, err
	}
	a.store(ctx, key, strconv.FormatInt(n, 10))
	return n, nil
}

func (a *CachedReportingAdapter) cachedInt(ctx context.Context, key string) (int64, bool) {
	raw, ok := a.lookup(ctx, key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Discarding malformed cached counter")
		return 0, false
	}
	return n, true
}

// lookup treats any cache failure as a miss
func (a *CachedReportingAdapter) lookup(ctx context.Context, key string) (string, bool) {
	data, err := a.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			log.Warn().Err(err).Str("key", key).Msg("Cache read failed, falling back to database")
		}
		observability.RecordCacheMiss(ctx, a.metrics, dashboardCacheFamily)
		return "", false
	}
	observability.RecordCacheHit(ctx, a.metrics, dashboardCacheFamily)
	return string(data), true
}

func (a *CachedReportingAdapter) store(ctx context.Context, key, value string) {
	if err := a.cache.Set(ctx, key, []byte(value), a.ttlSeconds); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache dashboard counter")
	}
}
