package repository

import (
	"context"
	"sync/atomic"
	"time"

	"smartturf/internal/domain"
	"smartturf/internal/models"

	"github.com/rs/zerolog"
)

// FailoverCacheRepository serves from the primary (Redis) until it errors,
// then degrades to the in-memory fallback and probes the primary once a
// minute. Cache reads stay best-effort either way.
type FailoverCacheRepository struct {
	primary   domain.CacheRepository
	fallback  domain.CacheRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverCacheRepository(primary, fallback domain.CacheRepository, logger *zerolog.Logger) *FailoverCacheRepository {
	return &FailoverCacheRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverCacheRepository) GetSlots(ctx context.Context, turfID int64, date string) ([]models.Slot, error) {
	if !r.isDown.Load() {
		slots, err := r.primary.GetSlots(ctx, turfID, date)
		if err == nil {
			return slots, nil
		}
		r.logger.Error().Err(err).Msg("primary cache repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		slots, err := r.primary.GetSlots(ctx, turfID, date)
		if err == nil {
			r.isDown.Store(false)
			return slots, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetSlots(ctx, turfID, date)
}

func (r *FailoverCacheRepository) SetSlots(ctx context.Context, turfID int64, date string, slots []models.Slot) error {
	if !r.isDown.Load() {
		err := r.primary.SetSlots(ctx, turfID, date, slots)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("primary cache repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.SetSlots(ctx, turfID, date, slots)
}

func (r *FailoverCacheRepository) InvalidateSlots(ctx context.Context, turfID int64, date string) error {
	if !r.isDown.Load() {
		err := r.primary.InvalidateSlots(ctx, turfID, date)
		if err == nil {
			// Keep both layers coherent; the fallback may hold an older grid.
			_ = r.fallback.InvalidateSlots(ctx, turfID, date)
			return nil
		}
		r.logger.Error().Err(err).Msg("primary cache repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.InvalidateSlots(ctx, turfID, date)
}

func (r *FailoverCacheRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.logger.Error().Err(err).Msg("primary cache repository failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}
