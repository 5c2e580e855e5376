package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"smartturf/internal/models"
)

type MemoryCacheRepository struct {
	slots      sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

func NewMemoryCacheRepository(ttl time.Duration) *MemoryCacheRepository {
	return &MemoryCacheRepository{
		ttl: ttl,
	}
}

type slotsEntry struct {
	slots     []models.Slot
	expiresAt time.Time
}

func memSlotsKey(turfID int64, date string) string {
	return fmt.Sprintf("%d:%s", turfID, date)
}

func (r *MemoryCacheRepository) GetSlots(ctx context.Context, turfID int64, date string) ([]models.Slot, error) {
	val, ok := r.slots.Load(memSlotsKey(turfID, date))
	if !ok {
		return nil, nil
	}
	entry := val.(*slotsEntry)
	if time.Now().After(entry.expiresAt) {
		r.slots.Delete(memSlotsKey(turfID, date))
		return nil, nil
	}
	return entry.slots, nil
}

func (r *MemoryCacheRepository) SetSlots(ctx context.Context, turfID int64, date string, slots []models.Slot) error {
	r.slots.Store(memSlotsKey(turfID, date), &slotsEntry{
		slots:     slots,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemoryCacheRepository) InvalidateSlots(ctx context.Context, turfID int64, date string) error {
	r.slots.Delete(memSlotsKey(turfID, date))
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryCacheRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(userID)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(userID, entry)
	return entry.count <= limit, nil
}
