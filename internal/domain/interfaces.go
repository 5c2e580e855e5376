package domain

import (
	"context"
	"time"

	"smartturf/internal/models"
)

// Repository is the persistence surface the services build on. All mutation
// of bookings and rosters goes through here; handlers never touch the store.
type Repository interface {
	ReserveSlot(ctx context.Context, booking *models.Booking) error
	GetBookedHours(ctx context.Context, turfID int64, dayStart, dayEnd time.Time) (map[int]bool, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetUserBookings(ctx context.Context, userID int64) ([]*models.BookingView, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.BookingView, error)

	CreateMatch(ctx context.Context, match *models.Match) error
	JoinMatch(ctx context.Context, matchID, userID int64) error
	GetMatch(ctx context.Context, id int64) (*models.Match, error)
	CountParticipants(ctx context.Context, matchID int64) (int64, error)
	GetOpenMatches(ctx context.Context) ([]*models.MatchView, error)

	CreateTurf(ctx context.Context, turf *models.Turf) error
	GetTurf(ctx context.Context, id int64) (*models.Turf, error)
	GetTurfs(ctx context.Context) ([]*models.Turf, error)
	CreateKit(ctx context.Context, kit *models.Kit) error
	GetKit(ctx context.Context, id int64) (*models.Kit, error)
	GetAvailableKits(ctx context.Context) ([]*models.Kit, error)

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// CacheRepository holds derived read state (slot grids) and request budgets.
// A miss returns (nil, nil); callers fall back to the store.
type CacheRepository interface {
	GetSlots(ctx context.Context, turfID int64, date string) ([]models.Slot, error)
	SetSlots(ctx context.Context, turfID int64, date string, slots []models.Slot) error
	InvalidateSlots(ctx context.Context, turfID int64, date string) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ExportQueue accepts report requests for the background export worker.
type ExportQueue interface {
	Enqueue(ctx context.Context, start, end time.Time) error
}
