package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smartturf/internal/config"
	"smartturf/internal/database"
	"smartturf/internal/domain"
	"smartturf/internal/events"
	"smartturf/internal/models"

	"github.com/rs/zerolog"
)

// BookingService owns the slot calculator and the reservation path. All
// writes go through the repository transaction; this layer adds input
// validation, the slot-grid cache and event publication.
type BookingService struct {
	repo     domain.Repository
	cache    domain.CacheRepository
	eventBus domain.EventPublisher
	cfg      config.BookingConfig
	logger   *zerolog.Logger
}

func NewBookingService(repo domain.Repository, cache domain.CacheRepository, eventBus domain.EventPublisher, cfg config.BookingConfig, logger *zerolog.Logger) *BookingService {
	if cfg.CloseHour == 0 {
		cfg.OpenHour = models.DefaultOpenHour
		cfg.CloseHour = models.DefaultCloseHour
	}
	if cfg.MaxBookingDays <= 0 {
		cfg.MaxBookingDays = models.DefaultMaxBookingDays
	}
	return &BookingService{
		repo:     repo,
		cache:    cache,
		eventBus: eventBus,
		cfg:      cfg,
		logger:   logger,
	}
}

// slotLabel renders an hour as the 12-hour clock label clients display.
func slotLabel(hour int) string {
	h := hour % 12
	if h == 0 {
		h = 12
	}
	meridiem := "AM"
	if hour >= 12 {
		meridiem = "PM"
	}
	return fmt.Sprintf("%d:00 %s", h, meridiem)
}

// ComputeSlots returns the full grid of hourly slots for a turf on a UTC
// calendar day, one per whole hour of the operating window, with occupancy
// derived from confirmed bookings. The grid is returned even when every slot
// is free.
func (s *BookingService) ComputeSlots(ctx context.Context, turfID int64, date time.Time) ([]models.Slot, error) {
	if _, err := s.repo.GetTurf(ctx, turfID); err != nil {
		return nil, err
	}

	day := date.UTC()
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dateKey := dayStart.Format("2006-01-02")

	if s.cache != nil {
		if cached, err := s.cache.GetSlots(ctx, turfID, dateKey); err == nil && cached != nil {
			return cached, nil
		}
	}

	booked, err := s.repo.GetBookedHours(ctx, turfID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	slots := make([]models.Slot, 0, s.cfg.CloseHour-s.cfg.OpenHour)
	for hour := s.cfg.OpenHour; hour < s.cfg.CloseHour; hour++ {
		slots = append(slots, models.Slot{
			Time:      slotLabel(hour),
			FullTime:  fmt.Sprintf("%02d:00", hour),
			Available: !booked[hour],
		})
	}

	if s.cache != nil {
		if err := s.cache.SetSlots(ctx, turfID, dateKey, slots); err != nil {
			s.logger.Warn().Err(err).Int64("turf_id", turfID).Msg("slot cache write failed")
		}
	}

	return slots, nil
}

// validateStartTime rejects malformed reservation times: non-hour-aligned
// values are refused rather than floored, days before today (UTC) are
// refused, and the configured horizon bounds the future.
func (s *BookingService) validateStartTime(start time.Time) error {
	start = start.UTC()
	if start.Minute() != 0 || start.Second() != 0 || start.Nanosecond() != 0 {
		return database.ErrNotHourAligned
	}
	if start.Hour() < s.cfg.OpenHour || start.Hour() >= s.cfg.CloseHour {
		return database.ErrOutsideWindow
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	day := start.Truncate(24 * time.Hour)
	if day.Before(today) {
		return database.ErrPastDate
	}
	if day.After(today.AddDate(0, 0, s.cfg.MaxBookingDays)) {
		return database.ErrDateTooFar
	}
	return nil
}

// Reserve books one hourly slot, computing the derived price (turf + optional
// kit) inside the repository transaction. On conflict the attempt is terminal;
// the caller picks another slot.
func (s *BookingService) Reserve(ctx context.Context, booking *models.Booking) error {
	if err := s.validateStartTime(booking.StartTime); err != nil {
		return err
	}

	err := s.repo.ReserveSlot(ctx, booking)
	if err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			s.publishBookingEvent(events.EventBookingConflict, booking)
		}
		return err
	}

	s.publishBookingEvent(events.EventBookingCreated, booking)

	if s.cache != nil {
		dateKey := booking.StartTime.UTC().Format("2006-01-02")
		if err := s.cache.InvalidateSlots(ctx, booking.TurfID, dateKey); err != nil {
			s.logger.Warn().Err(err).Int64("turf_id", booking.TurfID).Msg("slot cache invalidation failed")
		}
	}

	return nil
}

func (s *BookingService) GetUserBookings(ctx context.Context, userID int64) ([]*models.BookingView, error) {
	return s.repo.GetUserBookings(ctx, userID)
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		TurfID:     booking.TurfID,
		KitID:      booking.KitID,
		StartTime:  booking.StartTime,
		TotalPrice: booking.TotalPrice,
		Status:     booking.Status,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
