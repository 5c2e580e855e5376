package database

import "errors"

var (
	ErrTurfNotFound    = errors.New("turf not found")
	ErrKitNotFound     = errors.New("kit not found")
	ErrKitUnavailable  = errors.New("kit is not available")
	ErrBookingNotFound = errors.New("booking not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrSlotTaken surfaces the (turf_id, start_time) uniqueness violation.
	ErrSlotTaken = errors.New("slot is already booked")

	// ErrMatchFull covers capacity reached and any non-open match status.
	ErrMatchFull     = errors.New("match is full")
	ErrAlreadyJoined = errors.New("user already joined this match")

	ErrEmailTaken = errors.New("email is already registered")

	ErrPastDate       = errors.New("booking date is in the past")
	ErrDateTooFar     = errors.New("booking date is too far in the future")
	ErrNotHourAligned = errors.New("start time must be aligned to a whole hour")
	ErrOutsideWindow  = errors.New("start time is outside operating hours")

	ErrInvalidPlayersNeeded = errors.New("players_needed must be at least 1")
	ErrInvalidMatchTime     = errors.New("match_time is missing or malformed")
)
