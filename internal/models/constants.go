package models

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const (
	MatchStatusOpen      = "open"
	MatchStatusFull      = "full"
	MatchStatusCancelled = "cancelled"
)

const (
	// DefaultOpenHour/DefaultCloseHour bound the bookable day: one slot per
	// whole hour in [open, close).
	DefaultOpenHour  = 6
	DefaultCloseHour = 24

	// DefaultMaxBookingDays how far ahead a slot may be reserved
	DefaultMaxBookingDays = 365

	// DefaultSlotCacheTTL lifetime of a cached slot grid in seconds
	DefaultSlotCacheTTL = 60

	// DefaultRateLimitRequests requests per user per window on write endpoints
	DefaultRateLimitRequests = 30

	// DefaultRateLimitWindow rate limit window in seconds
	DefaultRateLimitWindow = 60

	// ExportQueueSize size of the export worker queue
	ExportQueueSize = 64
)
