package models

import "time"

type Booking struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	TurfID     int64     `json:"turf_id"`
	KitID      *int64    `json:"kit_id,omitempty"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	TotalPrice float64   `json:"total_price"`
	Status     string    `json:"status"` // confirmed, cancelled
	CreatedAt  time.Time `json:"created_at"`
}

// BookingView is a booking joined with turf/kit display fields for history listings.
type BookingView struct {
	ID         int64     `json:"id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	TotalPrice float64   `json:"total_price"`
	Status     string    `json:"status"`
	TurfID     int64     `json:"turf_id"`
	TurfName   string    `json:"turf_name"`
	Location   string    `json:"location"`
	KitName    string    `json:"kit_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Slot is one bookable hour of a turf's day grid.
type Slot struct {
	Time      string `json:"time"`      // display label, e.g. "6:00 AM"
	FullTime  string `json:"full_time"` // canonical HH:00 key
	Available bool   `json:"available"`
}
