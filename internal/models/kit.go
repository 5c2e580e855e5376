package models

import "time"

type Kit struct {
	ID           int64     `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Description  string    `json:"description" yaml:"description"`
	PricePerHour float64   `json:"price_per_hour" yaml:"price_per_hour"`
	Available    bool      `json:"available" yaml:"available"`
	OwnerID      int64     `json:"owner_id" yaml:"owner_id"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"`
}
