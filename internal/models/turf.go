package models

import "time"

type Turf struct {
	ID           int64     `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Location     string    `json:"location" yaml:"location"`
	PricePerHour float64   `json:"price_per_hour" yaml:"price_per_hour"`
	Latitude     float64   `json:"latitude" yaml:"latitude"`
	Longitude    float64   `json:"longitude" yaml:"longitude"`
	Rating       float64   `json:"rating" yaml:"rating"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"`
}
