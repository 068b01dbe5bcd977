package models

import "time"

type Slot struct {
	ID              int64     `json:"id"`
	Date            time.Time `json:"date"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}
