package domain

import "time"

const (
	GenerationSuccess = "success"
	GenerationFailed  = "failed"
)

// DateLayout is the calendar-day key used for generation dates.
const DateLayout = "2006-01-02"

// Represents the per-day audit record of a route generation attempt.
// A success row for a date also marks that date's routes as current.
type GenerationLog struct {
	ID             int64
	GenerationDate string
	GeneratedAt    time.Time
	DriverCount    int
	LocationCount  int
	Status         string
}
