package calendar

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned by calendar operations that need a calendar id.
var ErrNotConfigured = errors.New("calendar not configured")

// Event is an appointment to write to the office calendar.
type Event struct {
	Title       string
	Description string
	Start       time.Time
	Duration    time.Duration
}

// Calendar is the office calendar as seen by the booking engine.
type Calendar interface {
	// IsSlotAvailable reports whether [start, start+duration) has no existing events.
	IsSlotAvailable(ctx context.Context, start time.Time, duration time.Duration) (bool, error)
	// CreateEvent writes ev and returns the calendar's event id.
	CreateEvent(ctx context.Context, ev Event) (string, error)
}
