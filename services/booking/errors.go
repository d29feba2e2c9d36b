package booking

import (
	"fmt"

	"centromedico/models"
)

// BookingError carries the failure kind of an unsuccessful booking.
type BookingError struct {
	Reason  models.BookingFailure
	Message string
	Err     error
}

func (e *BookingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func (e *BookingError) Unwrap() error {
	return e.Err
}

func NewNoSlotError(horizonDays int) error {
	return &BookingError{
		Reason:  models.NoSlotInHorizon,
		Message: fmt.Sprintf("no available slots in the next %d days", horizonDays),
	}
}

func NewCalendarError(err error) error {
	return &BookingError{
		Reason:  models.CalendarUnavailable,
		Message: "calendar write failed",
		Err:     err,
	}
}
