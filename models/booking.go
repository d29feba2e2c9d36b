package models

import "time"

// VisitGeneric is the visit type recorded when the caller names no specific one.
const VisitGeneric = "visita generica"

// SlotCandidate is an appointment slot. Start+Duration never passes the office close time.
type SlotCandidate struct {
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
}

// End returns the instant the slot finishes.
func (s SlotCandidate) End() time.Time {
	return s.Start.Add(s.Duration)
}

// AppointmentRequest carries what is known about the patient when booking.
type AppointmentRequest struct {
	PatientName  string `json:"patientName,omitempty"`
	PatientPhone string `json:"patientPhone"`
	VisitType    string `json:"visitType,omitempty"`
}

// BookingFailure is the reason a booking could not be completed.
type BookingFailure string

const (
	NoSlotInHorizon     BookingFailure = "no_slot_in_horizon"
	CalendarUnavailable BookingFailure = "calendar_unavailable"
)

// BookingOutcome reports a booking attempt. When Failure is empty the booking succeeded
// and Slot and EventID are set.
type BookingOutcome struct {
	Slot    SlotCandidate  `json:"slot"`
	EventID string         `json:"eventId,omitempty"`
	Failure BookingFailure `json:"failure,omitempty"`
}

// Booked reports whether the outcome is a success.
func (o BookingOutcome) Booked() bool {
	return o.Failure == ""
}

// HoursResult is the business-hours state at one instant. NextOpening and
// NextOpeningDescription are set only when IsOpen is false.
type HoursResult struct {
	IsOpen                 bool      `json:"isOpen"`
	NextOpening            time.Time `json:"nextOpening,omitempty"`
	NextOpeningDescription string    `json:"nextOpeningDescription,omitempty"`
	ShouldOfferTransfer    bool      `json:"shouldOfferTransfer"`
}
