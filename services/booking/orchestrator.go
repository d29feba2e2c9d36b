package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"centromedico/models"
	"centromedico/services/calendar"

	"go.uber.org/zap"
)

// DateRule yields the earliest bookable date for a request made at now.
type DateRule interface {
	EarliestBookableDate(now time.Time) time.Time
}

// Service books appointments for callers.
type Service interface {
	Book(ctx context.Context, req models.AppointmentRequest) (models.BookingOutcome, error)
}

// Orchestrator finds the first free slot after the lead time and writes the appointment.
type Orchestrator struct {
	Finder      *SlotFinder
	Calendar    calendar.Calendar
	Dates       DateRule
	CallTimeout time.Duration
	Now         func() time.Time
	Logger      *zap.Logger
}

// Book tries to book req. The outcome always carries a reason on failure; the
// returned error is a *BookingError with the same reason, for logging.
func (o *Orchestrator) Book(ctx context.Context, req models.AppointmentRequest) (models.BookingOutcome, error) {
	logger := o.Finder.logger()
	if o.Logger != nil {
		logger = o.Logger
	}
	now := time.Now()
	if o.Now != nil {
		now = o.Now()
	}

	earliest := o.Dates.EarliestBookableDate(now)
	slot, ok := o.Finder.FindSlot(ctx, earliest)
	if !ok {
		err := NewNoSlotError(o.Finder.Office.SearchHorizonDays)
		logger.Warn("Booking failed", zap.String("phone", req.PatientPhone), zap.Error(err))
		return models.BookingOutcome{Failure: models.NoSlotInHorizon}, err
	}

	wctx := ctx
	if o.CallTimeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, o.CallTimeout)
		defer cancel()
	}
	eventID, err := o.Calendar.CreateEvent(wctx, calendar.Event{
		Title:       eventTitle(req),
		Description: eventDescription(req),
		Start:       slot.Start,
		Duration:    slot.Duration,
	})
	if err == nil && eventID == "" {
		err = errors.New("calendar returned no event id")
	}
	if err != nil {
		berr := NewCalendarError(err)
		logger.Error("Booking failed", zap.String("phone", req.PatientPhone), zap.Error(berr))
		return models.BookingOutcome{Slot: slot, Failure: models.CalendarUnavailable}, berr
	}

	logger.Info("Appointment booked",
		zap.String("eventId", eventID),
		zap.Time("start", slot.Start),
		zap.String("visitType", visitType(req)))
	return models.BookingOutcome{Slot: slot, EventID: eventID}, nil
}

func visitType(req models.AppointmentRequest) string {
	if v := strings.TrimSpace(req.VisitType); v != "" {
		return v
	}
	return models.VisitGeneric
}

func eventTitle(req models.AppointmentRequest) string {
	if req.PatientName != "" {
		return "Visita - " + req.PatientName
	}
	return "Visita - Paziente"
}

func eventDescription(req models.AppointmentRequest) string {
	name := req.PatientName
	if name == "" {
		name = "Non specificato"
	}
	return fmt.Sprintf("Paziente: %s\nTelefono: %s\nTipo visita: %s\nPrenotato tramite assistente vocale",
		name, req.PatientPhone, visitType(req))
}
