package booking

import (
	"context"
	"time"

	"centromedico/config"
	"centromedico/models"
	"centromedico/services/calendar"

	"go.uber.org/zap"
)

// slotStep is the spacing between candidate start times within a day.
const slotStep = time.Hour

// SlotFinder searches the calendar for the first free appointment slot.
type SlotFinder struct {
	Calendar    calendar.Calendar
	Office      config.OfficeSettings
	CallTimeout time.Duration // per availability check; zero means no extra deadline
	Now         func() time.Time
	Logger      *zap.Logger
}

// FindSlot scans SearchHorizonDays calendar days starting at earliest, skipping
// non-business days, and returns the first slot the calendar reports free.
// Days ascend, then start times ascend within a day. A slot never ends after
// the office closes, and slots already in the past are not offered.
func (f *SlotFinder) FindSlot(ctx context.Context, earliest time.Time) (models.SlotCandidate, bool) {
	loc := f.Office.Location
	start := earliest.In(loc)
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	now := f.now()

	for offset := 0; offset < f.Office.SearchHorizonDays; offset++ {
		if ctx.Err() != nil {
			return models.SlotCandidate{}, false
		}
		day := first.AddDate(0, 0, offset)
		if !f.Office.IsBusinessDay(day) {
			continue
		}
		if slot, ok := f.findOnDay(ctx, day, now); ok {
			return slot, true
		}
		f.logger().Debug("No available slots on day", zap.String("date", day.Format("2006-01-02")))
	}
	return models.SlotCandidate{}, false
}

func (f *SlotFinder) findOnDay(ctx context.Context, day, now time.Time) (models.SlotCandidate, bool) {
	loc := f.Office.Location
	duration := f.Office.AppointmentDuration
	closing := f.Office.Close.On(day, loc)

	for t := f.Office.Open.On(day, loc); !t.Add(duration).After(closing); t = t.Add(slotStep) {
		if t.Before(now) {
			continue
		}
		if f.checkSlot(ctx, t, duration) {
			f.logger().Info("Found available slot", zap.Time("start", t))
			return models.SlotCandidate{Start: t, Duration: duration}, true
		}
	}
	return models.SlotCandidate{}, false
}

// checkSlot asks the calendar about one slot. A failed check counts as free so a
// calendar outage never blocks bookings.
func (f *SlotFinder) checkSlot(ctx context.Context, start time.Time, duration time.Duration) bool {
	pctx := ctx
	if f.CallTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, f.CallTimeout)
		defer cancel()
	}
	free, err := f.Calendar.IsSlotAvailable(pctx, start, duration)
	if err != nil {
		f.logger().Error("Error checking slot availability, assuming available",
			zap.Time("start", start), zap.Error(err))
		return true
	}
	return free
}

func (f *SlotFinder) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *SlotFinder) logger() *zap.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return zap.NewNop()
}
