package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"centromedico/config"
	"centromedico/models"
	"centromedico/services/calendar"
)

var rome = time.FixedZone("CET", 3600)

func testOffice() config.OfficeSettings {
	return config.OfficeSettings{
		Name:     "Centro Medico Gargano",
		Location: rome,
		Open:     config.ClockTime{Hour: 9},
		Close:    config.ClockTime{Hour: 19},
		BusinessDays: map[time.Weekday]bool{
			time.Monday: true, time.Tuesday: true, time.Wednesday: true,
			time.Thursday: true, time.Friday: true,
		},
		AppointmentDuration: time.Hour,
		LeadBusinessDays:    7,
		SearchHorizonDays:   30,
	}
}

// 2024-01-01 is a Monday.
func at(day, hour, minute int) time.Time {
	return time.Date(2024, 1, day, hour, minute, 0, 0, rome)
}

// scriptedCalendar answers availability from busy and counts checks.
type scriptedCalendar struct {
	mu        sync.Mutex
	busy      func(start time.Time) bool
	checkErr  error
	createErr error
	createID  string
	checks    []time.Time
	created   []calendar.Event
}

func (c *scriptedCalendar) IsSlotAvailable(_ context.Context, start time.Time, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, start)
	if c.checkErr != nil {
		return false, c.checkErr
	}
	return c.busy == nil || !c.busy(start), nil
}

func (c *scriptedCalendar) CreateEvent(_ context.Context, ev calendar.Event) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createErr != nil {
		return "", c.createErr
	}
	c.created = append(c.created, ev)
	if c.createID == "" {
		return "evt-1", nil
	}
	return c.createID, nil
}

type fixedDate time.Time

func (d fixedDate) EarliestBookableDate(time.Time) time.Time { return time.Time(d) }

func newFinder(cal calendar.Calendar, now time.Time) *SlotFinder {
	return &SlotFinder{
		Calendar: cal,
		Office:   testOffice(),
		Now:      func() time.Time { return now },
	}
}

func TestFindSlotFirstOpenHour(t *testing.T) {
	cal := &scriptedCalendar{}
	f := newFinder(cal, at(3, 11, 0))

	slot, ok := f.FindSlot(context.Background(), at(11, 0, 0))
	if !ok {
		t.Fatal("no slot found")
	}
	if !slot.Start.Equal(at(11, 9, 0)) || slot.Duration != time.Hour {
		t.Fatalf("slot = %+v, want Thursday 09:00 for 1h", slot)
	}
}

func TestFindSlotSkipsBusyDayAndWeekend(t *testing.T) {
	// Friday the 12th is fully booked; the weekend is skipped without probing.
	cal := &scriptedCalendar{busy: func(s time.Time) bool { return s.Day() == 12 }}
	f := newFinder(cal, at(3, 11, 0))

	slot, ok := f.FindSlot(context.Background(), at(12, 0, 0))
	if !ok {
		t.Fatal("no slot found")
	}
	if !slot.Start.Equal(at(15, 9, 0)) {
		t.Fatalf("slot = %v, want Monday 15th 09:00", slot.Start)
	}
	for _, p := range cal.checks {
		if wd := p.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Fatalf("checked a weekend slot %v", p)
		}
	}
	if len(cal.checks) != 11 {
		t.Fatalf("checked %d slots, want 10 on Friday plus 1 on Monday", len(cal.checks))
	}
}

func TestFindSlotNeverEndsAfterClose(t *testing.T) {
	office := testOffice()
	office.AppointmentDuration = 90 * time.Minute
	office.SearchHorizonDays = 1
	cal := &scriptedCalendar{busy: func(time.Time) bool { return true }}
	f := &SlotFinder{Calendar: cal, Office: office, Now: func() time.Time { return at(3, 0, 0) }}

	if _, ok := f.FindSlot(context.Background(), at(11, 0, 0)); ok {
		t.Fatal("expected no slot")
	}
	last := cal.checks[len(cal.checks)-1]
	if end := last.Add(office.AppointmentDuration); end.After(at(11, 19, 0)) {
		t.Fatalf("checked slot %v ends at %v, after close", last, end)
	}
	if !last.Equal(at(11, 17, 0)) {
		t.Fatalf("last check %v, want 17:00", last)
	}
}

func TestFindSlotSkipsPastTimes(t *testing.T) {
	cal := &scriptedCalendar{}
	f := newFinder(cal, at(11, 13, 20))

	slot, ok := f.FindSlot(context.Background(), at(11, 0, 0))
	if !ok || !slot.Start.Equal(at(11, 14, 0)) {
		t.Fatalf("slot = %v ok=%v, want 14:00 today", slot.Start, ok)
	}
}

func TestFindSlotExhaustsHorizon(t *testing.T) {
	cal := &scriptedCalendar{busy: func(time.Time) bool { return true }}
	f := newFinder(cal, at(3, 11, 0))

	if _, ok := f.FindSlot(context.Background(), at(11, 0, 0)); ok {
		t.Fatal("expected exhaustion")
	}
	days := map[string]bool{}
	for _, p := range cal.checks {
		if p.Before(at(11, 0, 0)) || !p.Before(at(11, 0, 0).AddDate(0, 0, 30)) {
			t.Fatalf("check %v outside the 30 day horizon", p)
		}
		days[p.Format("2006-01-02")] = true
	}
	// 30 calendar days from Thursday the 11th hold 22 business days.
	if len(days) != 22 || len(cal.checks) != 22*10 {
		t.Fatalf("checked %d days / %d slots, want 22 / 220", len(days), len(cal.checks))
	}
}

func TestFindSlotCalendarErrorCountsAsFree(t *testing.T) {
	cal := &scriptedCalendar{checkErr: errors.New("timeout")}
	f := newFinder(cal, at(3, 11, 0))

	slot, ok := f.FindSlot(context.Background(), at(11, 0, 0))
	if !ok || !slot.Start.Equal(at(11, 9, 0)) {
		t.Fatalf("slot = %v ok=%v, want first slot", slot.Start, ok)
	}
}

func TestFindSlotStopsOnCancelledContext(t *testing.T) {
	cal := &scriptedCalendar{}
	f := newFinder(cal, at(3, 11, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := f.FindSlot(ctx, at(11, 0, 0)); ok {
		t.Fatal("expected no slot with a cancelled context")
	}
	if len(cal.checks) != 0 {
		t.Fatalf("checked %d slots after cancellation", len(cal.checks))
	}
}

func newOrchestrator(cal *scriptedCalendar, earliest time.Time) *Orchestrator {
	now := at(3, 11, 0)
	return &Orchestrator{
		Finder:   newFinder(cal, now),
		Calendar: cal,
		Dates:    fixedDate(earliest),
		Now:      func() time.Time { return now },
	}
}

func TestBookCreatesEvent(t *testing.T) {
	cal := &scriptedCalendar{createID: "evt-42"}
	o := newOrchestrator(cal, at(11, 0, 0))

	out, err := o.Book(context.Background(), models.AppointmentRequest{
		PatientName:  "Anna Bianchi",
		PatientPhone: "+39333111222",
		VisitType:    "emorroidi",
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if !out.Booked() || out.EventID != "evt-42" || !out.Slot.Start.Equal(at(11, 9, 0)) {
		t.Fatalf("outcome = %+v", out)
	}
	if len(cal.created) != 1 {
		t.Fatalf("created %d events", len(cal.created))
	}
	ev := cal.created[0]
	if ev.Title != "Visita - Anna Bianchi" {
		t.Errorf("title = %q", ev.Title)
	}
	for _, want := range []string{"Anna Bianchi", "+39333111222", "emorroidi"} {
		if !strings.Contains(ev.Description, want) {
			t.Errorf("description %q missing %q", ev.Description, want)
		}
	}
}

func TestBookDefaultsVisitAndName(t *testing.T) {
	cal := &scriptedCalendar{}
	o := newOrchestrator(cal, at(11, 0, 0))

	if _, err := o.Book(context.Background(), models.AppointmentRequest{PatientPhone: "+39"}); err != nil {
		t.Fatal(err)
	}
	ev := cal.created[0]
	if ev.Title != "Visita - Paziente" || !strings.Contains(ev.Description, models.VisitGeneric) {
		t.Fatalf("event = %+v", ev)
	}
}

func TestBookNoSlot(t *testing.T) {
	cal := &scriptedCalendar{busy: func(time.Time) bool { return true }}
	o := newOrchestrator(cal, at(11, 0, 0))

	out, err := o.Book(context.Background(), models.AppointmentRequest{})
	if out.Booked() || out.Failure != models.NoSlotInHorizon {
		t.Fatalf("outcome = %+v", out)
	}
	var berr *BookingError
	if !errors.As(err, &berr) || berr.Reason != models.NoSlotInHorizon {
		t.Fatalf("err = %v", err)
	}
	if len(cal.created) != 0 {
		t.Fatal("event created without a slot")
	}
}

func TestBookCalendarWriteFails(t *testing.T) {
	cal := &scriptedCalendar{createErr: errors.New("403")}
	o := newOrchestrator(cal, at(11, 0, 0))

	out, err := o.Book(context.Background(), models.AppointmentRequest{})
	if out.Booked() || out.Failure != models.CalendarUnavailable {
		t.Fatalf("outcome = %+v", out)
	}
	var berr *BookingError
	if !errors.As(err, &berr) || berr.Reason != models.CalendarUnavailable {
		t.Fatalf("err = %v", err)
	}
}

// stalledCalendar never answers before the caller's deadline.
type stalledCalendar struct{}

func (stalledCalendar) IsSlotAvailable(ctx context.Context, _ time.Time, _ time.Duration) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func (stalledCalendar) CreateEvent(ctx context.Context, _ calendar.Event) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestFindSlotCheckTimeoutCountsAsFree(t *testing.T) {
	f := newFinder(stalledCalendar{}, at(3, 11, 0))
	f.CallTimeout = 20 * time.Millisecond

	began := time.Now()
	slot, ok := f.FindSlot(context.Background(), at(11, 0, 0))
	if !ok || !slot.Start.Equal(at(11, 9, 0)) {
		t.Fatalf("slot = %v ok=%v, want first slot", slot.Start, ok)
	}
	if elapsed := time.Since(began); elapsed > 2*time.Second {
		t.Fatalf("search took %v", elapsed)
	}
}

func TestBookCalendarWriteTimesOut(t *testing.T) {
	o := newOrchestrator(&scriptedCalendar{}, at(11, 0, 0))
	o.Calendar = stalledCalendar{}
	o.CallTimeout = 20 * time.Millisecond

	began := time.Now()
	out, err := o.Book(context.Background(), models.AppointmentRequest{PatientPhone: "+39"})
	if out.Booked() || out.Failure != models.CalendarUnavailable {
		t.Fatalf("outcome = %+v", out)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(began); elapsed > 2*time.Second {
		t.Fatalf("booking took %v", elapsed)
	}
}
