package calendar

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCalendarOverlap(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryCalendar()
	nine := time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)
	m.Block(nine, time.Hour)

	cases := []struct {
		start time.Time
		free  bool
	}{
		{nine, false},
		{nine.Add(30 * time.Minute), false},
		{nine.Add(-30 * time.Minute), false},
		{nine.Add(time.Hour), true},
		{nine.Add(-time.Hour), true},
	}
	for _, tc := range cases {
		free, err := m.IsSlotAvailable(ctx, tc.start, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		if free != tc.free {
			t.Errorf("IsSlotAvailable(%v) = %v, want %v", tc.start, free, tc.free)
		}
	}
}

func TestMemoryCalendarCreateEvent(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryCalendar()
	later := time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC)
	earlier := later.Add(-24 * time.Hour)

	id1, err := m.CreateEvent(ctx, Event{Title: "Visita - Anna", Start: later, Duration: time.Hour})
	if err != nil || id1 == "" {
		t.Fatalf("CreateEvent: id=%q err=%v", id1, err)
	}
	id2, _ := m.CreateEvent(ctx, Event{Title: "Visita - Marco", Start: earlier, Duration: time.Hour})
	if id1 == id2 {
		t.Fatal("event ids must be unique")
	}

	events := m.Events()
	if len(events) != 2 || events[0].Title != "Visita - Marco" {
		t.Fatalf("events not ordered by start: %+v", events)
	}
}
