package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryCalendar is an in-process calendar used when no Google calendar is configured.
type MemoryCalendar struct {
	mu     sync.Mutex
	events map[string]Event
}

// NewMemoryCalendar returns an empty MemoryCalendar.
func NewMemoryCalendar() *MemoryCalendar {
	return &MemoryCalendar{events: make(map[string]Event)}
}

// Block marks [start, start+duration) busy, as if an event existed there.
func (m *MemoryCalendar) Block(start time.Time, duration time.Duration) {
	_, _ = m.CreateEvent(context.Background(), Event{Title: "Occupato", Start: start, Duration: duration})
}

func (m *MemoryCalendar) IsSlotAvailable(_ context.Context, start time.Time, duration time.Duration) (bool, error) {
	end := start.Add(duration)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.events {
		// Half-open intervals overlap iff each starts before the other ends.
		if start.Before(ev.Start.Add(ev.Duration)) && ev.Start.Before(end) {
			return false, nil
		}
	}
	return true, nil
}

func (m *MemoryCalendar) CreateEvent(_ context.Context, ev Event) (string, error) {
	id := uuid.New().String()
	m.mu.Lock()
	m.events[id] = ev
	m.mu.Unlock()
	return id, nil
}

// Events returns all events ordered by start time.
func (m *MemoryCalendar) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
