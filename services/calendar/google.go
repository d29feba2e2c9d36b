package calendar

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleCalendar reads and writes the clinic's main Google calendar.
type GoogleCalendar struct {
	svc        *gcal.Service
	calendarID string
	timezone   string
	logger     *zap.Logger
}

// NewGoogleCalendar builds a calendar client from a service account credentials file.
func NewGoogleCalendar(ctx context.Context, credentialsFile, calendarID, timezone string, logger *zap.Logger) (*GoogleCalendar, error) {
	if calendarID == "" {
		return nil, ErrNotConfigured
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	opts = append(opts, option.WithScopes(gcal.CalendarScope))

	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &GoogleCalendar{svc: svc, calendarID: calendarID, timezone: timezone, logger: logger}, nil
}

// IsSlotAvailable lists the events overlapping the slot; any event makes it busy.
func (g *GoogleCalendar) IsSlotAvailable(ctx context.Context, start time.Time, duration time.Duration) (bool, error) {
	end := start.Add(duration)
	events, err := g.svc.Events.List(g.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return false, fmt.Errorf("list events: %w", err)
	}
	if len(events.Items) > 0 {
		g.logger.Debug("Slot busy in main calendar",
			zap.Time("start", start),
			zap.Int("events", len(events.Items)))
		return false, nil
	}
	return true, nil
}

func (g *GoogleCalendar) CreateEvent(ctx context.Context, ev Event) (string, error) {
	body := &gcal.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: g.timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: ev.Start.Add(ev.Duration).Format(time.RFC3339),
			TimeZone: g.timezone,
		},
	}
	created, err := g.svc.Events.Insert(g.calendarID, body).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	g.logger.Info("Event created in main calendar", zap.String("eventId", created.Id), zap.String("link", created.HtmlLink))
	return created.Id, nil
}
