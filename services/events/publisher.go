package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event types emitted during a call.
const (
	AppointmentBooked = "appointment.booked"
	CallTransferred   = "call.transferred"
	CallEnded         = "call.ended"
)

// Event is one notification about a call, keyed by call id.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	CallID     string         `json:"callId"`
	OccurredAt time.Time      `json:"occurredAt"`
	Data       map[string]any `json:"data,omitempty"`
}

func New(eventType, callID string, data map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		CallID:     callID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Publisher delivers call events. Publishing must not block the call flow for
// long; failures are reported but never change what the caller hears.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// LogPublisher writes events to the log. It is used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, ev Event) error {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return err
	}
	p.logger.Info("Call event",
		zap.String("type", ev.Type),
		zap.String("callSid", ev.CallID),
		zap.ByteString("data", payload))
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
