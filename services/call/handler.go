package call

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"centromedico/models"
	"centromedico/services/booking"
	"centromedico/services/emergency"
	"centromedico/services/events"
	"centromedico/services/hours"
	ai "centromedico/services/intelligence"
	"centromedico/services/session"
	"centromedico/services/transfer"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("centromedico/services/call")

// Settings are the conversation limits and heuristics of a call.
type Settings struct {
	OfficeName           string
	MaxReasoningFailures int // consecutive failures before escalating to a transfer
	MaxEmptyInputRetries int // empty utterances per call before escalating
	HistoryWindow        int
	ReasoningTimeout     time.Duration
	GoodbyeKeywords      []string
	FurtherHelpMarkers   []string
}

// Handler turns telephony events into directives. Each method handles one
// webhook and returns exactly one directive; none of them return errors; every
// failure is answered with something the caller can hear.
type Handler struct {
	Sessions  *session.Store
	Hours     *hours.Policy
	Emergency *emergency.Detector
	Router    *transfer.Router
	Reasoner  ai.Reasoner
	Booking   booking.Service
	Events    events.Publisher
	Settings  Settings
	Now       func() time.Time
	Logger    *zap.Logger
}

// CallStarted opens the session, latching whether the office is closed, and greets the caller.
func (h *Handler) CallStarted(ctx context.Context, callID, from string) models.Directive {
	_, span := tracer.Start(ctx, "call.started", trace.WithAttributes(attribute.String("call.sid", callID)))
	defer span.End()

	status := h.Hours.Evaluate(h.now())
	sess := h.session(callID, from, &status)
	h.log(callID).Info("Call started",
		zap.String("from", from),
		zap.Bool("outOfHours", sess.OutOfHours))

	if !sess.OutOfHours {
		return models.GatherNextInput{Prompt: fmt.Sprintf(greetingOpen, h.Settings.OfficeName)}
	}
	return models.GatherNextInput{Prompt: fmt.Sprintf(greetingClosed, status.NextOpeningDescription)}
}

// SpeechRecognized answers one caller utterance.
func (h *Handler) SpeechRecognized(ctx context.Context, callID, from, text string) models.Directive {
	ctx, span := tracer.Start(ctx, "call.speech", trace.WithAttributes(attribute.String("call.sid", callID)))
	defer span.End()
	log := h.log(callID)

	sess := h.session(callID, from, nil)
	utterance := strings.TrimSpace(text)
	if utterance == "" {
		return h.emptyInput(ctx, sess, log)
	}
	log.Debug("Caller said", zap.String("text", utterance))

	if h.Emergency.IsEmergency(utterance) {
		log.Warn("Emergency keyword detected, answering with emergency instructions")
		span.SetAttributes(attribute.String("call.outcome", "emergency"))
		return models.Speak{Message: h.Emergency.Response()}
	}

	if ai.WantsOperator(utterance) {
		log.Info("Caller asked for an operator")
		return h.transfer(ctx, sess, utterance, h.Router.Route(sess, transfer.CallerRequest), log)
	}

	if sess.BookingInProgress {
		return models.GatherNextInput{Prompt: bookingWait}
	}

	result, err := h.reason(ctx, utterance, sess.Recent(h.Settings.HistoryWindow))
	if err != nil {
		span.RecordError(err)
		return h.reasoningFailed(ctx, sess, utterance, err, log)
	}
	if sess.ReasoningFailures > 0 {
		sess = h.update(sess, log, func(s *models.CallSession) { s.ReasoningFailures = 0 })
	}

	switch {
	case result.TransferRequested:
		return h.transfer(ctx, sess, utterance, h.Router.Route(sess, transfer.CallerRequest), log)
	case result.BookingRequested:
		return h.book(ctx, sess, utterance, result, log)
	}
	return h.say(sess, utterance, result.Text, log)
}

// TransferFinished handles the outcome of a dialled transfer. An answered
// transfer ends the call; anything else is apologised for.
func (h *Handler) TransferFinished(ctx context.Context, callID, dialStatus string) models.Directive {
	_, span := tracer.Start(ctx, "call.transfer_finished", trace.WithAttributes(
		attribute.String("call.sid", callID),
		attribute.String("dial.status", dialStatus)))
	defer span.End()

	log := h.log(callID)
	if dialStatus == "completed" || dialStatus == "answered" {
		log.Info("Transfer completed")
		return models.Hangup{}
	}
	log.Warn("Transfer not answered", zap.String("dialStatus", dialStatus))
	return models.Hangup{FinalText: operatorBusy}
}

// CallEnded drops the session and reports the call.
func (h *Handler) CallEnded(ctx context.Context, callID, status string) {
	sess, ok := h.Sessions.Get(callID)
	h.Sessions.Remove(callID)
	if !ok {
		return
	}
	duration := h.now().Sub(sess.CreatedAt)
	h.log(callID).Info("Call ended",
		zap.String("status", status),
		zap.Int("turns", len(sess.Turns)),
		zap.Duration("duration", duration))
	h.publish(ctx, events.New(events.CallEnded, callID, map[string]any{
		"status":          status,
		"turns":           len(sess.Turns),
		"durationSeconds": int(duration.Seconds()),
	}))
}

// session fetches the call's session, creating it if the start webhook was missed.
// A new session latches out-of-hours from status, or from a fresh evaluation when status is nil.
func (h *Handler) session(callID, from string, status *models.HoursResult) models.CallSession {
	return h.Sessions.GetOrCreate(callID, from, func(s *models.CallSession) {
		if status == nil {
			st := h.Hours.Evaluate(h.now())
			status = &st
		}
		s.OutOfHours = !status.IsOpen
	})
}

func (h *Handler) emptyInput(ctx context.Context, sess models.CallSession, log *zap.Logger) models.Directive {
	sess = h.update(sess, log, func(s *models.CallSession) { s.EmptyInputs++ })
	if sess.EmptyInputs > h.Settings.MaxEmptyInputRetries {
		log.Warn("Too many empty utterances, transferring", zap.Int("emptyInputs", sess.EmptyInputs))
		return h.transfer(ctx, sess, "", h.Router.Route(sess, transfer.ServiceTrouble), log)
	}
	return models.GatherNextInput{Prompt: repromptText}
}

func (h *Handler) reason(ctx context.Context, utterance string, history []models.Turn) (models.ReasoningResult, error) {
	ctx, span := tracer.Start(ctx, "reasoner.respond")
	defer span.End()
	if h.Settings.ReasoningTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Settings.ReasoningTimeout)
		defer cancel()
	}
	result, err := h.Reasoner.Respond(ctx, utterance, history)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func (h *Handler) reasoningFailed(ctx context.Context, sess models.CallSession, utterance string, err error, log *zap.Logger) models.Directive {
	sess = h.update(sess, log, func(s *models.CallSession) { s.ReasoningFailures++ })
	log.Error("Reasoning failed", zap.Int("consecutiveFailures", sess.ReasoningFailures), zap.Error(err))
	if sess.ReasoningFailures >= h.Settings.MaxReasoningFailures {
		return h.transfer(ctx, sess, utterance, h.Router.Route(sess, transfer.ServiceTrouble), log)
	}
	return models.GatherNextInput{Prompt: reasoningApology}
}

func (h *Handler) transfer(ctx context.Context, sess models.CallSession, utterance string, t models.Transfer, log *zap.Logger) models.Directive {
	h.appendTurns(sess, utterance, t.LeadIn, log)
	log.Info("Transferring call",
		zap.String("destination", t.Decision.Destination()),
		zap.String("via", t.Decision.ViaTrunk))
	h.publish(ctx, events.New(events.CallTransferred, sess.CallID, map[string]any{
		"destination": t.Decision.Destination(),
		"via":         t.Decision.ViaTrunk,
		"external":    t.Decision.Kind == models.TransferExternal,
	}))
	return t
}

func (h *Handler) book(ctx context.Context, sess models.CallSession, utterance string, result models.ReasoningResult, log *zap.Logger) models.Directive {
	claimed := false
	sess = h.update(sess, log, func(s *models.CallSession) {
		if !s.BookingInProgress {
			s.BookingInProgress = true
			claimed = true
		}
	})
	if !claimed {
		return models.GatherNextInput{Prompt: bookingWait}
	}
	// Cleared on every return and on panic.
	defer h.update(sess, log, func(s *models.CallSession) { s.BookingInProgress = false })

	req := models.AppointmentRequest{
		PatientName:  patientName(result, utterance, sess),
		PatientPhone: sess.CallerNumber,
		VisitType:    result.VisitType,
	}
	if req.VisitType == "" {
		req.VisitType = ai.ExtractVisitType(utterance)
	}

	bctx, span := tracer.Start(ctx, "booking.book")
	outcome, err := h.Booking.Book(bctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	if !outcome.Booked() {
		log.Warn("Booking failed, transferring", zap.String("reason", string(outcome.Failure)), zap.Error(err))
		return h.transfer(ctx, sess, utterance, h.Router.RouteLive(h.now(), transfer.BookingFailed), log)
	}

	start := outcome.Slot.Start
	reply := fmt.Sprintf(bookedText, start.Format("02/01/2006"), start.Format("15:04"))
	h.appendTurns(sess, utterance, reply, log)
	h.publish(ctx, events.New(events.AppointmentBooked, sess.CallID, map[string]any{
		"eventId":   outcome.EventID,
		"start":     start.Format(time.RFC3339),
		"visitType": req.VisitType,
		"phone":     req.PatientPhone,
	}))
	return models.GatherNextInput{Prompt: reply}
}

func (h *Handler) say(sess models.CallSession, utterance, reply string, log *zap.Logger) models.Directive {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = repromptText
	}
	h.appendTurns(sess, utterance, reply, log)
	log.Debug("Assistant replied", zap.String("text", reply))

	if h.isGoodbye(utterance, reply) {
		return models.Hangup{FinalText: reply + " " + closingLine}
	}
	return models.GatherNextInput{Prompt: reply}
}

// isGoodbye reports whether the caller is closing the call and the reply does
// not offer further help.
func (h *Handler) isGoodbye(utterance, reply string) bool {
	u := words(utterance)
	r := strings.ToLower(reply)
	closing := false
	for _, k := range h.Settings.GoodbyeKeywords {
		if kw := words(k); kw != "  " && strings.Contains(u, kw) {
			closing = true
			break
		}
	}
	if !closing {
		return false
	}
	for _, m := range h.Settings.FurtherHelpMarkers {
		if m != "" && strings.Contains(r, m) {
			return false
		}
	}
	return true
}

// words lowercases text into space-separated tokens with a space at each end,
// so a keyword only matches whole words: "basta" is not found in "abbastanza".
func words(text string) string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return " " + strings.Join(tokens, " ") + " "
}

// patientName looks for an introduction in the utterance, then in earlier
// caller turns, then in the reply.
func patientName(result models.ReasoningResult, utterance string, sess models.CallSession) string {
	if result.PatientName != "" {
		return result.PatientName
	}
	if name := ai.ExtractName(utterance); name != "" {
		return name
	}
	for i := len(sess.Turns) - 1; i >= 0; i-- {
		if sess.Turns[i].Role != models.RoleCaller {
			continue
		}
		if name := ai.ExtractName(sess.Turns[i].Text); name != "" {
			return name
		}
	}
	return ai.ExtractName(result.Text)
}

func (h *Handler) appendTurns(sess models.CallSession, utterance, reply string, log *zap.Logger) {
	var turns []models.Turn
	if utterance != "" {
		turns = append(turns, models.Turn{Role: models.RoleCaller, Text: utterance})
	}
	if reply != "" {
		turns = append(turns, models.Turn{Role: models.RoleAssistant, Text: reply})
	}
	if len(turns) == 0 {
		return
	}
	if err := h.Sessions.AppendTurn(sess.CallID, turns...); err != nil {
		log.Warn("Could not record turns", zap.Error(err))
	}
}

// update applies fn to the stored session. If the session vanished, fn is applied
// to the local copy so the current request can still be answered consistently.
func (h *Handler) update(sess models.CallSession, log *zap.Logger, fn func(*models.CallSession)) models.CallSession {
	updated, err := h.Sessions.Update(sess.CallID, func(s *models.CallSession) error {
		fn(s)
		return nil
	})
	if err != nil {
		log.Warn("Session update failed", zap.Error(err))
		fn(&sess)
		return sess
	}
	return updated
}

func (h *Handler) publish(ctx context.Context, ev events.Event) {
	if h.Events == nil {
		return
	}
	if err := h.Events.Publish(ctx, ev); err != nil {
		h.log(ev.CallID).Warn("Event publish failed", zap.String("type", ev.Type), zap.Error(err))
	}
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) log(callID string) *zap.Logger {
	l := h.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return l.With(zap.String("callSid", callID))
}
