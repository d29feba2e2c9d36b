package transfer

import (
	"strings"
	"time"

	"centromedico/config"
	"centromedico/models"

	"go.uber.org/zap"
)

// Reason selects the lead-in spoken before a transfer.
type Reason int

const (
	// CallerRequest is a transfer the caller asked for.
	CallerRequest Reason = iota
	// BookingFailed follows a booking that could not be completed.
	BookingFailed
	// ServiceTrouble follows repeated failures to understand or serve the caller.
	ServiceTrouble
)

// HoursChecker reports whether the office is open at an instant.
type HoursChecker interface {
	IsOpen(now time.Time) bool
}

// Destinations are the configured transfer targets.
type Destinations struct {
	Extensions     []string
	ExternalMobile string
	ExternalTrunk  string
}

// Router decides where a transfer goes.
type Router struct {
	dest   Destinations
	hours  HoursChecker
	office string
	logger *zap.Logger
}

func NewRouter(dest Destinations, hours HoursChecker, officeName string, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{dest: dest, hours: hours, office: officeName, logger: logger}
}

// Route decides using the out-of-hours flag latched on the session at call start.
func (r *Router) Route(sess models.CallSession, reason Reason) models.Transfer {
	return r.decide(sess.OutOfHours, reason)
}

// RouteLive decides using the opening hours at now, for escalations that must
// reach whichever line is actually staffed.
func (r *Router) RouteLive(now time.Time, reason Reason) models.Transfer {
	return r.decide(!r.hours.IsOpen(now), reason)
}

func (r *Router) decide(outOfHours bool, reason Reason) models.Transfer {
	if outOfHours {
		mobile := strings.TrimSpace(r.dest.ExternalMobile)
		trunk := strings.TrimSpace(r.dest.ExternalTrunk)
		if mobile != "" && trunk != "" {
			r.logger.Info("Out of hours transfer", zap.String("target", mobile), zap.String("via", trunk))
			return models.Transfer{
				Decision: models.ExternalNumber(mobile, trunk),
				LeadIn:   r.leadIn(true, reason),
			}
		}
		r.logger.Warn("Out of hours destination not configured, using default extension",
			zap.Bool("mobileSet", mobile != ""), zap.Bool("trunkSet", trunk != ""))
		return models.Transfer{
			Decision: models.InternalExtension(r.internalExtension()),
			LeadIn:   r.leadIn(false, reason),
		}
	}

	ext := r.internalExtension()
	r.logger.Info("Business hours transfer", zap.String("extension", ext))
	return models.Transfer{
		Decision: models.InternalExtension(ext),
		LeadIn:   r.leadIn(false, reason),
	}
}

func (r *Router) internalExtension() string {
	for _, ext := range r.dest.Extensions {
		if ext = strings.TrimSpace(ext); ext != "" {
			return ext
		}
	}
	r.logger.Warn("No operator extension configured, using default", zap.String("extension", config.DefaultExtension))
	return config.DefaultExtension
}

func (r *Router) leadIn(external bool, reason Reason) string {
	switch reason {
	case BookingFailed:
		if external {
			return "Mi dispiace, non sono riuscita a prenotare l'appuntamento. La metto in contatto con l'operatore reperibile."
		}
		return "Mi dispiace, non sono riuscita a prenotare l'appuntamento. La metto in contatto con la segreteria."
	case ServiceTrouble:
		if external {
			return "Mi dispiace, sto avendo qualche difficoltà. La metto in contatto con l'operatore reperibile."
		}
		return "Mi dispiace, sto avendo qualche difficoltà. La metto in contatto con la segreteria."
	}
	if external {
		return r.office + " è attualmente chiuso, ma la metto in contatto con l'operatore reperibile."
	}
	return "Certo, la metto subito in contatto con la segreteria."
}
