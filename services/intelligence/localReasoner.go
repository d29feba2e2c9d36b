package ai

import (
	"context"
	"strings"

	"centromedico/models"
)

const bookingReply = "Certo, prenoto la visita nel primo orario disponibile."

// LocalReasoner answers from keyword heuristics alone. It is used when no model
// is configured so a call can still run end to end.
type LocalReasoner struct{}

func NewLocalReasoner() *LocalReasoner { return &LocalReasoner{} }

func (LocalReasoner) Respond(ctx context.Context, utterance string, _ []models.Turn) (models.ReasoningResult, error) {
	if err := ctx.Err(); err != nil {
		return models.ReasoningResult{}, err
	}
	lower := strings.ToLower(utterance)

	switch {
	case WantsOperator(utterance):
		return models.ReasoningResult{
			Text:              "Certo, la metto in contatto con la segreteria.",
			TransferRequested: true,
		}, nil
	case WantsBooking(utterance, bookingReply):
		return models.ReasoningResult{
			Text:             bookingReply,
			BookingRequested: true,
			PatientName:      ExtractName(utterance),
			VisitType:        ExtractVisitType(utterance),
		}, nil
	case containsAny(lower, []string{"arrivederci", "grazie", "basta", "niente altro"}):
		return models.ReasoningResult{Text: "Grazie a lei per aver chiamato."}, nil
	case containsAny(lower, []string{"orari", "aperti", "apertura"}):
		return models.ReasoningResult{
			Text: "Il centro è aperto dal lunedì al venerdì. Posso aiutarla a prenotare una visita?",
		}, nil
	}
	return models.ReasoningResult{
		Text: "Posso aiutarla a prenotare una visita oppure metterla in contatto con la segreteria. Cosa preferisce?",
	}, nil
}
