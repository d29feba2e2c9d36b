// Package ai wraps the language model that writes the assistant's replies.
package ai

import (
	"context"
	"errors"

	"centromedico/models"
)

// ErrReasoningUnavailable is returned when no reply could be produced.
var ErrReasoningUnavailable = errors.New("reasoning backend unavailable")

// Reasoner produces the assistant's reply to one caller utterance. It keeps no
// state between calls; history carries the recent turns of the call.
type Reasoner interface {
	Respond(ctx context.Context, utterance string, history []models.Turn) (models.ReasoningResult, error)
}

// DefaultSystemPrompt instructs the model to behave as the office's phone receptionist.
const DefaultSystemPrompt = `Sei la segretaria telefonica di %s, un centro medico.
Rispondi in italiano, con frasi brevi e cortesi adatte a una telefonata.
Non fornire diagnosi né consigli medici.
Se il paziente vuole prenotare una visita, chiedi il nome se non lo conosci e poi usa la funzione book_appointment.
Se il paziente chiede di parlare con una persona, usa la funzione transfer_to_operator.
Non inventare date o orari: la data dell'appuntamento viene scelta dal sistema.`
