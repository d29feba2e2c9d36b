package ai

import (
	"context"
	"fmt"
	"strings"

	"centromedico/models"

	genai "github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	toolTransfer = "transfer_to_operator"
	toolBook     = "book_appointment"
)

// GeminiReasoner asks Gemini for the reply and reads transfer and booking
// intent from its function calls instead of from the reply text.
type GeminiReasoner struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *zap.Logger
}

func NewGeminiReasoner(ctx context.Context, apiKey, modelName, officeName string, logger *zap.Logger) (*GeminiReasoner, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.7)
	model.SetMaxOutputTokens(300)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(fmt.Sprintf(DefaultSystemPrompt, officeName))},
	}
	model.Tools = []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        toolTransfer,
				Description: "Trasferisce la chiamata alla segreteria o all'operatore reperibile.",
			},
			{
				Name:        toolBook,
				Description: "Prenota una visita nel primo orario disponibile.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"patient_name": {Type: genai.TypeString, Description: "Nome e cognome del paziente"},
						"visit_type":   {Type: genai.TypeString, Description: "Tipo di visita richiesta"},
					},
				},
			},
		},
	}}

	return &GeminiReasoner{client: client, model: model, logger: logger}, nil
}

func (g *GeminiReasoner) Close() error {
	return g.client.Close()
}

func (g *GeminiReasoner) Respond(ctx context.Context, utterance string, history []models.Turn) (models.ReasoningResult, error) {
	cs := g.model.StartChat()
	cs.History = toContents(history)

	resp, err := cs.SendMessage(ctx, genai.Text(utterance))
	if err != nil {
		return models.ReasoningResult{}, fmt.Errorf("%w: gemini: %v", ErrReasoningUnavailable, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return models.ReasoningResult{}, fmt.Errorf("%w: gemini returned no candidates", ErrReasoningUnavailable)
	}

	var (
		sb     strings.Builder
		result models.ReasoningResult
	)
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			sb.WriteString(string(p))
		case genai.FunctionCall:
			switch p.Name {
			case toolTransfer:
				result.TransferRequested = true
			case toolBook:
				result.BookingRequested = true
				result.PatientName = stringArg(p.Args, "patient_name")
				result.VisitType = stringArg(p.Args, "visit_type")
			default:
				g.logger.Warn("Unknown function call from model", zap.String("name", p.Name))
			}
		}
	}
	result.Text = strings.TrimSpace(sb.String())
	if result.Text == "" && !result.TransferRequested && !result.BookingRequested {
		return models.ReasoningResult{}, fmt.Errorf("%w: empty reply", ErrReasoningUnavailable)
	}
	return result, nil
}

func toContents(history []models.Turn) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		role := "user"
		if t.Role == models.RoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(t.Text)}})
	}
	return out
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
