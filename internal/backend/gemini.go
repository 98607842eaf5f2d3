package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/iksnae/work-scope/internal"
	"google.golang.org/genai"
)

const (
	// DefaultModel is the Gemini model used when none is configured
	DefaultModel = "gemini-2.5-flash"
	// DefaultTemperature keeps replies close to the requested JSON layout
	DefaultTemperature float32 = 0.4
)

// ErrEmptyReply is returned when the model answers with no text
var ErrEmptyReply = errors.New("model returned an empty reply")

// GeminiGenerator generates replies with the Gemini API
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiGenerator creates a generator. An empty apiKey lets the genai
// client read GEMINI_API_KEY / GOOGLE_API_KEY itself.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiGenerator{client: client, model: model, temperature: DefaultTemperature}, nil
}

// Model returns the configured model name
func (g *GeminiGenerator) Model() string {
	return g.model
}

// Generate sends the whole conversation and returns the model text
func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	temperature := g.temperature
	config := &genai.GenerateContentConfig{
		Temperature:       &temperature,
		SystemInstruction: genai.NewContentFromText(SystemInstruction(req.Profile), genai.RoleUser),
	}

	internal.LogDebug("Session %s: generating with %s (%d history turns)", req.SessionID, g.model, len(req.History))
	resp, err := g.client.Models.GenerateContent(ctx, g.model, buildContents(req), config)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// buildContents maps history and the current turn to Gemini contents.
// Assistant turns are sent with the model role.
func buildContents(req GenerateRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := string(genai.RoleUser)
		if turn.Role == "model" || turn.Role == string(internal.SenderAssistant) {
			role = string(genai.RoleModel)
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: turn.Content}},
		})
	}

	var parts []*genai.Part
	if req.File != nil {
		parts = append(parts,
			&genai.Part{InlineData: &genai.Blob{MIMEType: "application/pdf", Data: req.File.Data}},
			&genai.Part{Text: FileNote},
		)
	}
	if req.UserInput != "" {
		parts = append(parts, &genai.Part{Text: req.UserInput})
	}
	contents = append(contents, &genai.Content{Role: string(genai.RoleUser), Parts: parts})
	return contents
}
