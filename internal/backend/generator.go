// Package backend is a reference assistant backend. It serves the chat
// contract the CLI client speaks, generating replies with Gemini.
package backend

import (
	"context"

	"github.com/iksnae/work-scope/internal"
)

// GenerateRequest is one model call: prior turns, the new user input and an
// optional PDF.
type GenerateRequest struct {
	SessionID string
	History   []internal.HistoryTurn
	UserInput string
	Profile   string
	File      *internal.Upload
}

// Generator produces the raw model text for a turn
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(ctx context.Context, req GenerateRequest) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	return f(ctx, req)
}
