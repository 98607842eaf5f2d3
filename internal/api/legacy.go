package api

import (
	"context"

	"github.com/iksnae/work-scope/internal"
)

// Legacy runs turns through the per-session endpoints, where the backend
// keeps the conversation itself. It is an internal.Assistant.
type Legacy struct {
	client *Client
}

// NewLegacy wraps client
func NewLegacy(client *Client) *Legacy {
	return &Legacy{client: client}
}

// Chat starts the backend session on the first turn and continues it
// afterwards. The local history only decides which endpoint to call.
func (l *Legacy) Chat(ctx context.Context, req internal.ChatRequest) (internal.RawResponse, error) {
	switch {
	case req.File != nil:
		return l.client.Upload(ctx, req.SessionID, *req.File, req.DeveloperProfile)
	case len(req.History) == 0:
		return l.client.InitialInput(ctx, req.SessionID, req.UserInput, req.DeveloperProfile)
	default:
		return l.client.Input(ctx, req.SessionID, req.UserInput)
	}
}
