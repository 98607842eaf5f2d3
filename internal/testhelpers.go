package internal

import (
	"context"
	"sync"
	"time"
)

// CreateTestTime returns a fixed timestamp for tests
func CreateTestTime() time.Time {
	return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
}

// CreateTestSession creates a chat session with one exchange
func CreateTestSession(id string) Session {
	at := CreateTestTime()
	return Session{
		ID:               id,
		Name:             "Test Conversation",
		Type:             SessionTypeChat,
		DeveloperProfile: "Go backend developer",
		Messages: []Message{
			NewUserMessage("List the features", at),
			NewAssistantMessage(NormalizedPayload{
				Content:          MustParseValue(`{"features":["Login","Payments"]}`),
				CurrentStage:     "features",
				FollowUpQuestion: "Which one first?",
			}, at.Add(time.Minute)),
		},
	}
}

// CreateTestSessionWithMessages creates a test session with custom messages
func CreateTestSessionWithMessages(id string, messages []Message) Session {
	return Session{
		ID:       id,
		Name:     "Test Conversation",
		Type:     SessionTypeChat,
		Messages: messages,
	}
}

// StubAssistant is an Assistant that records requests and replays canned replies
type StubAssistant struct {
	mu       sync.Mutex
	Requests []ChatRequest
	Reply    RawResponse
	Err      error
	// Block, when set, is waited on before replying
	Block chan struct{}
}

func (s *StubAssistant) Chat(ctx context.Context, req ChatRequest) (RawResponse, error) {
	s.mu.Lock()
	s.Requests = append(s.Requests, req)
	block := s.Block
	s.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return RawResponse{}, ctx.Err()
		}
	}
	if s.Err != nil {
		return RawResponse{}, s.Err
	}
	return s.Reply, nil
}

// Calls returns the requests received so far
func (s *StubAssistant) Calls() []ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChatRequest(nil), s.Requests...)
}
