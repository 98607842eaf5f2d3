package internal

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// Assistant sends a chat turn to the assistant backend
type Assistant interface {
	Chat(ctx context.Context, req ChatRequest) (RawResponse, error)
}

// ChatService runs conversation turns against an Assistant and records them
// in a Store. Only one network call may be in flight at a time.
type ChatService struct {
	store      *Store
	assistant  Assistant
	normalizer *Normalizer
	profile    string
	busy       atomic.Bool
	now        func() time.Time
}

// NewChatService creates a ChatService. profile is the developer profile
// given to new sessions.
func NewChatService(store *Store, assistant Assistant, profile string) *ChatService {
	return &ChatService{
		store:      store,
		assistant:  assistant,
		normalizer: NewNormalizer(),
		profile:    profile,
		now:        time.Now,
	}
}

// Busy reports whether a request is in flight
func (c *ChatService) Busy() bool {
	return c.busy.Load()
}

func (c *ChatService) acquire() error {
	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (c *ChatService) release() {
	c.busy.Store(false)
}

// NewChat creates an empty chat session
func (c *ChatService) NewChat(ctx context.Context) (Session, error) {
	session, err := c.store.CreateChat(c.profile)
	if err != nil {
		return Session{}, err
	}
	LogDebug("Created chat session %s", session.ID)
	return session, nil
}

// IsPDF reports whether a file name has a .pdf extension
func IsPDF(fileName string) bool {
	return strings.EqualFold(filepath.Ext(fileName), ".pdf")
}

// Upload sends a PDF to the backend and stores the reply as the first
// message of a new folder session.
func (c *ChatService) Upload(ctx context.Context, fileName string, data []byte) (Session, error) {
	if !IsPDF(fileName) {
		return Session{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, fileName)
	}
	if err := c.acquire(); err != nil {
		return Session{}, err
	}
	defer c.release()

	id := NewID()
	LogInfo("Uploading %s (%d bytes)", fileName, len(data))
	raw, err := c.assistant.Chat(ctx, ChatRequest{
		SessionID:        id,
		DeveloperProfile: c.profile,
		File:             &Upload{Name: filepath.Base(fileName), Data: data},
	})
	if err != nil {
		return Session{}, fmt.Errorf("upload failed: %w", err)
	}

	reply := NewAssistantMessage(c.normalizer.Normalize(raw), c.now())
	return c.store.CreateFolder(id, filepath.Base(fileName), c.profile, reply)
}

// Send appends the user message, asks the backend and appends its reply.
// On failure the user message stays recorded and the error is returned
// together with the session as it was saved.
func (c *ChatService) Send(ctx context.Context, sessionID, text string) (Session, error) {
	if strings.TrimSpace(text) == "" {
		return Session{}, ErrEmptyInput
	}
	if err := c.acquire(); err != nil {
		return Session{}, err
	}
	defer c.release()

	session, err := c.store.Get(sessionID)
	if err != nil {
		return Session{}, err
	}
	history := c.History(session)
	firstInChat := session.Type == SessionTypeChat && len(session.Messages) == 0

	session, err = c.store.Update(sessionID, func(s Session) Session {
		if firstInChat {
			s.Name = ChatTitle(text)
		}
		s.Messages = append(append([]Message{}, s.Messages...), NewUserMessage(text, c.now()))
		return s
	})
	if err != nil {
		return Session{}, err
	}

	raw, err := c.assistant.Chat(ctx, ChatRequest{
		SessionID:        sessionID,
		UserInput:        text,
		DeveloperProfile: session.DeveloperProfile,
		History:          history,
	})
	if err != nil {
		LogWarn("Send failed for session %s: %v", sessionID, err)
		return session, err
	}

	payload := c.normalizer.Normalize(raw)
	LogDebug("Reply for %s: stage=%s shape=%s", sessionID, payload.CurrentStage, Classify(payload.Content).Shape())
	return c.store.AppendMessage(sessionID, NewAssistantMessage(payload, c.now()))
}

// History converts the messages of a session into backend history turns
func (c *ChatService) History(session Session) []HistoryTurn {
	history := make([]HistoryTurn, 0, len(session.Messages))
	for _, msg := range session.Messages {
		if msg.Sender == SenderAssistant {
			history = append(history, HistoryTurn{Role: "model", Content: c.normalizer.DisplayText(msg.Content)})
		} else {
			history = append(history, HistoryTurn{Role: "user", Content: msg.Content})
		}
	}
	return history
}

// UpdateProfile sets the developer profile used by later turns of a session
func (c *ChatService) UpdateProfile(ctx context.Context, sessionID, profile string) (Session, error) {
	return c.store.UpdateDeveloperProfile(sessionID, profile)
}

// Delete removes a session
func (c *ChatService) Delete(ctx context.Context, sessionID string) error {
	return c.store.DeleteSession(sessionID)
}
