package internal

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who authored a message
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// SessionType distinguishes sessions started from an upload from direct chats
type SessionType string

const (
	SessionTypeFolder SessionType = "folder"
	SessionTypeChat   SessionType = "chat"
)

// Session represents one conversation
type Session struct {
	ID               string      `json:"id" yaml:"id"`
	Name             string      `json:"name" yaml:"name"`
	Type             SessionType `json:"type" yaml:"type"`
	FileName         string      `json:"fileName,omitempty" yaml:"file_name,omitempty"`
	DeveloperProfile string      `json:"developerProfile,omitempty" yaml:"developer_profile,omitempty"`
	Messages         []Message   `json:"messages" yaml:"messages"`
}

// Message is one turn of a session. Assistant content holds a serialized
// NormalizedPayload; user content is the text as typed.
type Message struct {
	ID        string    `json:"id" yaml:"id"`
	Content   string    `json:"content" yaml:"content"`
	Sender    Sender    `json:"sender" yaml:"sender"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Shape     Shape     `json:"shape,omitempty" yaml:"shape,omitempty"`
}

// Collection is the full persisted set of sessions
type Collection []Session

// NewID returns a random session or message identifier
func NewID() string {
	return uuid.New().String()
}

// NewUserMessage creates a message holding text typed by the user
func NewUserMessage(text string, at time.Time) Message {
	return Message{
		ID:        NewID(),
		Content:   text,
		Sender:    SenderUser,
		Timestamp: at,
	}
}

// NewAssistantMessage serializes payload into a message and records its shape
func NewAssistantMessage(payload NormalizedPayload, at time.Time) Message {
	return Message{
		ID:        NewID(),
		Content:   payload.Serialize(),
		Sender:    SenderAssistant,
		Timestamp: at,
		Shape:     Classify(payload.Content).Shape(),
	}
}

// NewChatSession returns an empty direct-chat session
func NewChatSession(profile string) Session {
	return Session{
		ID:               NewID(),
		Name:             "New Chat",
		Type:             SessionTypeChat,
		DeveloperProfile: profile,
		Messages:         []Message{},
	}
}

// NewFolderSession returns a session created from an uploaded document
func NewFolderSession(id, fileName, profile string, messages ...Message) Session {
	return Session{
		ID:               id,
		Name:             trimExtension(fileName),
		Type:             SessionTypeFolder,
		FileName:         fileName,
		DeveloperProfile: profile,
		Messages:         append([]Message{}, messages...),
	}
}

// ChatTitle derives a chat name from its first user message
func ChatTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= 30 {
		return text
	}
	return string(runes[:30]) + "..."
}

func trimExtension(name string) string {
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 || strings.ContainsAny(name[i+1:], "/.") {
		return name
	}
	return name[:i]
}

// Last returns the most recent message of the session
func (s Session) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// FindMessage looks a message up by id, or by 1-based position
func (s Session) FindMessage(ref string) (Message, bool) {
	for _, msg := range s.Messages {
		if msg.ID == ref {
			return msg, true
		}
	}
	var pos int
	for _, r := range ref {
		if r < '0' || r > '9' {
			return Message{}, false
		}
		pos = pos*10 + int(r-'0')
	}
	if pos < 1 || pos > len(s.Messages) {
		return Message{}, false
	}
	return s.Messages[pos-1], true
}
