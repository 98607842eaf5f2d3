package internal

import (
	"crypto/sha256"
	"encoding/hex"
)

// Deduplicator removes repeated sessions and messages from a loaded
// collection. Sessions are keyed by id; a session without one is keyed
// by a hash of its messages.
type Deduplicator struct{}

// NewDeduplicator creates a new Deduplicator
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Deduplicate keeps the first occurrence of each session and, within a
// session, of each message id
func (d *Deduplicator) Deduplicate(sessions Collection) Collection {
	seen := make(map[string]bool, len(sessions))
	unique := make(Collection, 0, len(sessions))

	for _, session := range sessions {
		key := session.ID
		if key == "" {
			key = "hash:" + d.hashSessionContent(session)
		}
		if seen[key] {
			LogWarn("Dropping duplicate session %s", key)
			continue
		}
		seen[key] = true
		session.Messages = d.uniqueMessages(session.Messages)
		unique = append(unique, session)
	}

	return unique
}

func (d *Deduplicator) uniqueMessages(messages []Message) []Message {
	seen := make(map[string]bool, len(messages))
	unique := make([]Message, 0, len(messages))
	for _, msg := range messages {
		if msg.ID != "" {
			if seen[msg.ID] {
				continue
			}
			seen[msg.ID] = true
		}
		unique = append(unique, msg)
	}
	return unique
}

// hashSessionContent creates a content-based hash for a session
func (d *Deduplicator) hashSessionContent(session Session) string {
	h := sha256.New()

	for _, msg := range session.Messages {
		h.Write([]byte(msg.Sender))
		h.Write([]byte(msg.Content))
		h.Write([]byte(msg.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00")))
	}

	return hex.EncodeToString(h.Sum(nil))
}
