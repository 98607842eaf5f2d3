package internal

import (
	"fmt"
	"sync"
)

// Store applies session operations on top of an injected Persistence.
// Every mutation loads the full collection, replaces the affected session
// in a copy and saves the whole collection back.
type Store struct {
	persistence Persistence
}

// NewStore creates a Store over persistence
func NewStore(persistence Persistence) *Store {
	return &Store{persistence: persistence}
}

// List returns every session in stored order
func (s *Store) List() (Collection, error) {
	return s.persistence.Load()
}

// Folders returns the sessions created from an upload
func (s *Store) Folders() (Collection, error) {
	return s.filter(SessionTypeFolder)
}

// Chats returns the direct-chat sessions
func (s *Store) Chats() (Collection, error) {
	return s.filter(SessionTypeChat)
}

func (s *Store) filter(t SessionType) (Collection, error) {
	sessions, err := s.persistence.Load()
	if err != nil {
		return nil, err
	}
	out := Collection{}
	for _, session := range sessions {
		if session.Type == t {
			out = append(out, session)
		}
	}
	return out, nil
}

// Get returns one session
func (s *Store) Get(id string) (Session, error) {
	sessions, err := s.persistence.Load()
	if err != nil {
		return Session{}, err
	}
	for _, session := range sessions {
		if session.ID == id {
			return session, nil
		}
	}
	return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
}

// Resolve finds a session by id, or by a unique id prefix
func (s *Store) Resolve(ref string) (Session, error) {
	sessions, err := s.persistence.Load()
	if err != nil {
		return Session{}, err
	}
	var match *Session
	for i := range sessions {
		if sessions[i].ID == ref {
			return sessions[i], nil
		}
		if len(ref) >= 4 && len(sessions[i].ID) > len(ref) && sessions[i].ID[:len(ref)] == ref {
			if match != nil {
				return Session{}, fmt.Errorf("session id %q is ambiguous", ref)
			}
			match = &sessions[i]
		}
	}
	if match == nil {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, ref)
	}
	return *match, nil
}

// CreateChat adds an empty chat session
func (s *Store) CreateChat(profile string) (Session, error) {
	session := NewChatSession(profile)
	return session, s.add(session)
}

// CreateFolder adds a session for an uploaded document under a known id
func (s *Store) CreateFolder(id, fileName, profile string, messages ...Message) (Session, error) {
	session := NewFolderSession(id, fileName, profile, messages...)
	return session, s.add(session)
}

func (s *Store) add(session Session) error {
	sessions, err := s.persistence.Load()
	if err != nil {
		return err
	}
	if session.Messages == nil {
		session.Messages = []Message{}
	}
	next := make(Collection, 0, len(sessions)+1)
	next = append(next, sessions...)
	next = append(next, session)
	return s.persistence.Save(next)
}

// AppendMessage adds msg to the end of a session
func (s *Store) AppendMessage(id string, msg Message) (Session, error) {
	return s.Update(id, func(session Session) Session {
		messages := make([]Message, 0, len(session.Messages)+1)
		messages = append(messages, session.Messages...)
		session.Messages = append(messages, msg)
		return session
	})
}

// RenameSession changes the display name of a session
func (s *Store) RenameSession(id, name string) (Session, error) {
	return s.Update(id, func(session Session) Session {
		session.Name = name
		return session
	})
}

// UpdateDeveloperProfile replaces the developer profile of a session
func (s *Store) UpdateDeveloperProfile(id, profile string) (Session, error) {
	return s.Update(id, func(session Session) Session {
		session.DeveloperProfile = profile
		return session
	})
}

// Update replaces session id with the result of fn applied to a copy
func (s *Store) Update(id string, fn func(Session) Session) (Session, error) {
	sessions, err := s.persistence.Load()
	if err != nil {
		return Session{}, err
	}
	next := make(Collection, len(sessions))
	copy(next, sessions)
	for i := range next {
		if next[i].ID != id {
			continue
		}
		updated := fn(next[i])
		next[i] = updated
		if err := s.persistence.Save(next); err != nil {
			return Session{}, err
		}
		return updated, nil
	}
	return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
}

// DeleteSession removes a session
func (s *Store) DeleteSession(id string) error {
	sessions, err := s.persistence.Load()
	if err != nil {
		return err
	}
	next := make(Collection, 0, len(sessions))
	found := false
	for _, session := range sessions {
		if session.ID == id {
			found = true
			continue
		}
		next = append(next, session)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.persistence.Save(next)
}

// MemoryPersistence keeps the collection in memory as encoded JSON, so
// loads return fresh copies like the durable backends do.
type MemoryPersistence struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryPersistence creates an empty in-memory persistence
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{}
}

func (p *MemoryPersistence) Load() (Collection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data == nil {
		return Collection{}, nil
	}
	sessions, err := DecodeCollection(p.data)
	if err != nil {
		return nil, &ParseError{Source: "memory", Key: StorageKey, Err: err}
	}
	return sessions, nil
}

func (p *MemoryPersistence) Save(sessions Collection) error {
	data, err := encodeCollection(sessions)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.data = data
	p.mu.Unlock()
	return nil
}
