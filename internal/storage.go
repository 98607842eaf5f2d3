package internal

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// StorageKey is the fixed key the session collection is stored under
const StorageKey = "work-scope-sessions"

// Persistence loads and saves the whole session collection
type Persistence interface {
	Load() (Collection, error)
	Save(Collection) error
}

// SQLitePersistence keeps the collection as one JSON value in a kv table
type SQLitePersistence struct {
	db   *sql.DB
	path string
}

// NewSQLitePersistence wraps an open database
func NewSQLitePersistence(db *sql.DB, path string) *SQLitePersistence {
	return &SQLitePersistence{db: db, path: path}
}

// OpenSQLitePersistence opens the database at path
func OpenSQLitePersistence(path string) (*SQLitePersistence, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	return NewSQLitePersistence(db, path), nil
}

// Close closes the underlying database
func (p *SQLitePersistence) Close() error {
	return p.db.Close()
}

// Load reads the collection. A malformed value is moved aside and an
// empty collection returned.
func (p *SQLitePersistence) Load() (Collection, error) {
	raw, ok, err := GetKV(p.db, StorageKey)
	if err != nil {
		return nil, &StorageError{Path: p.path, Op: "load", Err: err}
	}
	if !ok || raw == "" {
		return Collection{}, nil
	}

	sessions, err := DecodeCollection([]byte(raw))
	if err != nil {
		LogWarn("Stored sessions are malformed, starting empty: %v", &ParseError{Source: "sqlite", Key: StorageKey, Err: err})
		if err := PutKV(p.db, StorageKey+".corrupt", raw); err != nil {
			LogWarn("Failed to keep malformed sessions: %v", err)
		}
		return Collection{}, nil
	}
	return sessions, nil
}

// Save replaces the stored collection
func (p *SQLitePersistence) Save(sessions Collection) error {
	data, err := encodeCollection(sessions)
	if err != nil {
		return &StorageError{Path: p.path, Op: "save", Err: err}
	}
	if err := PutKV(p.db, StorageKey, string(data)); err != nil {
		return &StorageError{Path: p.path, Op: "save", Err: err}
	}
	return nil
}

func encodeCollection(sessions Collection) ([]byte, error) {
	if sessions == nil {
		sessions = Collection{}
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sessions: %w", err)
	}
	return data, nil
}

// DecodeCollection parses a stored collection without touching storage
func DecodeCollection(data []byte) (Collection, error) {
	var sessions Collection
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, err
	}
	// Deduplicate also replaces missing message lists with empty ones
	return NewDeduplicator().Deduplicate(sessions), nil
}
