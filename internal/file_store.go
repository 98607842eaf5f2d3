package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FilePersistence keeps the collection in a single JSON file
type FilePersistence struct {
	path string
}

// NewFilePersistence creates a file backed persistence at path
func NewFilePersistence(path string) *FilePersistence {
	return &FilePersistence{path: path}
}

// Path returns the file the collection is stored in
func (p *FilePersistence) Path() string {
	return p.path
}

// Load reads the collection. A missing file is an empty collection; a
// malformed one is renamed to <path>.corrupt and treated as empty.
func (p *FilePersistence) Load() (Collection, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return Collection{}, nil
	}
	if err != nil {
		return nil, &StorageError{Path: p.path, Op: "load", Err: err}
	}
	if len(data) == 0 {
		return Collection{}, nil
	}

	sessions, err := DecodeCollection(data)
	if err != nil {
		LogWarn("Stored sessions are malformed, starting empty: %v", &ParseError{Source: "file", Key: p.path, Err: err})
		if err := os.Rename(p.path, p.path+".corrupt"); err != nil {
			LogWarn("Failed to keep malformed sessions: %v", err)
		}
		return Collection{}, nil
	}
	return sessions, nil
}

// Save writes the collection through a temporary file and rename
func (p *FilePersistence) Save(sessions Collection) error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &StorageError{Path: p.path, Op: "save", Err: err}
	}

	data, err := encodeCollection(sessions)
	if err != nil {
		return &StorageError{Path: p.path, Op: "save", Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return &StorageError{Path: p.path, Op: "save", Err: err}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &StorageError{Path: p.path, Op: "save", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &StorageError{Path: p.path, Op: "save", Err: err}
	}
	if err := os.Rename(tmpPath, p.path); err != nil {
		os.Remove(tmpPath)
		return &StorageError{Path: p.path, Op: "save", Err: fmt.Errorf("rename: %w", err)}
	}
	return nil
}
