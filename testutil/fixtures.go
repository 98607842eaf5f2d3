package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// SessionsKey is the kv key the session collection is stored under
const SessionsKey = "work-scope-sessions"

// SampleSessionsJSON is a stored collection with one chat and one folder session
const SampleSessionsJSON = `[
  {
    "id": "5b1f6c2e-0d7a-4c1e-9d55-0f3a2b9e8c01",
    "name": "Invoice portal",
    "type": "chat",
    "developerProfile": "Senior Go developer",
    "messages": [
      {"id": "m1", "content": "Build an invoice portal", "sender": "user", "timestamp": "2025-03-14T09:30:00.000Z"},
      {"id": "m2", "content": "{\"content\":{\"features\":[\"Login\",\"Payments\"]},\"current_stage\":\"features\",\"follow_up_question\":\"Which one first?\"}", "sender": "assistant", "timestamp": "2025-03-14T09:31:00.000Z"}
    ]
  },
  {
    "id": "9c4d2a10-7e3b-4f6a-8b21-5d9e0c7a1f42",
    "name": "requirements",
    "type": "folder",
    "fileName": "requirements.pdf",
    "messages": [
      {"id": "m3", "content": "{\"content\":{\"overview\":\"Build a CRM.\",\"effort_estimation_table\":{\"headers\":[\"Task\",\"Hours\"],\"rows\":[[\"Design\",\"10\"]]}},\"current_stage\":\"work_scope\"}", "sender": "assistant", "timestamp": "2025-03-15T10:00:00.000Z"}
    ]
  }
]`

// CreateSQLiteFixture creates a SQLite database holding sessionsJSON under
// SessionsKey. An empty sessionsJSON creates only the table.
func CreateSQLiteFixture(t *testing.T, dbPath, sessionsJSON string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	createKVTable(t, db)
	if sessionsJSON != "" {
		InsertKV(t, db, SessionsKey, sessionsJSON)
	}
}

// CreateSessionsFileFixture writes a sessions JSON file
func CreateSessionsFileFixture(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write sessions file: %v", err)
	}
}

// CreatePDFFixture writes a tiny PDF document and returns its path
func CreatePDFFixture(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := []byte("%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\ntrailer << /Root 1 0 R >>\n%%EOF\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write PDF fixture: %v", err)
	}
	return path
}
