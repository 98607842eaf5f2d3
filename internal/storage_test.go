package internal

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/work-scope/testutil"
)

func TestSQLitePersistence_Load(t *testing.T) {
	p := NewSQLitePersistence(testutil.CreateTestDB(t), ":memory:")

	sessions, err := p.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("Load() returned %d sessions, want 2", len(sessions))
	}

	chat := sessions[0]
	if chat.Type != SessionTypeChat || chat.DeveloperProfile != "Senior Go developer" {
		t.Errorf("sessions[0] = %+v", chat)
	}
	want := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	if !chat.Messages[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", chat.Messages[0].Timestamp, want)
	}

	folder := sessions[1]
	if folder.Type != SessionTypeFolder || folder.FileName != "requirements.pdf" {
		t.Errorf("sessions[1] = %+v", folder)
	}
	if folder.DeveloperProfile != "" || folder.Messages[0].Shape != "" {
		t.Errorf("optional fields should load empty: %+v", folder)
	}
}

func TestSQLitePersistence_Empty(t *testing.T) {
	p := NewSQLitePersistence(testutil.CreateInMemoryDB(t), ":memory:")
	sessions, err := p.Load()
	if err != nil || sessions == nil || len(sessions) != 0 {
		t.Errorf("Load() = %v, %v; want empty collection", sessions, err)
	}
}

func TestSQLitePersistence_SaveRoundTrip(t *testing.T) {
	dbPath := filepath.Join(testutil.CreateTempDir(t), "sessions.db")
	p, err := OpenSQLitePersistence(dbPath)
	if err != nil {
		t.Fatalf("OpenSQLitePersistence() error = %v", err)
	}

	in := Collection{CreateTestSession("s1")}
	if err := p.Save(in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	p.Close()

	p, err = OpenSQLitePersistence(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer p.Close()

	out, err := p.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "s1" || len(out[0].Messages) != 2 {
		t.Fatalf("Load() = %+v", out)
	}
	if out[0].Messages[1].Content != in[0].Messages[1].Content {
		t.Errorf("assistant content changed:\n%s\n%s", in[0].Messages[1].Content, out[0].Messages[1].Content)
	}
	if !out[0].Messages[0].Timestamp.Equal(in[0].Messages[0].Timestamp) {
		t.Errorf("timestamp changed")
	}
}

func TestSQLitePersistence_CorruptIsKept(t *testing.T) {
	defer SetLogOutput(os.Stderr)
	var logs bytes.Buffer
	SetLogOutput(&logs)

	db := testutil.CreateInMemoryDB(t)
	testutil.InsertKV(t, db, StorageKey, `[{"id": "broken"`)
	p := NewSQLitePersistence(db, ":memory:")

	sessions, err := p.Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want fail-soft", err)
	}
	if len(sessions) != 0 {
		t.Errorf("Load() = %v, want empty", sessions)
	}
	if got := testutil.ReadKV(t, db, StorageKey+".corrupt"); got != `[{"id": "broken"` {
		t.Errorf("corrupt copy = %q", got)
	}
	if !strings.Contains(logs.String(), "malformed") {
		t.Errorf("expected a warning, got %q", logs.String())
	}
}

func TestOpenSQLitePersistence_Error(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	// a directory cannot be opened as a database file
	_, err := OpenSQLitePersistence(dir)
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Errorf("OpenSQLitePersistence(dir) error = %v, want StorageError", err)
	}
}
