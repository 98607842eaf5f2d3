package internal

import (
	"path/filepath"
	"testing"

	"github.com/iksnae/work-scope/testutil"
)

func TestOpenDatabase(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "existing database",
			setup: func(t *testing.T) string {
				dbPath := filepath.Join(testutil.CreateTempDir(t), "test.db")
				testutil.CreateSQLiteFixture(t, dbPath, testutil.SampleSessionsJSON)
				return dbPath
			},
		},
		{
			name: "new database is created",
			setup: func(t *testing.T) string {
				return filepath.Join(testutil.CreateTempDir(t), "new.db")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := OpenDatabase(tt.setup(t))
			if err != nil {
				t.Fatalf("OpenDatabase() error = %v", err)
			}
			defer db.Close()
			if _, err := QueryKV(db, "%"); err != nil {
				t.Errorf("kv table not usable: %v", err)
			}
		})
	}
}

func TestOpenDatabaseReadOnly(t *testing.T) {
	dir := testutil.CreateTempDir(t)

	if _, err := OpenDatabaseReadOnly(filepath.Join(dir, "missing.db")); err == nil {
		t.Error("OpenDatabaseReadOnly() should fail for a missing file")
	}

	dbPath := filepath.Join(dir, "sessions.db")
	testutil.CreateSQLiteFixture(t, dbPath, testutil.SampleSessionsJSON)
	db, err := OpenDatabaseReadOnly(dbPath)
	if err != nil {
		t.Fatalf("OpenDatabaseReadOnly() error = %v", err)
	}
	defer db.Close()
	if err := PutKV(db, "x", "y"); err == nil {
		t.Error("PutKV() on a read-only database should fail")
	}
}

func TestGetPutKV(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)

	if _, ok, err := GetKV(db, "missing"); err != nil || ok {
		t.Errorf("GetKV(missing) ok = %v, err = %v", ok, err)
	}

	if err := PutKV(db, "k", "v1"); err != nil {
		t.Fatalf("PutKV() error = %v", err)
	}
	if err := PutKV(db, "k", "v2"); err != nil {
		t.Fatalf("PutKV() overwrite error = %v", err)
	}
	got, ok, err := GetKV(db, "k")
	if err != nil || !ok || got != "v2" {
		t.Errorf("GetKV() = %q, %v, %v; want v2", got, ok, err)
	}
}

func TestQueryKV(t *testing.T) {
	db := testutil.CreateTestDB(t)
	testutil.InsertKV(t, db, StorageKey+".corrupt", "[")

	pairs, err := QueryKV(db, StorageKey+"%")
	if err != nil {
		t.Fatalf("QueryKV() error = %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("QueryKV() returned %d pairs, want 2", len(pairs))
	}
	if pairs[0].Key != StorageKey {
		t.Errorf("pairs[0].Key = %q, want %q", pairs[0].Key, StorageKey)
	}
}
