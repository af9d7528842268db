package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDatabaseSizeBytes(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "linklore.db")

	// Missing database counts as 0
	got, err := DatabaseSizeBytes(db)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("missing: got %d bytes, want 0", got)
	}

	if err := os.WriteFile(db, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = DatabaseSizeBytes(db)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("db only: got %d bytes, want 5", got)
	}

	// Sidecar files are included
	if err := os.WriteFile(db+"-wal", []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(db+"-shm", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = DatabaseSizeBytes(db)
	if err != nil {
		t.Fatal(err)
	}
	if got != 9 {
		t.Errorf("with sidecars: got %d bytes, want 9", got)
	}

	// Empty path
	got, err = DatabaseSizeBytes("")
	if err != nil || got != 0 {
		t.Errorf("empty path: got %d, %v", got, err)
	}
}
