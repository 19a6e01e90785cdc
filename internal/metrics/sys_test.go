package metrics

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetSysHealth(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "app.db")
	if err := os.WriteFile(dbPath, make([]byte, 2000), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dbPath+"-wal", make([]byte, 1000), 0o644); err != nil {
		t.Fatal(err)
	}

	h := GetSysHealth(dbPath)
	if h.DBSize != "3.0 kB" {
		t.Errorf("DBSize = %q, want 3.0 kB", h.DBSize)
	}
	if h.Goroutines < 1 {
		t.Errorf("Goroutines = %d", h.Goroutines)
	}

	if missing := GetSysHealth(filepath.Join(t.TempDir(), "none.db")); missing.DBSize != "0 B" {
		t.Errorf("DBSize for missing file = %q, want 0 B", missing.DBSize)
	}
}
