// Package testing provides testing utilities and helpers for the tradebook project.
package testing

import (
	"fmt"
	"os"
	"testing"

	"github.com/aristath/tradebook/internal/database"
)

// NewTestDB creates a temporary-file SQLite database for testing with the
// embedded schema for name applied (use database.JournalName for the journal).
// Unknown names produce an empty database. The returned cleanup function
// closes the connection and removes the file.
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	// Temporary files keep every test isolated
	tmpFile, err := os.CreateTemp("", fmt.Sprintf("test_%s_*.db", name))
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	return db, func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
		for _, suffix := range []string{"", "-wal", "-shm"} {
			_ = os.Remove(tmpPath + suffix)
		}
	}
}

// NewJournalDB is NewTestDB for the trade journal, with cleanup registered on t.
func NewJournalDB(t *testing.T) *database.DB {
	t.Helper()
	db, cleanup := NewTestDB(t, database.JournalName)
	t.Cleanup(cleanup)
	return db
}
