package store

import (
	"path/filepath"
	"testing"
	"time"
)

// createTestStore opens a fresh store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// at returns a fixed instant offset by the given number of seconds.
func at(seconds int64) time.Time {
	return time.UnixMilli(1_700_000_000_000 + seconds*1000)
}
