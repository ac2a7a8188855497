package tests

import (
	"path/filepath"

	"bucketq/internal/store/sqlite"
)

// newStore creates a fresh sqlite store in a temporary directory
func newStore(t testingT) *sqlite.Store {
	path := filepath.Join(t.TempDir(), "test.db")

	st, err := sqlite.NewStore(path)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// testingT is a minimal interface for testing.T to allow for easier testing
type testingT interface {
	Fatalf(format string, args ...interface{})
	Cleanup(func())
	Errorf(format string, args ...interface{})
	FailNow()
	TempDir() string
}
