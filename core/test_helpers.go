package core

import (
	"os"
	"testing"
)

// SetupTempQueue opens a Queue rooted at a fresh temporary directory and
// registers cleanup (closing the queue and removing the directory) with tb.
func SetupTempQueue(tb testing.TB, opts ...Option) (*Queue, string) {
	tb.Helper()

	dir, err := os.MkdirTemp("", "depot_test_*")
	if err != nil {
		tb.Fatalf("MkdirTemp failed: %v", err)
	}

	q, err := Open(dir, opts...)
	if err != nil {
		_ = os.RemoveAll(dir)
		tb.Fatalf("Open(%q) failed: %v", dir, err)
	}

	tb.Cleanup(func() {
		_ = q.Close()
		_ = os.RemoveAll(dir)
	})

	return q, dir
}
