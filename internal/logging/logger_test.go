package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewLogger_CreatesDirAndLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	log, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("log dir missing: %v", err)
	}

	log.Info("probe_done_test")
	_ = log.Sync()

	// lumberjack opens the file lazily on first write
	if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
		t.Fatalf("log file missing after write: %v", err)
	}
}
