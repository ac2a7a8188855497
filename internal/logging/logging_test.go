package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bucketq/internal/config"

	"github.com/sirupsen/logrus"
)

func TestNewFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bucketq.log")
	l, cleanup, err := New(&config.Logger{Level: "debug", Format: "json", Output: "file", OutputFile: path})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	l.WithField("job_id", "abc").Debug("moved")
	cleanup()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(b), `"job_id":"abc"`) {
		t.Errorf("Expected JSON field in log output, got %s", b)
	}
	if l.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %v", l.GetLevel())
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, _, err := New(&config.Logger{Level: "loud"}); err == nil {
		t.Fatalf("Expected invalid level to fail")
	}
}

func TestNewFileNeedsPath(t *testing.T) {
	if _, _, err := New(&config.Logger{Output: "file"}); err == nil {
		t.Fatalf("Expected missing output_file to fail")
	}
}
