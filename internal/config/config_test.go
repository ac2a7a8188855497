package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}
	if cfg.Store.URL != "sqlite://bucketq.db" {
		t.Errorf("Expected default store url, got %q", cfg.Store.URL)
	}
	if cfg.Queue.PollInterval != time.Second {
		t.Errorf("Expected 1s poll interval, got %v", cfg.Queue.PollInterval)
	}
	if cfg.Meta.SquashThreshold != 42 {
		t.Errorf("Expected squash threshold 42, got %d", cfg.Meta.SquashThreshold)
	}
	if cfg.Lock.TTL != 10*time.Minute {
		t.Errorf("Expected 10m lock ttl, got %v", cfg.Lock.TTL)
	}
}

func TestFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bucketq.yaml")
	body := "store:\n  url: mem://\nqueue:\n  max_queued: 5\nlogger:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv("BUCKETQ_QUEUE_MAX_QUEUED", "9")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Store.URL != "mem://" {
		t.Errorf("Expected url from file, got %q", cfg.Store.URL)
	}
	if cfg.Queue.MaxQueued != 9 {
		t.Errorf("Expected env to override file, got %d", cfg.Queue.MaxQueued)
	}
	if cfg.Logger.Level != "debug" {
		t.Errorf("Expected level debug, got %q", cfg.Logger.Level)
	}
}

func TestExplicitMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("Expected missing explicit config file to fail")
	}
}

func TestSetAndSave(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	cfg.Set("queue.max_queued", "3")
	if cfg.Queue.MaxQueued != 3 {
		t.Errorf("Expected typed section to refresh, got %d", cfg.Queue.MaxQueued)
	}
	if got := cfg.Get("queue.max_queued"); got != "3" {
		t.Errorf("Expected '3', got %q", got)
	}

	out := filepath.Join(dir, "saved.yaml")
	if err := cfg.Save(out); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	reloaded, err := Load(out)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if reloaded.Queue.MaxQueued != 3 {
		t.Errorf("Expected saved value 3, got %d", reloaded.Queue.MaxQueued)
	}
}

// chdir changes the working directory for the duration of the test,
// like testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("chdir back: %v", err)
		}
	})
}
