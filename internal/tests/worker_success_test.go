package tests

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bucketq/internal/engine"
	"bucketq/internal/queue"
)

func runWorker(t *testing.T, w *engine.Worker, done func() bool) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(stopped)
	}()

	deadline := time.Now().Add(10 * time.Second)
	for !done() && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	<-stopped
}

func TestWorkerSuccessMultipleJobs(t *testing.T) {
	st := newStore(t)
	q := queue.New(st)
	ctx := context.Background()
	dir := t.TempDir()

	jobs := []string{"job1", "job2", "job3"}
	for _, id := range jobs {
		if _, err := q.Put(ctx, "touch "+filepath.Join(dir, id), id); err != nil {
			t.Fatalf("Failed to put job %s: %v", id, err)
		}
	}

	w := engine.NewWorker(q)
	w.IdleSleep = 20 * time.Millisecond
	runWorker(t, w, func() bool {
		f, _ := q.Finished(ctx)
		return len(f) == len(jobs)
	})

	finished, err := q.Finished(ctx)
	if err != nil {
		t.Fatalf("Failed to list finished jobs: %v", err)
	}
	if len(finished) != len(jobs) {
		t.Fatalf("Expected %d finished jobs, got %d", len(jobs), len(finished))
	}
	for _, id := range jobs {
		if _, ok := finished[id]; !ok {
			t.Errorf("Job %s not found in finished jobs", id)
		}
		if _, err := os.Stat(filepath.Join(dir, id)); err != nil {
			t.Errorf("Job %s did not run: %v", id, err)
		}
	}
	if n, _ := q.Size(ctx); n != 0 {
		t.Errorf("Expected 0 pending jobs, got %d", n)
	}
}

func TestWorkerRequeueKeepsJobAlive(t *testing.T) {
	st := newStore(t)
	q := queue.New(st)
	ctx := context.Background()
	counter := filepath.Join(t.TempDir(), "attempts")

	// fails twice, then succeeds
	body := `echo x >> ` + counter + ` && [ $(wc -l < ` + counter + `) -ge 3 ]`
	if _, err := q.Put(ctx, body, "flaky"); err != nil {
		t.Fatalf("Failed to put job: %v", err)
	}

	w := engine.NewWorker(q)
	w.IdleSleep = 20 * time.Millisecond
	w.RequeueOnFailure = true
	runWorker(t, w, func() bool {
		f, _ := q.Finished(ctx)
		_, ok := f["flaky"]
		return ok
	})

	finished, _ := q.Finished(ctx)
	if _, ok := finished["flaky"]; !ok {
		t.Fatalf("Expected flaky job to finish after retries")
	}
	b, err := os.ReadFile(counter)
	if err != nil {
		t.Fatalf("Failed to read attempts: %v", err)
	}
	if got := len(b) / 2; got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}
