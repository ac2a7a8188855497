package tests

import (
	"context"
	"sync"
	"testing"

	"bucketq/internal/model"
	"bucketq/internal/queue"
)

func TestQueueLifecycle(t *testing.T) {
	st := newStore(t)
	q := queue.New(st)
	ctx := context.Background()

	id, err := q.Put(ctx, "echo hello", "job1")
	if err != nil {
		t.Fatalf("Failed to put job: %v", err)
	}
	if id != "job1" {
		t.Errorf("Expected job ID 'job1', got '%s'", id)
	}

	body, ok, err := st.Get(ctx, "pending/job1")
	if err != nil || !ok {
		t.Fatalf("Failed to read pending object: ok=%v err=%v", ok, err)
	}
	if body != "echo hello" {
		t.Errorf("Expected body 'echo hello', got '%s'", body)
	}

	job, err := q.Get(ctx, queue.GetOptions{})
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if job == nil || job.ID != "job1" || job.State != model.StateQueued {
		t.Fatalf("Expected queued job1, got %+v", job)
	}

	if err := q.Finish(ctx, "job1"); err != nil {
		t.Fatalf("Failed to finish job: %v", err)
	}
	stats, err := q.Stats(ctx)
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}
	if stats[model.StatePending] != 0 || stats[model.StateQueued] != 0 || stats[model.StateFinished] != 1 {
		t.Errorf("Expected only one finished job, got %v", stats)
	}

	locks, err := st.List(ctx, "lock/")
	if err != nil {
		t.Fatalf("Failed to list locks: %v", err)
	}
	if len(locks) != 0 {
		t.Errorf("Expected no lock markers left, got %v", locks)
	}
}

// Two queues over one database stand in for two consumers.
func TestTwoConsumersShareJobs(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	producer := queue.New(st)

	const n = 20
	for i := 0; i < n; i++ {
		if _, err := producer.Put(ctx, "job", ""); err != nil {
			t.Fatalf("Failed to put job: %v", err)
		}
	}

	var mu sync.Mutex
	seen := make(map[string]int)
	var wg sync.WaitGroup
	for c := 0; c < 2; c++ {
		consumer := queue.New(st)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				left, err := consumer.Size(ctx)
				if err != nil {
					t.Errorf("Failed to read size: %v", err)
					return
				}
				if left == 0 {
					return
				}
				job, err := consumer.Get(ctx, queue.GetOptions{})
				if err != nil {
					t.Errorf("Failed to get job: %v", err)
					return
				}
				if job == nil {
					continue
				}
				mu.Lock()
				seen[job.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Errorf("Expected %d distinct jobs, got %d", n, len(seen))
	}
	for id, c := range seen {
		if c != 1 {
			t.Errorf("Job %s delivered %d times", id, c)
		}
	}
	queued, err := producer.Queued(ctx)
	if err != nil {
		t.Fatalf("Failed to list queued jobs: %v", err)
	}
	if len(queued) != n {
		t.Errorf("Expected %d queued jobs, got %d", n, len(queued))
	}
}
