package inmemory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ddaros/financas/internal/jobs"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.ExtractStatementJob {
	t.Helper()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case <-deadline:
			job, _ := store.GetJob(context.Background(), jobID)
			t.Fatalf("job %s never reached %s, last state: %+v", jobID, want, job)
			return nil
		default:
		}

		job, err := store.GetJob(context.Background(), jobID)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestQueue_ProcessesJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	var mu sync.Mutex
	var handled []string

	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		handled = append(handled, job.GetID())
		mu.Unlock()
		return nil
	}

	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("start: %v", err)
	}

	job := &jobs.ExtractStatementJob{OwnerID: "owner-1", DocumentID: "doc-1", GCSURI: "gs://b/d.pdf"}
	if err := q.PublishExtractStatement(context.Background(), job); err != nil {
		t.Fatalf("publish: %v", err)
	}

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	if done.StartedAt == nil || done.CompletedAt == nil {
		t.Errorf("timestamps not set: %+v", done)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 1 || handled[0] != job.JobID {
		t.Errorf("handled = %v", handled)
	}
}

func TestQueue_RetriesThenFails(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	var mu sync.Mutex
	attempts := 0

	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		return errors.New("extraction unavailable")
	}

	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("start: %v", err)
	}

	job := &jobs.ExtractStatementJob{DocumentID: "doc-1", GCSURI: "gs://b/d.pdf", MaxRetries: 1}
	if err := q.PublishExtractStatement(context.Background(), job); err != nil {
		t.Fatalf("publish: %v", err)
	}

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	if failed.Error == "" {
		t.Error("failed job should carry the handler error")
	}

	mu.Lock()
	defer mu.Unlock()
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2 (initial + 1 retry)", attempts)
	}
}

func TestQueue_PublishAfterCloseFails(t *testing.T) {
	q := NewQueue(1, NewStore())
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	err := q.PublishExtractStatement(context.Background(), &jobs.ExtractStatementJob{DocumentID: "d"})
	if err == nil {
		t.Fatal("expected error publishing to a closed queue")
	}
}

func TestStore_ListJobsFilters(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seed := []*jobs.ExtractStatementJob{
		{JobID: "1", OwnerID: "alice", DocumentID: "d1", Status: jobs.JobStatusPending},
		{JobID: "2", OwnerID: "alice", DocumentID: "d2", Status: jobs.JobStatusCompleted},
		{JobID: "3", OwnerID: "bob", DocumentID: "d3", Status: jobs.JobStatusPending},
	}
	for _, j := range seed {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := store.ListJobs(ctx, jobs.JobFilter{OwnerID: "alice"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("owner filter returned %d jobs, want 2", len(got))
	}

	got, err = store.ListJobs(ctx, jobs.JobFilter{OwnerID: "alice", Status: jobs.JobStatusPending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].JobID != "1" {
		t.Errorf("combined filter = %+v", got)
	}
}

func TestStore_CopiesOnSaveAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &jobs.ExtractStatementJob{JobID: "1", Status: jobs.JobStatusPending}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("save: %v", err)
	}

	job.Status = jobs.JobStatusFailed

	got, err := store.GetJob(ctx, "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != jobs.JobStatusPending {
		t.Errorf("stored job mutated externally: %s", got.Status)
	}

	got.Status = jobs.JobStatusRunning
	again, _ := store.GetJob(ctx, "1")
	if again.Status != jobs.JobStatusPending {
		t.Errorf("returned job aliases stored state: %s", again.Status)
	}
}
