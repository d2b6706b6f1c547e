package ai

import (
	"errors"
	"testing"

	"moment/internal/domain"
)

func TestJobRegistryLifecycle(t *testing.T) {
	r := NewJobRegistry()

	job := r.Create("user-1")
	if job.ID == "" {
		t.Fatal("job has no id")
	}
	if job.Status != JobProcessing {
		t.Fatalf("status = %q, want %q", job.Status, JobProcessing)
	}

	got, err := r.Get("user-1", job.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Status != JobProcessing {
		t.Errorf("status = %q, want %q", got.Status, JobProcessing)
	}

	r.Complete(job.ID, "the transcript")
	got, err = r.Get("user-1", job.ID)
	if err != nil {
		t.Fatalf("Get() after complete: %v", err)
	}
	if got.Status != JobCompleted || got.Result != "the transcript" {
		t.Errorf("got status=%q result=%q, want completed transcript", got.Status, got.Result)
	}
}

func TestJobRegistryFailSetsReason(t *testing.T) {
	r := NewJobRegistry()
	job := r.Create("user-1")

	r.Fail(job.ID, "audio unreadable")
	got, err := r.Get("user-1", job.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Status != JobFailed || got.Result != "audio unreadable" {
		t.Errorf("got status=%q result=%q, want failed with reason", got.Status, got.Result)
	}
}

func TestJobRegistryScopedToOwner(t *testing.T) {
	r := NewJobRegistry()
	job := r.Create("alice")

	if _, err := r.Get("mallory", job.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("foreign Get() error = %v, want ErrNotFound", err)
	}
	if _, err := r.Get("alice", "no-such-job"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown Get() error = %v, want ErrNotFound", err)
	}
}

func TestJobRegistryReturnsCopies(t *testing.T) {
	r := NewJobRegistry()
	job := r.Create("user-1")

	got, err := r.Get("user-1", job.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	got.Status = "mangled"

	again, err := r.Get("user-1", job.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if again.Status != JobProcessing {
		t.Errorf("caller mutation leaked into registry: status = %q", again.Status)
	}
}
