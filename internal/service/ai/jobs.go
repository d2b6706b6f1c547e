package ai

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"moment/internal/domain"
)

// Job statuses as reported to the polling client.
const (
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// Job is one background transcription run. Result carries the transcript on
// completion and the error text on failure, which is what the app shows.
type Job struct {
	ID        string    `json:"job_id"`
	UserID    string    `json:"-"`
	Status    string    `json:"status"`
	Result    string    `json:"result,omitempty"`
	CreatedAt time.Time `json:"-"`
}

// jobTTL bounds how long finished jobs stay pollable. The app polls every
// few seconds, so an hour is generous.
const jobTTL = time.Hour

// JobRegistry tracks in-flight and recently finished jobs in memory. Jobs
// do not survive a restart; the app treats a vanished job as failed and
// re-submits.
type JobRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobRegistry creates an empty registry.
func NewJobRegistry() *JobRegistry {
	return &JobRegistry{jobs: make(map[string]*Job)}
}

// Create registers a new processing job owned by the given user.
func (r *JobRegistry) Create(userID string) *Job {
	job := &Job{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    JobProcessing,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.pruneLocked()
	r.jobs[job.ID] = job
	r.mu.Unlock()
	return job
}

// Get returns a copy of the job, scoped to its owner. Foreign and unknown
// ids both come back as not found.
func (r *JobRegistry) Get(userID, jobID string) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[jobID]
	if !ok || job.UserID != userID {
		return nil, fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
	}
	copied := *job
	return &copied, nil
}

// Complete marks the job done with the given result.
func (r *JobRegistry) Complete(jobID, result string) {
	r.setStatus(jobID, JobCompleted, result)
}

// Fail marks the job failed with the error text.
func (r *JobRegistry) Fail(jobID, reason string) {
	r.setStatus(jobID, JobFailed, reason)
}

func (r *JobRegistry) setStatus(jobID, status, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[jobID]; ok {
		job.Status = status
		job.Result = result
	}
}

func (r *JobRegistry) pruneLocked() {
	cutoff := time.Now().UTC().Add(-jobTTL)
	for id, job := range r.jobs {
		if job.Status != JobProcessing && job.CreatedAt.Before(cutoff) {
			delete(r.jobs, id)
		}
	}
}
