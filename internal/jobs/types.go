// Package jobs defines the asynchronous work the API hands off to the
// worker: statement extraction runs. The Publisher/Consumer/JobStore split
// keeps the queue implementation swappable; the in-memory one under
// inmemory/ serves single-instance deployments.
package jobs

import (
	"context"
	"time"

	"github.com/ddaros/financas/internal/extraction"
)

// JobType identifies what kind of work a job carries.
type JobType string

const (
	JobTypeExtractStatement JobType = "extract_statement"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// ExtractStatementJob asks the worker to run the extraction pipeline over
// one uploaded statement document.
type ExtractStatementJob struct {
	JobID string `json:"job_id"`

	OwnerID    string `json:"owner_id"`
	DocumentID string `json:"document_id"`
	GCSURI     string `json:"gcs_uri"`
	MimeType   string `json:"mime_type,omitempty"`

	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`

	// Result holds the review-ready candidates once the job completes.
	Result *extraction.Result `json:"result,omitempty"`
}

// Job is the generic surface queue internals work against.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *ExtractStatementJob) GetID() string        { return j.JobID }
func (j *ExtractStatementJob) GetType() JobType     { return JobTypeExtractStatement }
func (j *ExtractStatementJob) GetStatus() JobStatus { return j.Status }

// Publisher enqueues extraction jobs.
type Publisher interface {
	PublishExtractStatement(ctx context.Context, job *ExtractStatementJob) error
	Close() error
}

// Consumer pulls jobs off the queue and runs them through a handler.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error schedules a retry until
// MaxRetries is exhausted.
type JobHandler func(ctx context.Context, job Job) error

// JobStore tracks job state so the API can report progress and results.
type JobStore interface {
	SaveJob(ctx context.Context, job *ExtractStatementJob) error
	GetJob(ctx context.Context, jobID string) (*ExtractStatementJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*ExtractStatementJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter narrows ListJobs results.
type JobFilter struct {
	OwnerID    string
	DocumentID string
	Status     JobStatus
	Limit      int
	Offset     int
}
