// Package jobstore keeps the ephemeral state of asynchronous scoring jobs.
//
// Every job lives under four keys sharing one TTL window that starts when
// the job is created and is never renewed:
//
//	<jobId>:status    processing | done | failed
//	<jobId>:results   append-only list of serialized RawScore
//	<jobId>:total     number of dispatched batches
//	<jobId>:finished  number of completed batches
package jobstore

import (
	"context"
	"errors"
	"time"

	"alfredoptarigan/candidate-ranker/internal/models"
)

// DefaultTTL bounds the lifetime of a job's keys.
const DefaultTTL = 5 * time.Minute

var (
	ErrUnavailable = errors.New("job store unavailable")
	ErrJobExists   = errors.New("job already in progress")
	ErrJobNotFound = errors.New("job not found")
)

type Store interface {
	Ping(ctx context.Context) error

	// CreateJob atomically initializes a job unless a non-done job already
	// exists for jobID, in which case ErrJobExists is returned. A new job
	// starts with seed as its results; a reused done job keeps its results
	// and seed is ignored.
	CreateJob(ctx context.Context, jobID string, totalBatches int, seed []models.RawScore) error

	// Status returns the job status and whether the job exists.
	Status(ctx context.Context, jobID string) (models.JobStatus, bool, error)

	Results(ctx context.Context, jobID string) ([]models.RawScore, error)

	// AppendResults appends to the results list without extending the TTL.
	AppendResults(ctx context.Context, jobID string, results []models.RawScore) error

	// CompleteBatch increments the finished counter and flips the job to
	// done when it reaches the total. completed is true only for the call
	// that performed the flip.
	CompleteBatch(ctx context.Context, jobID string) (finished int, completed bool, err error)

	// FailJob marks a processing job as failed. Terminal jobs are left as is.
	FailJob(ctx context.Context, jobID string) error

	// Clear removes every key of the job.
	Clear(ctx context.Context, jobID string) error

	// Job returns a snapshot of the job state.
	Job(ctx context.Context, jobID string) (*models.Job, error)
}

func statusKey(jobID string) string   { return jobID + ":status" }
func resultsKey(jobID string) string  { return jobID + ":results" }
func totalKey(jobID string) string    { return jobID + ":total" }
func finishedKey(jobID string) string { return jobID + ":finished" }
