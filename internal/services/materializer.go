package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/candidate-ranker/internal/jobstore"
	"alfredoptarigan/candidate-ranker/internal/models"
	"alfredoptarigan/candidate-ranker/internal/repositories"
)

type JobState string

const (
	JobStateProcessing JobState = "processing"
	JobStateDone       JobState = "done"
	JobStateFailed     JobState = "failed"
	JobStateNotFound   JobState = "not_found"
)

// JobOutcome is the result of a status check. Data is only set for
// JobStateDone; Reason explains failed and not found states.
type JobOutcome struct {
	State  JobState
	JobID  string
	Data   []models.ScoreResult
	Reason string

	// Batch progress, only set while processing.
	FinishedBatches int
	TotalBatches    int
}

type Materializer interface {
	// Fetch reads the job state. A done job is persisted, cleared and
	// returned exactly once: fetching it again yields JobStateNotFound.
	// Concurrent fetches of the same done job are not serialized and may
	// both return the data before either clears it; SaveNew keeps the
	// durable rows unique.
	Fetch(ctx context.Context, jobID string, candidates []models.Candidate) (*JobOutcome, error)
}

type materializer struct {
	store     jobstore.Store
	persister *resultPersister
	recorder  Recorder
	log       *zap.Logger
}

func NewMaterializer(
	store jobstore.Store,
	candidateRepo repositories.CandidateRepository,
	scoreRepo repositories.ScoreRepository,
	recorder Recorder,
	log *zap.Logger,
) Materializer {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &materializer{
		store: store,
		persister: &resultPersister{
			candidateRepo: candidateRepo,
			scoreRepo:     scoreRepo,
		},
		recorder: recorder,
		log:      log.Named("materializer"),
	}
}

// Fetch implements Materializer.
func (m *materializer) Fetch(ctx context.Context, jobID string, candidates []models.Candidate) (*JobOutcome, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, ErrMissingJobID
	}
	if len(candidates) == 0 {
		return nil, ErrMissingCandidates
	}
	if m.store == nil {
		return nil, ErrJobStoreUnavailable
	}

	status, found, err := m.store.Status(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJobStoreUnavailable, err)
	}

	outcome, err := m.resolve(ctx, jobID, status, found, candidates)
	if err != nil {
		return nil, err
	}
	m.recorder.JobFetched(string(outcome.State))
	return outcome, nil
}

func (m *materializer) resolve(ctx context.Context, jobID string, status models.JobStatus, found bool, candidates []models.Candidate) (*JobOutcome, error) {
	if !found {
		return &JobOutcome{State: JobStateNotFound, JobID: jobID, Reason: "Job not found"}, nil
	}

	switch status {
	case models.JobStatusProcessing:
		outcome := &JobOutcome{State: JobStateProcessing, JobID: jobID}
		job, err := m.store.Job(ctx, jobID)
		if err != nil {
			m.log.Warn("⚠️ Could not read job progress", zap.String("job_id", jobID), zap.Error(err))
			return outcome, nil
		}
		if job != nil {
			outcome.FinishedBatches = job.FinishedBatches
			outcome.TotalBatches = job.TotalBatches
		}
		return outcome, nil

	case models.JobStatusFailed:
		if err := m.store.Clear(ctx, jobID); err != nil {
			return nil, fmt.Errorf("failed to clear failed job: %w", err)
		}
		m.log.Info("🧹 Failed job cleared", zap.String("job_id", jobID))
		return &JobOutcome{State: JobStateFailed, JobID: jobID, Reason: "Job failed"}, nil

	case models.JobStatusDone:
		return m.materialize(ctx, jobID, candidates)

	default:
		return nil, fmt.Errorf("job %s has unknown status %q", jobID, status)
	}
}

// materialize persists a done job, clears its ephemeral state and ranks the
// results. The job is only cleared once persistence succeeded.
func (m *materializer) materialize(ctx context.Context, jobID string, candidates []models.Candidate) (*JobOutcome, error) {
	raw, err := m.store.Results(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to read job results: %w", err)
	}

	scores := ToScoringInfo(jobID, raw, time.Now())
	saved, err := m.persister.persist(ctx, jobID, candidates, scores)
	if err != nil {
		return nil, err
	}

	if err := m.store.Clear(ctx, jobID); err != nil {
		return nil, fmt.Errorf("failed to clear job: %w", err)
	}

	m.log.Info("💾 Job materialized",
		zap.String("job_id", jobID),
		zap.Int("results", len(raw)),
		zap.Int("saved", saved),
	)

	return &JobOutcome{
		State: JobStateDone,
		JobID: jobID,
		Data:  JoinCandidates(TopScores(scores, TopCandidates), candidates),
	}, nil
}
