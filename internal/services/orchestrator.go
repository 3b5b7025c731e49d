package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"alfredoptarigan/candidate-ranker/internal/jobstore"
	"alfredoptarigan/candidate-ranker/internal/models"
	"alfredoptarigan/candidate-ranker/internal/repositories"
)

// DefaultMaxJobDescriptionLength bounds the accepted job description.
const DefaultMaxJobDescriptionLength = 200

type ScoreMode string

const (
	// ScoreModeCached means every candidate already had a score.
	ScoreModeCached ScoreMode = "cached"
	// ScoreModeAsync means batches run in the background under JobID.
	ScoreModeAsync ScoreMode = "async"
	// ScoreModeSync means the job store was unavailable and batches were
	// scored sequentially while the caller waited.
	ScoreModeSync ScoreMode = "sync"
)

type ScoreOutcome struct {
	Mode       ScoreMode
	JobID      string
	Results    []models.ScoreResult
	Candidates []models.Candidate
	// Handles are the dispatched batches of an async job. Callers may join
	// them or drop them.
	Handles []*TaskHandle
}

type Orchestrator interface {
	Score(ctx context.Context, jobDescription string, candidates []models.Candidate) (*ScoreOutcome, error)
	CreateOrReuseJob(ctx context.Context, jobDescription string, totalBatches int, seed []models.RawScore) (string, error)
}

type OrchestratorConfig struct {
	MaxJobDescriptionLength int
}

type orchestrator struct {
	store     jobstore.Store
	resolver  DedupResolver
	engine    ScoringEngine
	worker    Worker
	persister *resultPersister
	recorder  Recorder
	maxJDLen  int
	log       *zap.Logger
}

// NewOrchestrator wires the scoring pipeline. store may be nil, in which
// case every request takes the synchronous path.
func NewOrchestrator(
	store jobstore.Store,
	resolver DedupResolver,
	engine ScoringEngine,
	worker Worker,
	candidateRepo repositories.CandidateRepository,
	scoreRepo repositories.ScoreRepository,
	recorder Recorder,
	cfg OrchestratorConfig,
	log *zap.Logger,
) Orchestrator {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if cfg.MaxJobDescriptionLength <= 0 {
		cfg.MaxJobDescriptionLength = DefaultMaxJobDescriptionLength
	}
	return &orchestrator{
		store:    store,
		resolver: resolver,
		engine:   engine,
		worker:   worker,
		persister: &resultPersister{
			candidateRepo: candidateRepo,
			scoreRepo:     scoreRepo,
		},
		recorder: recorder,
		maxJDLen: cfg.MaxJobDescriptionLength,
		log:      log.Named("orchestrator"),
	}
}

// ValidateJobDescription rejects empty or oversized job descriptions.
func ValidateJobDescription(jobDescription string, maxLen int) error {
	if strings.TrimSpace(jobDescription) == "" {
		return fmt.Errorf("%w: job description is required", ErrInvalidJobDescription)
	}
	if maxLen > 0 && utf8.RuneCountInString(jobDescription) > maxLen {
		return fmt.Errorf("%w: job description exceeds %d characters", ErrInvalidJobDescription, maxLen)
	}
	return nil
}

// Score implements Orchestrator.
func (o *orchestrator) Score(ctx context.Context, jobDescription string, candidates []models.Candidate) (*ScoreOutcome, error) {
	if err := ValidateJobDescription(jobDescription, o.maxJDLen); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrMissingCandidates
	}

	async := o.storeAvailable(ctx)

	res, err := o.resolver.Resolve(ctx, jobDescription, candidates, async)
	if err != nil {
		return nil, err
	}

	if len(res.NeedsScoring) == 0 {
		o.log.Info("📋 All candidates already scored", zap.String("job_hash", res.JobHash), zap.String("source", res.Source))
		return &ScoreOutcome{
			Mode:       ScoreModeCached,
			Results:    Aggregate(res.JobHash, res.AlreadyScored, candidates),
			Candidates: candidates,
		}, nil
	}

	if !async {
		return o.scoreSync(ctx, jobDescription, candidates, res)
	}
	return o.scoreAsync(ctx, jobDescription, candidates, res)
}

func (o *orchestrator) storeAvailable(ctx context.Context) bool {
	if o.store == nil {
		return false
	}
	if err := o.store.Ping(ctx); err != nil {
		o.log.Warn("⚠️  Job store not available, using synchronous scoring", zap.Error(err))
		return false
	}
	return true
}

// CreateOrReuseJob implements Orchestrator. A job that is done may be
// reused; any other existing job is a conflict.
func (o *orchestrator) CreateOrReuseJob(ctx context.Context, jobDescription string, totalBatches int, seed []models.RawScore) (string, error) {
	if o.store == nil {
		return "", ErrJobStoreUnavailable
	}

	jobID := HashJobDescription(jobDescription)
	if err := o.store.CreateJob(ctx, jobID, totalBatches, seed); err != nil {
		if errors.Is(err, jobstore.ErrJobExists) {
			o.recorder.JobConflict()
			return "", &JobInProgressError{JobID: jobID}
		}
		return "", fmt.Errorf("failed to create job: %w", err)
	}

	o.recorder.JobCreated()
	return jobID, nil
}

func (o *orchestrator) scoreAsync(ctx context.Context, jobDescription string, candidates []models.Candidate, res *Resolution) (*ScoreOutcome, error) {
	batches := SplitInBatches(res.NeedsScoring, BatchSize)

	jobID, err := o.CreateOrReuseJob(ctx, jobDescription, len(batches), res.AlreadyScored)
	if err != nil {
		return nil, err
	}

	o.log.Info("📥 Job created",
		zap.String("job_id", jobID),
		zap.Int("candidates", len(res.NeedsScoring)),
		zap.Int("batches", len(batches)),
		zap.Int("already_scored", len(res.AlreadyScored)),
	)

	handles := make([]*TaskHandle, 0, len(batches))
	for i, batch := range batches {
		handle, err := o.worker.Submit(ctx, BatchTask{
			JobID:          jobID,
			JobDescription: jobDescription,
			Index:          i,
			Batch:          batch,
		})
		if err != nil {
			if failErr := o.store.FailJob(context.WithoutCancel(ctx), jobID); failErr != nil {
				o.log.Error("❌ Failed to mark job failed", zap.String("job_id", jobID), zap.Error(failErr))
			}
			return nil, fmt.Errorf("failed to dispatch job %s: %w", jobID, err)
		}
		handles = append(handles, handle)
	}

	return &ScoreOutcome{
		Mode:       ScoreModeAsync,
		JobID:      jobID,
		Candidates: candidates,
		Handles:    handles,
	}, nil
}

// scoreSync processes batches one after another and blocks the caller. It
// never touches the job store.
func (o *orchestrator) scoreSync(ctx context.Context, jobDescription string, candidates []models.Candidate, res *Resolution) (*ScoreOutcome, error) {
	o.recorder.SyncFallback()
	batches := SplitInBatches(res.NeedsScoring, BatchSize)

	o.log.Info("⏳ Scoring synchronously, this may take a while",
		zap.String("job_hash", res.JobHash),
		zap.Int("candidates", len(res.NeedsScoring)),
		zap.Int("batches", len(batches)),
	)

	raw := append([]models.RawScore(nil), res.AlreadyScored...)
	for i, batch := range batches {
		started := time.Now()
		scores, err := o.engine.ScoreBatch(ctx, jobDescription, batch)
		if err != nil {
			o.recorder.BatchFailed()
			return nil, fmt.Errorf("failed to score batch %d: %w", i, err)
		}
		o.recorder.BatchCompleted(time.Since(started))
		raw = append(raw, scores...)
	}

	scores := ToScoringInfo(res.JobHash, raw, time.Now())
	if saved, err := o.persister.persist(ctx, res.JobHash, candidates, scores); err != nil {
		o.log.Warn("⚠️  Unable to store results on database", zap.String("job_hash", res.JobHash), zap.Error(err))
	} else {
		o.log.Debug("💾 Results stored", zap.String("job_hash", res.JobHash), zap.Int("saved", saved))
	}

	return &ScoreOutcome{
		Mode:       ScoreModeSync,
		Results:    JoinCandidates(TopScores(scores, TopCandidates), candidates),
		Candidates: candidates,
	}, nil
}
