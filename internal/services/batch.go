package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/candidate-ranker/internal/jobstore"
)

type batchProcessor struct {
	store    jobstore.Store
	engine   ScoringEngine
	recorder Recorder
	log      *zap.Logger
}

// NewBatchProcessor returns the completion handler for dispatched batches.
//
// Failure policy is fail-fast: any error in a batch marks the whole job
// failed. Batches that already succeeded are not rolled back and failed
// batches are not retried.
func NewBatchProcessor(store jobstore.Store, engine ScoringEngine, recorder Recorder, log *zap.Logger) BatchProcessor {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &batchProcessor{
		store:    store,
		engine:   engine,
		recorder: recorder,
		log:      log.Named("batch"),
	}
}

// ProcessBatch implements BatchProcessor.
func (p *batchProcessor) ProcessBatch(ctx context.Context, task BatchTask) (err error) {
	started := time.Now()
	log := p.log.With(zap.String("job_id", task.JobID), zap.Int("batch", task.Index))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("batch panicked: %v", r)
		}
		if err != nil {
			p.recorder.BatchFailed()
			log.Error("❌ Batch processing error, failing job", zap.Error(err))
			if failErr := p.store.FailJob(context.WithoutCancel(ctx), task.JobID); failErr != nil {
				log.Error("❌ Failed to mark job failed", zap.Error(failErr))
			}
		}
	}()

	scores, err := p.engine.ScoreBatch(ctx, task.JobDescription, task.Batch)
	if err != nil {
		return fmt.Errorf("batch %d: %w", task.Index, err)
	}

	if err := p.store.AppendResults(ctx, task.JobID, scores); err != nil {
		return fmt.Errorf("batch %d: %w", task.Index, err)
	}

	finished, completed, err := p.store.CompleteBatch(ctx, task.JobID)
	if err != nil {
		return fmt.Errorf("batch %d: %w", task.Index, err)
	}

	p.recorder.BatchCompleted(time.Since(started))
	log.Info("✅ Batch completed", zap.Int("finished", finished), zap.Int("scores", len(scores)))
	if completed {
		log.Info("🏁 Job done")
	}
	return nil
}
