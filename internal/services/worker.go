package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"alfredoptarigan/candidate-ranker/internal/models"
)

var ErrWorkerStopped = errors.New("worker stopped")

// BatchTask is one batch of a job dispatched to the scoring engine.
type BatchTask struct {
	JobID          string
	JobDescription string
	Index          int
	Batch          []models.Candidate
}

// BatchProcessor runs a single batch task to completion.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, task BatchTask) error
}

// TaskHandle is owned by whoever submitted the task and can be joined.
type TaskHandle struct {
	done chan struct{}
	err  error
}

func newTaskHandle() *TaskHandle {
	return &TaskHandle{done: make(chan struct{})}
}

func (h *TaskHandle) finish(err error) {
	h.err = err
	close(h.done)
}

// Done is closed once the task settles.
func (h *TaskHandle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the task settles or ctx is done.
func (h *TaskHandle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitAll joins every handle and returns the errors joined together.
func WaitAll(ctx context.Context, handles []*TaskHandle) error {
	var errs []error
	for _, h := range handles {
		if err := h.Wait(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Worker interface {
	Start(ctx context.Context)
	// Stop refuses new tasks and waits until every queued task settled.
	Stop()
	Submit(ctx context.Context, task BatchTask) (*TaskHandle, error)
}

type queuedTask struct {
	task   BatchTask
	handle *TaskHandle
}

type worker struct {
	processor   BatchProcessor
	jobQueue    chan queuedTask
	concurrency int
	wg          sync.WaitGroup
	mu          sync.RWMutex
	stopped     bool
	stopOnce    sync.Once
	recorder    Recorder
	log         *zap.Logger
}

func NewWorker(
	processor BatchProcessor,
	concurrency int,
	queueSize int,
	recorder Recorder,
	log *zap.Logger,
) Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &worker{
		processor:   processor,
		jobQueue:    make(chan queuedTask, queueSize),
		concurrency: concurrency,
		recorder:    recorder,
		log:         log.Named("worker"),
	}
}

// Start implements Worker. Tasks run with ctx, not with the context of the
// request that submitted them.
func (w *worker) Start(ctx context.Context) {
	w.log.Info("🚀 Starting worker", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.log.Info("🛑 Stopping worker, draining queued batches...")
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		close(w.jobQueue)
		w.mu.Unlock()
	})
	w.wg.Wait()
	w.log.Info("✅ Worker stopped")
}

// Submit implements Worker.
func (w *worker) Submit(ctx context.Context, task BatchTask) (*TaskHandle, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return nil, fmt.Errorf("%w: cannot enqueue batch %d of job %s", ErrWorkerStopped, task.Index, task.JobID)
	}

	handle := newTaskHandle()
	select {
	case w.jobQueue <- queuedTask{task: task, handle: handle}:
		w.recorder.QueueDepth(len(w.jobQueue))
		return handle, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to enqueue batch %d of job %s: %w", task.Index, task.JobID, ctx.Err())
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for item := range w.jobQueue {
		w.recorder.QueueDepth(len(w.jobQueue))
		w.log.Debug("👷 Processing batch",
			zap.Int("worker", workerID),
			zap.String("job_id", item.task.JobID),
			zap.Int("batch", item.task.Index),
		)
		item.handle.finish(w.processor.ProcessBatch(ctx, item.task))
	}

	w.log.Debug("👷 Worker stopped", zap.Int("worker", workerID))
}
