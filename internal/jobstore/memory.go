package jobstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"alfredoptarigan/candidate-ranker/internal/models"
)

type memoryJob struct {
	status    models.JobStatus
	total     int
	finished  int
	results   []models.RawScore
	expiresAt time.Time
}

// MemoryStore is an in-process Store. It honours the same TTL rules as the
// Redis store and is meant for single-instance deployments and tests.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*memoryJob
	ttl  time.Duration
	now  func() time.Time
}

type MemoryOption func(*MemoryStore)

// WithClock replaces the time source used for expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		jobs: make(map[string]*memoryJob),
		ttl:  ttl,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// lookup returns the live job, evicting it when expired. Must hold s.mu.
func (s *MemoryStore) lookup(jobID string) *memoryJob {
	job, ok := s.jobs[jobID]
	if !ok {
		return nil
	}
	if !s.now().Before(job.expiresAt) {
		delete(s.jobs, jobID)
		return nil
	}
	return job
}

func (s *MemoryStore) CreateJob(ctx context.Context, jobID string, totalBatches int, seed []models.RawScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job := s.lookup(jobID); job != nil {
		if job.status != models.JobStatusDone {
			return fmt.Errorf("%w: %s is %s", ErrJobExists, jobID, job.status)
		}
		job.status = models.JobStatusProcessing
		job.total = totalBatches
		job.finished = 0
		job.expiresAt = s.now().Add(s.ttl)
		return nil
	}

	s.jobs[jobID] = &memoryJob{
		status:    models.JobStatusProcessing,
		total:     totalBatches,
		results:   append([]models.RawScore(nil), seed...),
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) Status(ctx context.Context, jobID string) (models.JobStatus, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := s.lookup(jobID)
	if job == nil {
		return "", false, nil
	}
	return job.status, true, nil
}

func (s *MemoryStore) Results(ctx context.Context, jobID string) ([]models.RawScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := s.lookup(jobID)
	if job == nil {
		return []models.RawScore{}, nil
	}
	return append([]models.RawScore(nil), job.results...), nil
}

func (s *MemoryStore) AppendResults(ctx context.Context, jobID string, results []models.RawScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := s.lookup(jobID)
	if job == nil {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	job.results = append(job.results, results...)
	return nil
}

func (s *MemoryStore) CompleteBatch(ctx context.Context, jobID string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := s.lookup(jobID)
	if job == nil {
		return 0, false, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	job.finished++
	if job.finished >= job.total && job.status == models.JobStatusProcessing {
		job.status = models.JobStatusDone
		return job.finished, true, nil
	}
	return job.finished, false, nil
}

func (s *MemoryStore) FailJob(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job := s.lookup(jobID); job != nil && job.status == models.JobStatusProcessing {
		job.status = models.JobStatusFailed
	}
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.jobs, jobID)
	return nil
}

func (s *MemoryStore) Job(ctx context.Context, jobID string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := s.lookup(jobID)
	if job == nil {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return &models.Job{
		ID:              jobID,
		Status:          job.status,
		TotalBatches:    job.total,
		FinishedBatches: job.finished,
		Results:         append([]models.RawScore(nil), job.results...),
	}, nil
}
