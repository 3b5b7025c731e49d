package client

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"alfredoptarigan/candidate-ranker/internal/models"
)

const (
	DefaultPollInterval = 15 * time.Second
	DefaultMaxRetries   = 18
)

var (
	// ErrPollInProgress is returned when Poll is called while another poll
	// of the same Poller is running.
	ErrPollInProgress = errors.New("a poll is already in progress")
	// ErrPollTimeout is returned when the job was still processing after
	// the last allowed attempt.
	ErrPollTimeout = errors.New("job did not finish in time")
)

// StatusChecker is the single status call the poller repeats.
type StatusChecker interface {
	Status(ctx context.Context, jobID string, candidates []models.Candidate) (*StatusReply, error)
}

type PollerOption func(*Poller)

func WithInterval(interval time.Duration) PollerOption {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

func WithMaxRetries(maxRetries int) PollerOption {
	return func(p *Poller) {
		if maxRetries > 0 {
			p.maxRetries = maxRetries
		}
	}
}

func WithLogger(log *zap.Logger) PollerOption {
	return func(p *Poller) {
		if log != nil {
			p.log = log
		}
	}
}

// Poller repeatedly checks a job until it settles. One Poller runs at most
// one poll at a time.
type Poller struct {
	checker    StatusChecker
	interval   time.Duration
	maxRetries int
	running    atomic.Bool
	log        *zap.Logger
}

func NewPoller(checker StatusChecker, opts ...PollerOption) *Poller {
	p := &Poller{
		checker:    checker,
		interval:   DefaultPollInterval,
		maxRetries: DefaultMaxRetries,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.Named("poller")
	return p
}

// Poll checks jobID immediately and then once per interval. It returns the
// ranked data on 200, ErrPollTimeout after maxRetries answers of 202, a
// *StatusError for any other answer and ErrTransport when the server could
// not be reached.
func (p *Poller) Poll(ctx context.Context, jobID string, candidates []models.Candidate) ([]models.ScoreResult, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrPollInProgress
	}
	defer p.running.Store(false)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		reply, err := p.checker.Status(ctx, jobID, candidates)
		if err != nil {
			p.log.Debug("❌ Status check failed", zap.String("job_id", jobID), zap.Int("attempt", attempt), zap.Error(err))
			return nil, err
		}

		if !reply.Processing() {
			p.log.Debug("✅ Job finished", zap.String("job_id", jobID), zap.Int("attempt", attempt))
			return reply.Data, nil
		}

		if attempt >= p.maxRetries {
			return nil, fmt.Errorf("%w: job %s still processing after %d checks", ErrPollTimeout, jobID, attempt)
		}

		p.log.Debug("⏳ Job still processing", zap.String("job_id", jobID), zap.Int("attempt", attempt))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
