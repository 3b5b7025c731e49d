package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"alfredoptarigan/candidate-ranker/internal/jobstore"
	"alfredoptarigan/candidate-ranker/internal/models"
	"alfredoptarigan/candidate-ranker/internal/repositories"
)

type fakeCandidateRepo struct {
	mu         sync.Mutex
	candidates map[string]models.Candidate
	err        error
}

func newFakeCandidateRepo() *fakeCandidateRepo {
	return &fakeCandidateRepo{candidates: map[string]models.Candidate{}}
}

func (f *fakeCandidateRepo) FindAll(context.Context) ([]models.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Candidate, 0, len(f.candidates))
	for _, c := range f.candidates {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCandidateRepo) Upsert(_ context.Context, candidates []models.Candidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, c := range candidates {
		if _, ok := f.candidates[c.CandidateID]; !ok {
			f.candidates[c.CandidateID] = c
		}
	}
	return nil
}

type fakeScoreRepo struct {
	mu     sync.Mutex
	scores []models.Score
	err    error
}

func (f *fakeScoreRepo) FindByJobHash(_ context.Context, jobHash string, candidateIDs []string) ([]models.Score, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	wanted := make(map[string]bool, len(candidateIDs))
	for _, id := range candidateIDs {
		wanted[id] = true
	}
	var out []models.Score
	for _, s := range f.scores {
		if s.JobHash == jobHash && (len(wanted) == 0 || wanted[s.CandidateID]) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeScoreRepo) SaveNew(_ context.Context, jobHash string, scores []models.Score) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var stored []string
	for _, s := range f.scores {
		if s.JobHash == jobHash {
			stored = append(stored, s.CandidateID)
		}
	}
	fresh := repositories.FilterUnsaved(scores, stored)
	f.scores = append(f.scores, fresh...)
	return len(fresh), nil
}

func (f *fakeScoreRepo) count(jobHash string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.scores {
		if s.JobHash == jobHash {
			n++
		}
	}
	return n
}

// fakeEngine gives every candidate a deterministic score derived from its
// position in the batch. fail makes the batch with the given first
// candidate id fail; gate blocks every call until closed.
type fakeEngine struct {
	mu    sync.Mutex
	calls int
	sizes []int
	fail  map[string]bool
	gate  chan struct{}
}

func (f *fakeEngine) ScoreBatch(ctx context.Context, _ string, batch []models.Candidate) ([]models.RawScore, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	f.calls++
	f.sizes = append(f.sizes, len(batch))
	f.mu.Unlock()

	if len(batch) > 0 && f.fail[batch[0].CandidateID] {
		return nil, errors.New("engine unavailable")
	}

	scores := make([]models.RawScore, 0, len(batch))
	for i, c := range batch {
		scores = append(scores, rawScore(c.CandidateID, 10+i, 5, 5, 5))
	}
	return scores, nil
}

func (f *fakeEngine) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func rawScore(id string, experience, education, alignment, completion int) models.RawScore {
	return models.RawScore{
		CandidateID: id,
		Highlights:  "highlights for " + id,
		ScoringDetails: models.ScoringDetails{
			OverallExperience: experience,
			Education:         education,
			QuestionAlignment: alignment,
			Completion:        completion,
		},
	}
}

func makeCandidates(n int) []models.Candidate {
	candidates := make([]models.Candidate, n)
	for i := range candidates {
		candidates[i] = models.Candidate{
			CandidateID:   fmt.Sprintf("c%02d", i),
			CandidateName: fmt.Sprintf("Candidate %d", i),
		}
	}
	return candidates
}

// downStore is a job store whose backend cannot be reached.
type downStore struct {
	jobstore.Store
}

func (downStore) Ping(context.Context) error { return jobstore.ErrUnavailable }
