package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"alfredoptarigan/candidate-ranker/internal/jobstore"
	"alfredoptarigan/candidate-ranker/internal/models"
	"alfredoptarigan/candidate-ranker/internal/repositories"
)

// Resolution splits a candidate set into the candidates that still need a
// score and the scores already known for the job description.
type Resolution struct {
	JobHash       string
	NeedsScoring  []models.Candidate
	AlreadyScored []models.RawScore
	// Source is "cache", "store" or "" when nothing was found.
	Source string
}

type DedupResolver interface {
	// Resolve looks up existing scores. When useCache is false the job store
	// tier is skipped.
	Resolve(ctx context.Context, jobDescription string, candidates []models.Candidate, useCache bool) (*Resolution, error)
}

type dedupResolver struct {
	store     jobstore.Store
	scoreRepo repositories.ScoreRepository
	log       *zap.Logger
}

func NewDedupResolver(store jobstore.Store, scoreRepo repositories.ScoreRepository, log *zap.Logger) DedupResolver {
	return &dedupResolver{
		store:     store,
		scoreRepo: scoreRepo,
		log:       log.Named("dedup"),
	}
}

// Resolve implements DedupResolver.
//
// A non-empty cache hit is authoritative: the durable store is only consulted
// when the cache returns nothing, and hits from both tiers are never merged.
func (d *dedupResolver) Resolve(ctx context.Context, jobDescription string, candidates []models.Candidate, useCache bool) (*Resolution, error) {
	jobHash := HashJobDescription(jobDescription)

	if useCache && d.store != nil {
		cached, err := d.store.Results(ctx, jobHash)
		if err != nil {
			d.log.Warn("⚠️  Cache lookup failed, falling back to durable store", zap.String("job_hash", jobHash), zap.Error(err))
		} else if len(cached) > 0 {
			res := split(jobHash, candidates, cached)
			res.Source = "cache"
			d.log.Debug("🔍 Resolved scores from cache",
				zap.String("job_hash", jobHash),
				zap.Int("already_scored", len(res.AlreadyScored)),
				zap.Int("needs_scoring", len(res.NeedsScoring)),
			)
			return res, nil
		}
	}

	stored, err := d.scoreRepo.FindByJobHash(ctx, jobHash, models.CandidateIDs(candidates))
	if err != nil {
		return nil, fmt.Errorf("failed to look up stored scores: %w", err)
	}

	raw := make([]models.RawScore, 0, len(stored))
	for _, s := range stored {
		raw = append(raw, s.Raw())
	}

	res := split(jobHash, candidates, raw)
	if len(res.AlreadyScored) > 0 {
		res.Source = "store"
	}
	d.log.Debug("🔍 Resolved scores from durable store",
		zap.String("job_hash", jobHash),
		zap.Int("already_scored", len(res.AlreadyScored)),
		zap.Int("needs_scoring", len(res.NeedsScoring)),
	)
	return res, nil
}

// split keeps the scores that belong to the candidate set, one per candidate,
// and returns the remaining candidates as needing a score.
func split(jobHash string, candidates []models.Candidate, scored []models.RawScore) *Resolution {
	wanted := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		wanted[c.CandidateID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(scored))
	already := make([]models.RawScore, 0, len(scored))
	for _, s := range scored {
		if _, ok := wanted[s.CandidateID]; !ok {
			continue
		}
		if _, dup := seen[s.CandidateID]; dup {
			continue
		}
		seen[s.CandidateID] = struct{}{}
		already = append(already, s)
	}

	needs := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.CandidateID]; ok {
			continue
		}
		needs = append(needs, c)
	}

	return &Resolution{
		JobHash:       jobHash,
		NeedsScoring:  needs,
		AlreadyScored: already,
	}
}
