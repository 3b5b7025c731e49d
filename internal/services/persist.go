package services

import (
	"context"
	"fmt"

	"alfredoptarigan/candidate-ranker/internal/models"
	"alfredoptarigan/candidate-ranker/internal/repositories"
)

type resultPersister struct {
	candidateRepo repositories.CandidateRepository
	scoreRepo     repositories.ScoreRepository
}

// persist stores the candidates and every score not yet saved for jobHash.
// Candidates are written first since scores reference them.
func (p *resultPersister) persist(ctx context.Context, jobHash string, candidates []models.Candidate, scores []models.Score) (int, error) {
	if err := p.candidateRepo.Upsert(ctx, candidates); err != nil {
		return 0, fmt.Errorf("failed to persist candidates: %w", err)
	}

	known := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		known[c.CandidateID] = struct{}{}
	}
	toSave := make([]models.Score, 0, len(scores))
	for _, s := range scores {
		if _, ok := known[s.CandidateID]; ok {
			toSave = append(toSave, s)
		}
	}

	saved, err := p.scoreRepo.SaveNew(ctx, jobHash, toSave)
	if err != nil {
		return 0, fmt.Errorf("failed to persist scores: %w", err)
	}
	return saved, nil
}
