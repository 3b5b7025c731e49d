package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/candidate-ranker/internal/models"
)

type CandidateRepository interface {
	FindAll(ctx context.Context) ([]models.Candidate, error)
	Upsert(ctx context.Context, candidates []models.Candidate) error
}

type candidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

// FindAll implements CandidateRepository.
func (r *candidateRepository) FindAll(ctx context.Context) ([]models.Candidate, error) {
	var candidates []models.Candidate
	if err := r.db.WithContext(ctx).Order("candidate_id ASC").Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to find candidates: %w", err)
	}
	return candidates, nil
}

// Upsert implements CandidateRepository. Existing rows are left untouched.
func (r *candidateRepository) Upsert(ctx context.Context, candidates []models.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(candidates, 100).Error
	if err != nil {
		return fmt.Errorf("failed to upsert candidates: %w", err)
	}
	return nil
}
