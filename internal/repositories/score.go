package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/candidate-ranker/internal/models"
)

type ScoreRepository interface {
	// FindByJobHash returns the stored scores for a job description hash,
	// restricted to candidateIDs when it is not empty.
	FindByJobHash(ctx context.Context, jobHash string, candidateIDs []string) ([]models.Score, error)
	// SaveNew inserts the scores whose candidate has no stored score for
	// the same hash yet and returns how many rows were written.
	SaveNew(ctx context.Context, jobHash string, scores []models.Score) (int, error)
}

type scoreRepository struct {
	db *gorm.DB
}

func NewScoreRepository(db *gorm.DB) ScoreRepository {
	return &scoreRepository{db: db}
}

func (r *scoreRepository) FindByJobHash(ctx context.Context, jobHash string, candidateIDs []string) ([]models.Score, error) {
	var scores []models.Score

	query := r.db.WithContext(ctx).Where("job_hash = ?", jobHash)
	if len(candidateIDs) > 0 {
		query = query.Where("candidate_id IN ?", candidateIDs)
	}

	if err := query.Order("scored_at ASC").Find(&scores).Error; err != nil {
		return nil, fmt.Errorf("failed to find scores: %w", err)
	}
	return scores, nil
}

func (r *scoreRepository) SaveNew(ctx context.Context, jobHash string, scores []models.Score) (int, error) {
	if len(scores) == 0 {
		return 0, nil
	}

	var saved int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []string
		if err := tx.Model(&models.Score{}).
			Where("job_hash = ?", jobHash).
			Pluck("candidate_id", &existing).Error; err != nil {
			return fmt.Errorf("failed to load stored scores: %w", err)
		}

		toSave := FilterUnsaved(scores, existing)
		if len(toSave) == 0 {
			return nil
		}

		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&toSave).Error; err != nil {
			return fmt.Errorf("failed to save scores: %w", err)
		}
		saved = len(toSave)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return saved, nil
}

// FilterUnsaved drops scores whose candidate id is already stored, keeping
// the first occurrence of each remaining candidate.
func FilterUnsaved(scores []models.Score, storedIDs []string) []models.Score {
	seen := make(map[string]struct{}, len(storedIDs)+len(scores))
	for _, id := range storedIDs {
		seen[id] = struct{}{}
	}

	result := make([]models.Score, 0, len(scores))
	for _, s := range scores {
		if _, ok := seen[s.CandidateID]; ok {
			continue
		}
		seen[s.CandidateID] = struct{}{}
		result = append(result, s)
	}
	return result
}
