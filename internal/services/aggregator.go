package services

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/candidate-ranker/internal/models"
)

// TopCandidates is the number of ranked entries returned to callers.
const TopCandidates = 30

// ToScoringInfo converts raw engine scores into composite scores for jobHash.
func ToScoringInfo(jobHash string, raw []models.RawScore, scoredAt time.Time) []models.Score {
	scores := make([]models.Score, 0, len(raw))
	for _, r := range raw {
		scores = append(scores, models.Score{
			ScoringID:      uuid.NewString(),
			CandidateID:    r.CandidateID,
			JobHash:        jobHash,
			GeneralScoring: r.Total(),
			Highlights:     r.Highlights,
			ScoringDetails: r.ScoringDetails,
			ScoredAt:       scoredAt,
		})
	}
	return scores
}

// TopScores sorts by composite score, highest first, keeping the input order
// on ties, and truncates to limit entries.
func TopScores(scores []models.Score, limit int) []models.Score {
	ranked := append([]models.Score(nil), scores...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].GeneralScoring > ranked[j].GeneralScoring
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// JoinCandidates attaches the candidate identity to every score. Scores
// without a matching candidate get the UnknownCandidateName placeholder.
func JoinCandidates(scores []models.Score, candidates []models.Candidate) []models.ScoreResult {
	byID := make(map[string]models.Candidate, len(candidates))
	for _, c := range candidates {
		if _, ok := byID[c.CandidateID]; !ok {
			byID[c.CandidateID] = c
		}
	}

	results := make([]models.ScoreResult, 0, len(scores))
	for _, s := range scores {
		candidate, ok := byID[s.CandidateID]
		if !ok {
			candidate = models.Candidate{
				CandidateID:   s.CandidateID,
				CandidateName: models.UnknownCandidateName,
			}
		}
		results = append(results, models.ScoreResult{Score: s, Candidate: candidate})
	}
	return results
}

// Aggregate ranks raw scores and joins the top entries with candidates.
func Aggregate(jobHash string, raw []models.RawScore, candidates []models.Candidate) []models.ScoreResult {
	scores := ToScoringInfo(jobHash, raw, time.Now())
	return JoinCandidates(TopScores(scores, TopCandidates), candidates)
}
