package models

import (
	"time"
)

// ScoringDetails holds the four dimensions produced by the scoring engine.
type ScoringDetails struct {
	OverallExperience int `json:"overallExperience"` // 0-50
	Education         int `json:"education"`         // 0-20
	QuestionAlignment int `json:"questionAlignment"` // 0-20
	Completion        int `json:"completion"`        // 0-10
}

// Total is the composite score, the plain sum of the four dimensions.
func (d ScoringDetails) Total() int {
	return d.OverallExperience + d.Education + d.QuestionAlignment + d.Completion
}

// RawScore is a single candidate score as returned by the scoring engine.
type RawScore struct {
	CandidateID string `json:"candidateId"`
	Highlights  string `json:"highlights"`
	ScoringDetails
}

// Score is the composite score persisted in the durable store.
type Score struct {
	ScoringID      string         `gorm:"column:scoring_id;type:text;primaryKey" json:"scoringId"`
	CandidateID    string         `gorm:"column:candidate_id;type:text;not null;uniqueIndex:idx_scores_job_candidate,priority:2" json:"candidateId"`
	JobHash        string         `gorm:"column:job_hash;type:text;not null;uniqueIndex:idx_scores_job_candidate,priority:1" json:"jobHash"`
	GeneralScoring int            `gorm:"column:general_scoring;not null" json:"generalScoring"`
	Highlights     string         `gorm:"type:text" json:"highlights"`
	ScoringDetails ScoringDetails `gorm:"column:scoring_details;type:jsonb;serializer:json" json:"scoringDetails"`
	ScoredAt       time.Time      `gorm:"column:scored_at;not null;default:now()" json:"scoredAt"`

	// Relations
	Candidate Candidate `gorm:"foreignKey:CandidateID;references:CandidateID" json:"-"`
}

func (Score) TableName() string {
	return "scores"
}

// Raw converts a stored score back to the engine representation.
func (s Score) Raw() RawScore {
	return RawScore{
		CandidateID:    s.CandidateID,
		Highlights:     s.Highlights,
		ScoringDetails: s.ScoringDetails,
	}
}

// ScoreResult is a ranked score joined with the candidate identity.
type ScoreResult struct {
	Score
	Candidate Candidate `json:"candidate"`
}
