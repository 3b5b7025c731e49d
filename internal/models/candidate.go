package models

import (
	"gorm.io/datatypes"
)

// UnknownCandidateName is shown when a score has no matching candidate record.
const UnknownCandidateName = "Unknown"

// Candidate is owned by the ingestion side. Only CandidateID and CandidateName
// are read here; the profile fields are passed through to the scoring engine.
type Candidate struct {
	CandidateID   string         `gorm:"column:candidate_id;type:text;primaryKey" json:"candidateId"`
	CandidateName string         `gorm:"column:candidate_name;type:text;not null" json:"candidateName"`
	Experience    datatypes.JSON `gorm:"type:jsonb" json:"experience,omitempty"`
	Education     datatypes.JSON `gorm:"type:jsonb" json:"education,omitempty"`
	Skills        datatypes.JSON `gorm:"type:jsonb" json:"skills,omitempty"`
	Questions     datatypes.JSON `gorm:"type:jsonb" json:"questions,omitempty"`
	Disqualified  bool           `gorm:"not null;default:false" json:"disqualified"`
	JobApplied    string         `gorm:"type:text" json:"jobApplied,omitempty"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// CandidateIDs returns the ids of candidates in their original order.
func CandidateIDs(candidates []Candidate) []string {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.CandidateID)
	}
	return ids
}
