package models

type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)

// Job is the ephemeral state of one asynchronous scoring run.
type Job struct {
	ID              string     `json:"id"`
	Status          JobStatus  `json:"status"`
	TotalBatches    int        `json:"totalBatches"`
	FinishedBatches int        `json:"finishedBatches"`
	Results         []RawScore `json:"results,omitempty"`
}
