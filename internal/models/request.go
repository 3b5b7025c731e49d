package models

type ScoreRequest struct {
	JobDescription string      `json:"jobDescription"`
	Candidates     []Candidate `json:"candidates,omitempty"`
}

type ScoreResponse struct {
	Data []ScoreResult `json:"data"`
}

// JobAcceptedResponse is returned when scoring continues in the background.
type JobAcceptedResponse struct {
	JobID      string      `json:"jobId"`
	Status     JobStatus   `json:"status"`
	Candidates []Candidate `json:"candidates"`
}

type StatusRequest struct {
	JobID      string      `json:"jobId"`
	Candidates []Candidate `json:"candidates"`
}

type StatusResponse struct {
	Data []ScoreResult `json:"data"`
}

type MessageResponse struct {
	Message string `json:"message"`
	JobID   string `json:"jobId,omitempty"`
}

// JobProgressResponse is returned while a job is still processing.
type JobProgressResponse struct {
	Message         string `json:"message"`
	FinishedBatches int    `json:"finishedBatches"`
	TotalBatches    int    `json:"totalBatches"`
}

// EngineRequest is the body sent to the scoring engine for one batch.
type EngineRequest struct {
	Job            string      `json:"job"`
	JobDescription string      `json:"jobDescription"`
	Candidates     []Candidate `json:"candidates"`
}

type EngineResult struct {
	Candidates []RawScore `json:"candidates"`
}

type EngineResponse struct {
	Result *EngineResult `json:"result"`
}
