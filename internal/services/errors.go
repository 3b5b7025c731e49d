package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidJobDescription   = errors.New("invalid job description")
	ErrMissingJobID            = errors.New("missing job id")
	ErrMissingCandidates       = errors.New("missing candidates")
	ErrJobInProgress           = errors.New("job already exists and is still processing")
	ErrJobStoreUnavailable     = errors.New("job store unavailable")
	ErrMalformedEngineResponse = errors.New("invalid response format from scoring engine")
)

// JobInProgressError is returned when a non-terminal job already exists for
// the same job description. JobID is the job the caller should poll.
type JobInProgressError struct {
	JobID string
}

func (e *JobInProgressError) Error() string {
	return fmt.Sprintf("job %s already exists and is still processing", e.JobID)
}

func (e *JobInProgressError) Is(target error) bool {
	return target == ErrJobInProgress
}
