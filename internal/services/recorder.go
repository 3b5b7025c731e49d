package services

import "time"

// Recorder receives pipeline events for metrics.
type Recorder interface {
	JobCreated()
	JobConflict()
	BatchCompleted(latency time.Duration)
	BatchFailed()
	JobFetched(state string)
	SyncFallback()
	QueueDepth(depth int)
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) JobCreated()                  {}
func (NopRecorder) JobConflict()                 {}
func (NopRecorder) BatchCompleted(time.Duration) {}
func (NopRecorder) BatchFailed()                 {}
func (NopRecorder) JobFetched(string)            {}
func (NopRecorder) SyncFallback()                {}
func (NopRecorder) QueueDepth(int)               {}
