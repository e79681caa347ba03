package jobstatus

import (
	"context"
	"errors"
	"sync"
)

// ErrTerminal is returned when a job that already completed or failed is
// asked to report progress.
var ErrTerminal = errors.New("job already finished")

// Reporter drives one job through STARTED, PROCESSING and finally COMPLETED
// or FAILED. Once terminal it refuses further updates until Start begins a
// new run under the same id.
type Reporter struct {
	tracker *Tracker
	jobID   string
	jobType Type

	mu      sync.Mutex
	current Status
}

// NewReporter binds a reporter to one job.
func NewReporter(tracker *Tracker, jobID string, jobType Type) *Reporter {
	return &Reporter{tracker: tracker, jobID: jobID, jobType: jobType}
}

// JobID returns the job id.
func (r *Reporter) JobID() string {
	return r.jobID
}

// Status returns the last status written by this reporter, or "" before Start.
func (r *Reporter) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Start records STARTED. It always succeeds in transitioning, overwriting any
// previous run stored under the same id.
func (r *Reporter) Start(ctx context.Context, message string, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(ctx, StatusStarted, message, total, 0, nil)
}

// Progress records PROCESSING.
func (r *Reporter) Progress(ctx context.Context, message string, total, processed int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current.Terminal() {
		return ErrTerminal
	}
	return r.write(ctx, StatusProcessing, message, total, processed, nil)
}

// Complete records COMPLETED with the job result.
func (r *Reporter) Complete(ctx context.Context, message string, total, processed int, result any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current.Terminal() {
		return ErrTerminal
	}
	return r.write(ctx, StatusCompleted, message, total, processed, result)
}

// Fail records FAILED with the error message.
func (r *Reporter) Fail(ctx context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current.Terminal() {
		return ErrTerminal
	}
	return r.write(ctx, StatusFailed, message, 0, 0, nil)
}

// write must be called with r.mu held. The state advances even when the
// store write fails so a broken backend cannot resurrect a finished job.
func (r *Reporter) write(ctx context.Context, status Status, message string, total, processed int, result any) error {
	r.current = status
	return r.tracker.Update(ctx, Update{
		JobID:     r.jobID,
		Type:      r.jobType,
		Message:   message,
		Status:    status,
		Total:     total,
		Processed: processed,
		Result:    result,
	})
}
