package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/photo-analyzer/internal/jobstatus"
)

// JobManager runs asynchronous analysis jobs in background goroutines. Job
// state lives in the tracker; the manager only owns the goroutines.
type JobManager struct {
	mu      sync.Mutex
	nextID  uint64
	running map[uint64]string // run token to job id
	wg      sync.WaitGroup
	base    context.Context
	stop    context.CancelFunc
}

// NewJobManager creates a new job manager.
func NewJobManager() *JobManager {
	base, stop := context.WithCancel(context.Background())
	return &JobManager{
		running: make(map[uint64]string),
		base:    base,
		stop:    stop,
	}
}

// Go runs fn in the background under jobID. The context passed to fn is
// detached from any request and is cancelled only by Shutdown. Every call is
// tracked on its own, even when a job id is submitted twice.
func (m *JobManager) Go(jobID string, fn func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(m.base)

	m.mu.Lock()
	m.nextID++
	token := m.nextID
	m.running[token] = jobID
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			m.mu.Lock()
			delete(m.running, token)
			m.mu.Unlock()
			cancel()
		}()
		fn(ctx)
	}()
}

// Running returns the number of jobs still executing.
func (m *JobManager) Running() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.running)
}

// Shutdown waits for running jobs until ctx is done, then cancels them and
// waits for them to return.
func (m *JobManager) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		slog.Warn("handlers: cancelling running jobs", "count", m.Running())
		m.stop()
		<-done
		return ctx.Err()
	}
}

// JobsHandler exposes job status records.
type JobsHandler struct {
	tracker *jobstatus.Tracker
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(tracker *jobstatus.Tracker) *JobsHandler {
	return &JobsHandler{tracker: tracker}
}

// List returns every live job, newest first.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.tracker.List(r.Context())
	if err != nil {
		slog.Error("handlers: failed to list jobs", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	respondJSON(w, http.StatusOK, jobs)
}

// Get returns one job record.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	job, err := h.tracker.Get(r.Context(), jobID)
	if err != nil {
		slog.Error("handlers: failed to get job", "job_id", sanitizeForLog(jobID), "error", err)
		respondError(w, http.StatusInternalServerError, "failed to get job")
		return
	}
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// Delete removes a job record. A running job keeps running and may write the
// record again.
func (h *JobsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	deleted, err := h.tracker.Delete(r.Context(), jobID)
	if err != nil {
		slog.Error("handlers: failed to delete job", "job_id", sanitizeForLog(jobID), "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete job")
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "job not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// Events streams the job record as server-sent events until it is terminal.
func (h *JobsHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamJobStatus(w, r, h.lookup, pollInterval)
}

func (h *JobsHandler) lookup(ctx context.Context, jobID string) (*jobstatus.JobStatus, error) {
	job, err := h.tracker.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, errJobNotFound
	}
	return job, nil
}

var errJobNotFound = errors.New("job not found")
