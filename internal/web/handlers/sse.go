package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/photo-analyzer/internal/constants"
	"github.com/kozaktomas/photo-analyzer/internal/jobstatus"
)

// pollInterval is a variable so tests can shorten it.
var pollInterval = constants.SSEPollInterval

// jobLookup returns errJobNotFound for unknown or expired jobs.
type jobLookup func(ctx context.Context, jobID string) (*jobstatus.JobStatus, error)

// setupSSEConnection validates the request and sets up SSE headers.
// Returns the job ID, flusher, and true on success. On failure, writes an error response and returns false.
func setupSSEConnection(w http.ResponseWriter, r *http.Request) (string, http.Flusher, bool) {
	jobID := chi.URLParam(r, "jobId")
	if jobID == "" {
		respondError(w, http.StatusBadRequest, "missing job ID")
		return "", nil, false
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return "", nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return jobID, flusher, true
}

// streamJobStatus polls the job record every interval and sends it as a
// "job-status" event whenever it changes. The stream ends after a terminal
// status, when the job disappears, or when the client disconnects.
func streamJobStatus(w http.ResponseWriter, r *http.Request, lookup jobLookup, interval time.Duration) {
	jobID, flusher, ok := setupSSEConnection(w, r)
	if !ok {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last []byte
	for {
		job, err := lookup(r.Context(), jobID)
		switch {
		case errors.Is(err, errJobNotFound):
			sendSSEEvent(w, flusher, "error", map[string]string{"error": "job not found"})
			return
		case err != nil:
			slog.Warn("handlers: failed to poll job", "job_id", sanitizeForLog(jobID), "error", err)
		default:
			data, _ := json.Marshal(job)
			if !bytes.Equal(data, last) {
				sendSSEData(w, flusher, "job-status", data)
				last = data
			}
			if job.Status.Terminal() {
				return
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// sendSSEEvent sends a single SSE event.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	sendSSEData(w, flusher, eventType, jsonData)
}

func sendSSEData(w http.ResponseWriter, flusher http.Flusher, eventType string, jsonData []byte) {
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}
