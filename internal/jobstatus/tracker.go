package jobstatus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// DefaultTTL is how long a job record is kept after its last write.
const DefaultTTL = time.Hour

const keyPrefix = "job:"

// Key returns the store key for a job id.
func Key(jobID string) string {
	return keyPrefix + jobID
}

// Tracker reads and writes JobStatus records. Every write replaces the whole
// record, so the last write wins.
type Tracker struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewTracker creates a tracker over store. A non-positive ttl uses DefaultTTL.
func NewTracker(store Store, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{store: store, ttl: ttl, now: time.Now}
}

// TTL returns the record expiry.
func (t *Tracker) TTL() time.Duration {
	return t.ttl
}

// Update writes the job record described by u.
func (t *Tracker) Update(ctx context.Context, u Update) error {
	if u.JobID == "" {
		return errors.New("job id is required")
	}

	status := JobStatus{
		JobID:          u.JobID,
		JobType:        u.Type,
		Status:         u.Status,
		Message:        u.Message,
		TotalItems:     u.Total,
		ProcessedItems: u.Processed,
		Progress:       percent(u.Processed, u.Total),
		Timestamp:      t.now().UTC(),
	}
	if u.Result != nil {
		raw, err := json.Marshal(u.Result)
		if err != nil {
			return fmt.Errorf("failed to encode job result: %w", err)
		}
		status.Result = raw
	}

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to encode job status: %w", err)
	}
	if err := t.store.Set(ctx, Key(u.JobID), data, t.ttl); err != nil {
		return fmt.Errorf("failed to store job status: %w", err)
	}
	return nil
}

// Get returns the job record, or nil when it was never written or has expired.
func (t *Tracker) Get(ctx context.Context, jobID string) (*JobStatus, error) {
	data, err := t.store.Get(ctx, Key(jobID))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read job status: %w", err)
	}

	var status JobStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to decode job status: %w", err)
	}
	// A JSON null result decodes to the literal "null"; report it as absent.
	if bytes.Equal(status.Result, []byte("null")) {
		status.Result = nil
	}
	return &status, nil
}

// List returns every live job record, newest first.
func (t *Tracker) List(ctx context.Context) ([]JobStatus, error) {
	keys, err := t.store.List(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]JobStatus, 0, len(keys))
	for _, key := range keys {
		status, err := t.Get(ctx, strings.TrimPrefix(key, keyPrefix))
		if err != nil {
			return nil, err
		}
		if status == nil {
			continue // expired between List and Get
		}
		jobs = append(jobs, *status)
	}

	slices.SortStableFunc(jobs, func(a, b JobStatus) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return jobs, nil
}

// Delete removes the job record. It reports false when there was nothing to delete.
func (t *Tracker) Delete(ctx context.Context, jobID string) (bool, error) {
	err := t.store.Delete(ctx, Key(jobID))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete job status: %w", err)
	}
	return true, nil
}
