// Package jobstatus records the lifecycle of batch analysis jobs in a
// key-value store with a fixed expiry.
package jobstatus

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a job.
type Status string

// Status constants define the lifecycle states of a job.
const (
	StatusStarted    Status = "STARTED"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Terminal reports whether no further transitions are recorded after s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Type identifies the pipeline a job runs.
type Type string

// Job types.
const (
	TypeIntegration     Type = "integration"
	TypeSimilarGrouping Type = "similar_grouping"
)

// JobStatus is the stored record of a job's last reported state.
type JobStatus struct {
	JobID          string          `json:"job_id"`
	JobType        Type            `json:"job_type"`
	Status         Status          `json:"status"`
	Message        string          `json:"message"`
	TotalItems     int             `json:"total_items"`
	ProcessedItems int             `json:"processed_items"`
	Progress       int             `json:"progress"`
	Result         json.RawMessage `json:"result"`
	Timestamp      time.Time       `json:"timestamp"`
}

// Update is a single status write.
type Update struct {
	JobID     string
	Type      Type
	Message   string
	Status    Status
	Total     int
	Processed int
	Result    any
}

// percent returns processed as an integer percentage of total.
func percent(processed, total int) int {
	if total <= 0 {
		return 0
	}
	return processed * 100 / total
}
