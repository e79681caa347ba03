// Package constants provides shared constants used across the codebase.
package constants

import "time"

// HTTP server constants
const (
	// RequestTimeout bounds a whole synchronous analysis request
	RequestTimeout = 10 * time.Minute

	// ReadTimeout is the maximum time to read a request including its body
	ReadTimeout = 30 * time.Second

	// WriteTimeout is long enough for synchronous batches and SSE streams
	WriteTimeout = 10 * time.Minute

	// IdleTimeout closes idle keep-alive connections
	IdleTimeout = 60 * time.Second

	// ShutdownTimeout is how long serve waits for requests and jobs on exit
	ShutdownTimeout = 30 * time.Second

	// MaxRequestBodyBytes limits JSON request bodies
	MaxRequestBodyBytes = 4 << 20
)

// Job constants
const (
	// SSEPollInterval is how often the events stream re-reads a job record
	SSEPollInterval = time.Second

	// JobSweepInterval is how often expired rows are purged from the
	// PostgreSQL job store
	JobSweepInterval = 5 * time.Minute
)

// Face validation constants
const (
	// DefaultValidatePersonName is used when a validation request names no one
	DefaultValidatePersonName = "user"
)
