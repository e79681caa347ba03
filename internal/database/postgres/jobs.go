package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kozaktomas/photo-analyzer/internal/jobstatus"
)

// JobStore is a jobstatus.Store on the job_status table. Expired rows are
// invisible to reads and removed by DeleteExpired.
type JobStore struct {
	pool *Pool
}

// NewJobStore creates a new PostgreSQL job status store
func NewJobStore(pool *Pool) *JobStore {
	return &JobStore{pool: pool}
}

// Set upserts the value at key with a fresh expiry.
func (s *JobStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `
		INSERT INTO job_status (key, value, updated_at, expires_at)
		VALUES ($1, $2, NOW(), NOW() + make_interval(secs => $3))
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at,
			expires_at = EXCLUDED.expires_at
	`

	_, err := s.pool.Exec(ctx, query, key, string(value), ttl.Seconds())
	if err != nil {
		return fmt.Errorf("save job status: %w", err)
	}
	return nil
}

// Get returns the live value at key, or jobstatus.ErrNotFound.
func (s *JobStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value
		FROM job_status
		WHERE key = $1 AND expires_at > NOW()
	`

	var value []byte
	err := s.pool.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, jobstatus.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job status: %w", err)
	}
	return value, nil
}

// Delete removes the row at key. Deleting an expired row reports
// jobstatus.ErrNotFound.
func (s *JobStore) Delete(ctx context.Context, key string) error {
	var live bool
	err := s.pool.QueryRow(ctx, "DELETE FROM job_status WHERE key = $1 RETURNING expires_at > NOW()", key).Scan(&live)
	if errors.Is(err, sql.ErrNoRows) {
		return jobstatus.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete job status: %w", err)
	}
	if !live {
		return jobstatus.ErrNotFound
	}
	return nil
}

// List returns live keys starting with prefix in sorted order.
func (s *JobStore) List(ctx context.Context, prefix string) ([]string, error) {
	query := `
		SELECT key
		FROM job_status
		WHERE key LIKE $1 ESCAPE '\' AND expires_at > NOW()
		ORDER BY key
	`

	rows, err := s.pool.Query(ctx, query, likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("list job status: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan job status key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job status keys: %w", err)
	}
	return keys, nil
}

// DeleteExpired removes all expired rows and returns the count deleted
func (s *JobStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.pool.Exec(ctx, "DELETE FROM job_status WHERE expires_at <= NOW()")
	if err != nil {
		return 0, fmt.Errorf("delete expired job status: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return count, nil
}

// RunSweeper calls DeleteExpired every interval until ctx is done.
func (s *JobStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.DeleteExpired(ctx)
			if err != nil {
				slog.Warn("postgres: job status sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Debug("postgres: swept expired job status", "count", n)
			}
		}
	}
}

// likePrefix escapes LIKE wildcards in prefix and appends %.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
