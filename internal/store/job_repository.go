package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ledgerkeep/regwatch/internal/domain"
)

// jobColumns is the select list shared by job queries.
const jobColumns = `id, country, category, priority, status, started_at,
	completed_at, documents_scraped, documents_updated, documents_archived,
	error_message, created_at`

// DefaultRecentJobs is the default page size for listing recent jobs.
const DefaultRecentJobs = 20

// JobRepository handles database operations for scrape jobs.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository creates a new job repository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new pending job with the given filter snapshot.
func (r *JobRepository) Create(ctx context.Context, filter domain.SourceFilter) (*domain.ScrapeJob, error) {
	job := &domain.ScrapeJob{
		ID:     uuid.NewString(),
		Status: domain.JobPending,
	}
	if filter.Country != "" {
		job.Country = &filter.Country
	}
	if filter.Category != "" {
		category := string(filter.Category)
		job.Category = &category
	}
	if filter.Priority != "" {
		priority := string(filter.Priority)
		job.Priority = &priority
	}

	query := `
		INSERT INTO scrape_jobs (id, country, category, priority, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		job.ID,
		job.Country,
		job.Category,
		job.Priority,
		job.Status,
	).Scan(&job.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	return job, nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.ScrapeJob, error) {
	var job domain.ScrapeJob
	query := `SELECT ` + jobColumns + ` FROM scrape_jobs WHERE id = $1`

	err := r.db.GetContext(ctx, &job, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// ListRecent returns the most recent jobs ordered by creation time
// descending. A non-positive limit falls back to DefaultRecentJobs.
func (r *JobRepository) ListRecent(ctx context.Context, limit int) ([]*domain.ScrapeJob, error) {
	if limit <= 0 {
		limit = DefaultRecentJobs
	}

	var jobs []*domain.ScrapeJob
	query := `SELECT ` + jobColumns + `
		FROM scrape_jobs
		ORDER BY created_at DESC
		LIMIT $1`

	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	if jobs == nil {
		jobs = []*domain.ScrapeJob{}
	}

	return jobs, nil
}

// MarkInProgress transitions a pending job to in_progress and records the
// start time. The status guard keeps transitions forward-only.
func (r *JobRepository) MarkInProgress(ctx context.Context, id string, startedAt time.Time) error {
	query := `
		UPDATE scrape_jobs
		SET status = $1, started_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query, domain.JobInProgress, startedAt, id, domain.JobPending)
	if err != nil {
		return fmt.Errorf("failed to start job: %w", err)
	}

	return requireRow(result, fmt.Errorf("pending job %s: %w", id, ErrNotFound))
}

// UpdateProgress persists the running counters so progress is observable
// mid-flight.
func (r *JobRepository) UpdateProgress(ctx context.Context, id string, counters domain.JobCounters) error {
	query := `
		UPDATE scrape_jobs
		SET documents_scraped = $1, documents_updated = $2, documents_archived = $3
		WHERE id = $4
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		counters.Scraped(),
		counters.Updated,
		counters.Archived(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}

	return requireRow(result, fmt.Errorf("job %s: %w", id, ErrNotFound))
}

// MarkCompleted transitions a running job to completed with final counters.
func (r *JobRepository) MarkCompleted(ctx context.Context, id string, counters domain.JobCounters, completedAt time.Time) error {
	query := `
		UPDATE scrape_jobs
		SET status = $1, completed_at = $2,
		    documents_scraped = $3, documents_updated = $4, documents_archived = $5
		WHERE id = $6 AND status = $7
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		domain.JobCompleted,
		completedAt,
		counters.Scraped(),
		counters.Updated,
		counters.Archived(),
		id,
		domain.JobInProgress,
	)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	return requireRow(result, fmt.Errorf("running job %s: %w", id, ErrNotFound))
}

// MarkFailed transitions a job to failed with an error message. Valid from
// either pending or in_progress; terminal states are never overwritten.
func (r *JobRepository) MarkFailed(ctx context.Context, id, errorMessage string, completedAt time.Time) error {
	query := `
		UPDATE scrape_jobs
		SET status = $1, completed_at = $2, error_message = $3
		WHERE id = $4 AND status IN ($5, $6)
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		domain.JobFailed,
		completedAt,
		errorMessage,
		id,
		domain.JobPending,
		domain.JobInProgress,
	)
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}

	return requireRow(result, fmt.Errorf("non-terminal job %s: %w", id, ErrNotFound))
}

// requireRow validates that an exec affected at least one row.
func requireRow(result sql.Result, notFoundErr error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundErr
	}
	return nil
}
