package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkeep/regwatch/internal/domain"
	"github.com/ledgerkeep/regwatch/internal/store"
)

func newMockJobRepo(t *testing.T) (*store.JobRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	return store.NewJobRepository(sqlx.NewDb(mockDB, "postgres")), mock
}

func TestJobRepositoryCreate(t *testing.T) {
	repo, mock := newMockJobRepo(t)
	ctx := context.Background()
	createdAt := time.Now()

	mock.ExpectQuery("INSERT INTO scrape_jobs").
		WithArgs(sqlmock.AnyArg(), "AU", "tax_ruling", nil, string(domain.JobPending)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	job, err := repo.Create(ctx, domain.SourceFilter{
		Country:  "AU",
		Category: domain.CategoryTaxRuling,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, domain.JobPending, job.Status)
	require.NotNil(t, job.Country)
	assert.Equal(t, "AU", *job.Country)
	assert.Nil(t, job.Priority)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepositoryForwardOnlyTransitions(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("mark in progress requires pending", func(t *testing.T) {
		repo, mock := newMockJobRepo(t)

		mock.ExpectExec("UPDATE scrape_jobs").
			WithArgs(string(domain.JobInProgress), sqlmock.AnyArg(), "job-1", string(domain.JobPending)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MarkInProgress(ctx, "job-1", now)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mark completed requires in progress", func(t *testing.T) {
		repo, mock := newMockJobRepo(t)

		mock.ExpectExec("UPDATE scrape_jobs").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MarkCompleted(ctx, "job-1", domain.JobCounters{}, now)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("mark failed skips terminal jobs", func(t *testing.T) {
		repo, mock := newMockJobRepo(t)

		mock.ExpectExec("UPDATE scrape_jobs").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MarkFailed(ctx, "job-1", "boom", now)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("successful completion persists aggregates", func(t *testing.T) {
		repo, mock := newMockJobRepo(t)
		counters := domain.JobCounters{Created: 2, Updated: 3, Unchanged: 4, Failed: 1}

		mock.ExpectExec("UPDATE scrape_jobs").
			WithArgs(
				string(domain.JobCompleted),
				sqlmock.AnyArg(),
				counters.Scraped(),
				counters.Updated,
				counters.Archived(),
				"job-1",
				string(domain.JobInProgress),
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.MarkCompleted(ctx, "job-1", counters, now))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestJobRepositoryUpdateProgress(t *testing.T) {
	repo, mock := newMockJobRepo(t)
	counters := domain.JobCounters{Created: 1, Updated: 1, Unchanged: 2}

	mock.ExpectExec("UPDATE scrape_jobs").
		WithArgs(4, 1, 1, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateProgress(context.Background(), "job-1", counters))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepositoryListRecent(t *testing.T) {
	repo, mock := newMockJobRepo(t)

	rows := sqlmock.NewRows([]string{
		"id", "country", "category", "priority", "status", "started_at",
		"completed_at", "documents_scraped", "documents_updated",
		"documents_archived", "error_message", "created_at",
	}).
		AddRow("job-2", nil, nil, nil, "completed", time.Now(), time.Now(), 5, 1, 1, nil, time.Now()).
		AddRow("job-1", "AU", nil, nil, "failed", time.Now(), time.Now(), 0, 0, 0, "no sources found matching filters", time.Now())

	mock.ExpectQuery("SELECT (.+) FROM scrape_jobs").
		WithArgs(10).
		WillReturnRows(rows)

	jobs, err := repo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "job-2", jobs[0].ID)
	assert.Equal(t, domain.JobFailed, jobs[1].Status)
}

func TestJobRepositoryGetByIDNotFound(t *testing.T) {
	repo, mock := newMockJobRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM scrape_jobs").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJobCountersIdentities(t *testing.T) {
	var counters domain.JobCounters
	counters.Record(domain.ActionCreated)
	counters.Record(domain.ActionUpdated)
	counters.Record(domain.ActionUpdated)
	counters.Record(domain.ActionUnchanged)
	counters.Record(domain.ActionFailed)

	assert.Equal(t, 4, counters.Scraped(), "scraped = created+updated+unchanged")
	assert.Equal(t, counters.Updated, counters.Archived(), "one archived row per update")
	assert.Equal(t, 1, counters.Failed)
}
