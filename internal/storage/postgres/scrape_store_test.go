package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/socialscope/tracker/internal/tracker"
)

func TestCompleteScrapeWritesStatusAndHistoryInOneTx(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewScrapeStore(mock)
	require.NoError(t, err)

	raw := []byte(`{"username":"nasa","followers_count":96000000}`)
	rec := &tracker.HistoryRecord{
		ProfileID:      42,
		UserID:         7,
		Platform:       "instagram",
		Username:       "nasa",
		Provider:       "apify",
		RawResult:      raw,
		FollowersCount: 96000000,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE profiles SET status").
		WithArgs("completed", int64(42)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO search_history").
		WithArgs(int64(42), int64(7), "instagram", "nasa", "apify", raw, int64(96000000)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, store.CompleteScrape(context.Background(), 42, tracker.StatusCompleted, rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteScrapeWithoutHistorySkipsInsert(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewScrapeStore(mock)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE profiles SET status").
		WithArgs("error", int64(42)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, store.CompleteScrape(context.Background(), 42, tracker.StatusError, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteScrapeRollsBackOnHistoryFailure(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewScrapeStore(mock)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE profiles SET status").
		WithArgs("completed", int64(42)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO search_history").
		WillReturnError(errors.New("jsonb malformed"))
	mock.ExpectRollback()

	err = store.CompleteScrape(context.Background(), 42, tracker.StatusCompleted, &tracker.HistoryRecord{ProfileID: 42})
	require.Error(t, err)
	require.Contains(t, err.Error(), "insert history")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateJob(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewScrapeStore(mock)
	require.NoError(t, err)

	requested := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	job := tracker.ScrapeJob{
		ID:          "0191f2c8-aaaa-7bbb-8ccc-000000000001",
		ProfileID:   42,
		UserID:      7,
		Platform:    "instagram",
		Username:    "nasa",
		Provider:    "default",
		Status:      tracker.JobRunning,
		RequestedAt: requested,
		Deadline:    requested.Add(10 * time.Minute),
	}

	mock.ExpectExec("INSERT INTO scrape_jobs").
		WithArgs(job.ID, job.ProfileID, job.UserID, job.Platform, job.Username,
			job.Provider, "running", job.RequestedAt, job.Deadline).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.CreateJob(context.Background(), job))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseJobsIgnoresZeroRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewScrapeStore(mock)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE scrape_jobs SET status").
		WithArgs("done", int64(42), "running").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, store.CloseJobs(context.Background(), 42, tracker.JobDone))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepExpiredReturnsSweptJobs(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewScrapeStore(mock)
	require.NoError(t, err)

	now := time.Date(2026, 8, 29, 11, 0, 0, 0, time.UTC)
	requested := now.Add(-20 * time.Minute)

	rows := pgxmock.NewRows([]string{"id", "profile_id", "user_id", "platform", "username", "provider", "status", "requested_at", "deadline"}).
		AddRow("job-1", int64(42), int64(7), "instagram", "nasa", "default", tracker.JobExpired, requested, requested.Add(10*time.Minute))

	mock.ExpectQuery("UPDATE scrape_jobs").
		WithArgs("expired", "running", now).
		WillReturnRows(rows)

	swept, err := store.SweepExpired(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, swept, 1)
	require.Equal(t, int64(42), swept[0].ProfileID)
	require.Equal(t, tracker.JobExpired, swept[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
