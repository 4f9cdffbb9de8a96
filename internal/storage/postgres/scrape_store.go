package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/socialscope/tracker/internal/tracker"
)

// ScrapeStore owns the scrape_jobs table and the atomic completion write
// that updates the profile status together with the history insert.
type ScrapeStore struct {
	pool Pool
}

func NewScrapeStore(pool Pool) (*ScrapeStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &ScrapeStore{pool: pool}, nil
}

// CompleteScrape applies a scrape result in one transaction: the profile
// status always changes, and when rec is non-nil the history row lands with
// it or not at all.
func (s *ScrapeStore) CompleteScrape(ctx context.Context, profileID int64, status tracker.ProfileStatus, rec *tracker.HistoryRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin completion: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE profiles SET status = $1 WHERE id = $2`, string(status), profileID)
	if err != nil {
		return fmt.Errorf("update profile status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile %d: %w", profileID, ErrNotFound)
	}

	if rec != nil {
		_, err := tx.Exec(ctx, `
INSERT INTO search_history (profile_id, user_id, platform, username, provider, raw_result, followers_count)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rec.ProfileID, rec.UserID, rec.Platform, rec.Username, rec.Provider, rec.RawResult, rec.FollowersCount,
		)
		if err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit completion: %w", err)
	}
	return nil
}

func (s *ScrapeStore) CreateJob(ctx context.Context, job tracker.ScrapeJob) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO scrape_jobs (id, profile_id, user_id, platform, username, provider, status, requested_at, deadline)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.ID, job.ProfileID, job.UserID, job.Platform, job.Username,
		job.Provider, string(job.Status), job.RequestedAt, job.Deadline,
	)
	if err != nil {
		return fmt.Errorf("insert scrape job: %w", err)
	}
	return nil
}

// CloseJobs transitions every running job of a profile to the given terminal
// status. Closing zero rows is not an error, the job may already be swept.
func (s *ScrapeStore) CloseJobs(ctx context.Context, profileID int64, status tracker.JobStatus) error {
	_, err := s.pool.Exec(ctx, `
UPDATE scrape_jobs SET status = $1 WHERE profile_id = $2 AND status = $3`,
		string(status), profileID, string(tracker.JobRunning),
	)
	if err != nil {
		return fmt.Errorf("close scrape jobs: %w", err)
	}
	return nil
}

// SweepExpired marks running jobs past their deadline as expired and returns
// them so the sweeper can flip the profile status.
func (s *ScrapeStore) SweepExpired(ctx context.Context, now time.Time) ([]tracker.ScrapeJob, error) {
	rows, err := s.pool.Query(ctx, `
UPDATE scrape_jobs
SET status = $1
WHERE status = $2 AND deadline < $3
RETURNING id, profile_id, user_id, platform, username, provider, status, requested_at, deadline`,
		string(tracker.JobExpired), string(tracker.JobRunning), now,
	)
	if err != nil {
		return nil, fmt.Errorf("sweep scrape jobs: %w", err)
	}
	defer rows.Close()

	var out []tracker.ScrapeJob
	for rows.Next() {
		var job tracker.ScrapeJob
		if err := rows.Scan(
			&job.ID, &job.ProfileID, &job.UserID, &job.Platform, &job.Username,
			&job.Provider, &job.Status, &job.RequestedAt, &job.Deadline,
		); err != nil {
			return nil, fmt.Errorf("scan swept job: %w", err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swept jobs: %w", err)
	}
	return out, nil
}
