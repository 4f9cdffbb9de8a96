package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/socialscope/tracker/internal/tracker"
)

// HistoryStore reads the append-only search_history table. Rows are written
// by ScrapeStore.CompleteScrape only.
type HistoryStore struct {
	pool Pool
}

func NewHistoryStore(pool Pool) (*HistoryStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &HistoryStore{pool: pool}, nil
}

const historyColumns = `id, profile_id, user_id, platform, username, provider, raw_result, followers_count, timestamp`

func (s *HistoryStore) ListHistory(ctx context.Context, userID int64, all bool) ([]tracker.HistoryRecord, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM search_history`, historyColumns)
	args := []any{}
	if !all {
		query += `
WHERE user_id = $1`
		args = append(args, userID)
	}
	query += `
ORDER BY timestamp DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	return scanHistory(rows)
}

func (s *HistoryStore) ListProfileHistory(ctx context.Context, profileID int64) ([]tracker.HistoryRecord, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM search_history
WHERE profile_id = $1
ORDER BY timestamp DESC`, historyColumns)

	rows, err := s.pool.Query(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("select profile history: %w", err)
	}
	return scanHistory(rows)
}

func scanHistory(rows pgx.Rows) ([]tracker.HistoryRecord, error) {
	defer rows.Close()
	var out []tracker.HistoryRecord
	for rows.Next() {
		var rec tracker.HistoryRecord
		if err := rows.Scan(
			&rec.ID, &rec.ProfileID, &rec.UserID, &rec.Platform, &rec.Username,
			&rec.Provider, &rec.RawResult, &rec.FollowersCount, &rec.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}
