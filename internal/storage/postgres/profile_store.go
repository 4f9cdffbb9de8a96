package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/socialscope/tracker/internal/tracker"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ProfileStore persists tracked profiles.
type ProfileStore struct {
	pool Pool
}

func NewProfileStore(pool Pool) (*ProfileStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &ProfileStore{pool: pool}, nil
}

func (s *ProfileStore) CreateProfile(ctx context.Context, p tracker.Profile) (int64, error) {
	status := p.Status
	if status == "" {
		status = tracker.StatusPending
	}
	var id int64
	err := s.pool.QueryRow(ctx, `
INSERT INTO profiles (username, platform, url, user_id, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`,
		p.Username, p.Platform, p.URL, p.UserID, string(status),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert profile: %w", err)
	}
	return id, nil
}

func (s *ProfileStore) GetProfile(ctx context.Context, id int64) (tracker.Profile, error) {
	var p tracker.Profile
	err := s.pool.QueryRow(ctx, `
SELECT id, username, platform, url, status, user_id
FROM profiles
WHERE id = $1`, id,
	).Scan(&p.ID, &p.Username, &p.Platform, &p.URL, &p.Status, &p.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return tracker.Profile{}, fmt.Errorf("profile %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return tracker.Profile{}, fmt.Errorf("select profile: %w", err)
	}
	return p, nil
}

// ListProfiles returns the user's profiles, or every profile when all is set,
// newest first with the owner's username joined in.
func (s *ProfileStore) ListProfiles(ctx context.Context, userID int64, all bool) ([]tracker.Profile, error) {
	query := `
SELECT p.id, p.username, p.platform, p.url, p.status, p.user_id, u.username AS owner_username
FROM profiles p
JOIN users u ON p.user_id = u.id`
	args := []any{}
	if !all {
		query += `
WHERE p.user_id = $1`
		args = append(args, userID)
	}
	query += `
ORDER BY p.id DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select profiles: %w", err)
	}
	defer rows.Close()

	var out []tracker.Profile
	for rows.Next() {
		var p tracker.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.Platform, &p.URL, &p.Status, &p.UserID, &p.Owner); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return out, nil
}

func (s *ProfileStore) DeleteProfile(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *ProfileStore) ProfileExists(ctx context.Context, username, platform string, userID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM profiles WHERE username = $1 AND platform = $2 AND user_id = $3
)`, username, platform, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check profile exists: %w", err)
	}
	return exists, nil
}

func (s *ProfileStore) UpdateProfileStatus(ctx context.Context, id int64, status tracker.ProfileStatus) error {
	tag, err := s.pool.Exec(ctx, `UPDATE profiles SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("update profile status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile %d: %w", id, ErrNotFound)
	}
	return nil
}
