package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/socialscope/tracker/internal/tracker"
)

// SettingsStore persists per-platform default provider choices.
type SettingsStore struct {
	pool Pool
}

func NewSettingsStore(pool Pool) (*SettingsStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &SettingsStore{pool: pool}, nil
}

// DefaultProvider returns the provider configured for a platform, falling
// back to "default" when none is set.
func (s *SettingsStore) DefaultProvider(ctx context.Context, platform string) (string, error) {
	var name string
	err := s.pool.QueryRow(ctx, `
SELECT provider_name FROM provider_settings WHERE platform = $1 AND is_default`, platform,
	).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "default", nil
	}
	if err != nil {
		return "", fmt.Errorf("select default provider: %w", err)
	}
	if name == "" {
		return "default", nil
	}
	return name, nil
}

func (s *SettingsStore) SetDefaultProvider(ctx context.Context, platform, provider string) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO provider_settings (platform, provider_name, is_default)
VALUES ($1, $2, TRUE)
ON CONFLICT (platform) DO UPDATE SET provider_name = EXCLUDED.provider_name, is_default = TRUE`,
		platform, provider,
	)
	if err != nil {
		return fmt.Errorf("upsert provider setting: %w", err)
	}
	return nil
}

func (s *SettingsStore) ListSettings(ctx context.Context) ([]tracker.ProviderSetting, error) {
	rows, err := s.pool.Query(ctx, `
SELECT platform, provider_name, is_default FROM provider_settings ORDER BY platform`)
	if err != nil {
		return nil, fmt.Errorf("select provider settings: %w", err)
	}
	defer rows.Close()

	var out []tracker.ProviderSetting
	for rows.Next() {
		var st tracker.ProviderSetting
		if err := rows.Scan(&st.Platform, &st.Provider, &st.IsDefault); err != nil {
			return nil, fmt.Errorf("scan provider setting: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate provider settings: %w", err)
	}
	return out, nil
}
