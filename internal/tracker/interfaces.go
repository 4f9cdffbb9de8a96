package tracker

import (
	"context"
	"time"
)

// ProfileStore persists tracked profiles.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p Profile) (int64, error)
	GetProfile(ctx context.Context, id int64) (Profile, error)
	ListProfiles(ctx context.Context, userID int64, all bool) ([]Profile, error)
	DeleteProfile(ctx context.Context, id int64) error
	ProfileExists(ctx context.Context, username, platform string, userID int64) (bool, error)
	UpdateProfileStatus(ctx context.Context, id int64, status ProfileStatus) error
}

// HistoryStore reads the append-only search history.
type HistoryStore interface {
	ListHistory(ctx context.Context, userID int64, all bool) ([]HistoryRecord, error)
	ListProfileHistory(ctx context.Context, profileID int64) ([]HistoryRecord, error)
}

// ScrapeStore owns the scrape_jobs table and the atomic completion write.
type ScrapeStore interface {
	// CompleteScrape updates the profile status and, when rec is non-nil,
	// appends the history row in the same transaction.
	CompleteScrape(ctx context.Context, profileID int64, status ProfileStatus, rec *HistoryRecord) error
	CreateJob(ctx context.Context, job ScrapeJob) error
	CloseJobs(ctx context.Context, profileID int64, status JobStatus) error
	// SweepExpired transitions running jobs past their deadline to expired
	// and returns them so the caller can correct the profile status.
	SweepExpired(ctx context.Context, now time.Time) ([]ScrapeJob, error)
}

// SettingsStore persists per-platform default provider choices.
type SettingsStore interface {
	DefaultProvider(ctx context.Context, platform string) (string, error)
	SetDefaultProvider(ctx context.Context, platform, provider string) error
	ListSettings(ctx context.Context) ([]ProviderSetting, error)
}

// BlobStore mirrors raw artifacts to durable storage and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces job IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
