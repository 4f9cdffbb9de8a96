// Package tracker defines core types shared across subsystems.
package tracker

import (
	"time"
)

// ProfileStatus represents the lifecycle state of a tracked profile.
type ProfileStatus string

// Profile status values persisted in the profiles table.
const (
	StatusPending   ProfileStatus = "pending"
	StatusAnalyzing ProfileStatus = "analyzing"
	StatusCompleted ProfileStatus = "completed"
	StatusError     ProfileStatus = "error"
)

// Profile is a tracked social-media account owned by a user.
type Profile struct {
	ID       int64         `json:"id"`
	Username string        `json:"username"`
	Platform string        `json:"platform"`
	URL      string        `json:"url"`
	Status   ProfileStatus `json:"status"`
	UserID   int64         `json:"user_id"`
	Owner    string        `json:"owner_username,omitempty"`
}

// JobStatus represents the lifecycle state of a scrape job row.
type JobStatus string

// Job status values persisted in the scrape_jobs table.
const (
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
	JobExpired JobStatus = "expired"
)

// ScrapeJob parameterizes one worker invocation. A row is inserted when the
// launcher spawns the worker and closed by the reconciler (webhook arrived),
// the launcher (worker died) or the sweeper (deadline passed).
type ScrapeJob struct {
	ID          string    `json:"id"`
	ProfileID   int64     `json:"profile_id"`
	UserID      int64     `json:"user_id"`
	Platform    string    `json:"platform"`
	Username    string    `json:"username"`
	Provider    string    `json:"provider"`
	Status      JobStatus `json:"status"`
	RequestedAt time.Time `json:"requested_at"`
	Deadline    time.Time `json:"deadline"`
}

// ResultPayload is the wire object the worker posts back to the server.
// Field names match the webhook protocol and are not negotiable.
type ResultPayload struct {
	ProfileID       int64          `json:"profileId"`
	UserID          int64          `json:"userId"`
	Platform        string         `json:"platform"`
	Username        string         `json:"username"`
	Provider        string         `json:"provider"`
	Status          ProfileStatus  `json:"status"`
	RawResult       map[string]any `json:"rawResult,omitempty"`
	ErrorMessage    string         `json:"errorMessage,omitempty"`
	ProfileDir      string         `json:"path_profile"`
	RawPath         string         `json:"json_raw"`
	ProfilePicURL   string         `json:"profile_pic_url,omitempty"`
	FollowersCount  int64          `json:"followers_count"`
	LocalProfilePic string         `json:"local_profile_pic,omitempty"`
	ImagePath       string         `json:"path_image_profile,omitempty"`
}

// HistoryRecord is one append-only search_history row. RawResult is the
// serialized scrape result after the reconciler strips provenance fields and
// merges artifact paths.
type HistoryRecord struct {
	ID             int64     `json:"id"`
	ProfileID      int64     `json:"profile_id"`
	UserID         int64     `json:"user_id"`
	Platform       string    `json:"platform"`
	Username       string    `json:"username"`
	Provider       string    `json:"provider"`
	RawResult      []byte    `json:"raw_result"`
	FollowersCount int64     `json:"followers_count"`
	Timestamp      time.Time `json:"timestamp"`
}

// ProviderSetting maps a platform to its default provider.
type ProviderSetting struct {
	Platform  string `json:"platform"`
	Provider  string `json:"provider_name"`
	IsDefault bool   `json:"is_default"`
}

// ArtifactPaths locates the on-disk artifacts of one scrape run.
type ArtifactPaths struct {
	Image   string `json:"image"`
	Profile string `json:"profile"`
	Raw     string `json:"raw"`
}
