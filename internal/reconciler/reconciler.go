// Package reconciler applies scraping results to the database and fans the
// completion out to archival storage and the event topic.
package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/socialscope/tracker/internal/metrics"
	"github.com/socialscope/tracker/internal/tracker"
)

// Event is published on the completion topic after a result is persisted.
type Event struct {
	ProfileID      int64  `json:"profileId"`
	UserID         int64  `json:"userId"`
	Platform       string `json:"platform"`
	Username       string `json:"username"`
	Provider       string `json:"provider"`
	Status         string `json:"status"`
	FollowersCount int64  `json:"followersCount"`
}

// Reconciler turns a worker result payload into database state. The status
// update and the history insert happen in one transaction; archive and
// publish are best-effort follow-ups.
type Reconciler struct {
	scrapes   tracker.ScrapeStore
	blobs     tracker.BlobStore
	publisher tracker.Publisher
	topic     string
	clock     tracker.Clock
	logger    *zap.Logger
}

func New(scrapes tracker.ScrapeStore, blobs tracker.BlobStore, publisher tracker.Publisher, topic string, clock tracker.Clock, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		scrapes:   scrapes,
		blobs:     blobs,
		publisher: publisher,
		topic:     topic,
		clock:     clock,
		logger:    logger,
	}
}

// ProcessScrapingResult persists one result. A history row is appended only
// for completed results that carry data; error results just flip the profile
// status.
func (r *Reconciler) ProcessScrapingResult(ctx context.Context, payload tracker.ResultPayload) error {
	rec, err := r.historyRecord(payload)
	if err != nil {
		return err
	}

	if err := r.scrapes.CompleteScrape(ctx, payload.ProfileID, payload.Status, rec); err != nil {
		return fmt.Errorf("apply scraping result: %w", err)
	}
	metrics.ObserveResult(string(payload.Status))
	if rec != nil {
		metrics.ObserveHistoryInsert()
	}
	r.logger.Info("scraping result applied",
		zap.Int64("profile_id", payload.ProfileID),
		zap.String("status", string(payload.Status)),
		zap.Bool("history", rec != nil))

	jobStatus := tracker.JobDone
	if payload.Status != tracker.StatusCompleted {
		jobStatus = tracker.JobFailed
	}
	if err := r.scrapes.CloseJobs(ctx, payload.ProfileID, jobStatus); err != nil {
		r.logger.Warn("scrape jobs not closed", zap.Int64("profile_id", payload.ProfileID), zap.Error(err))
	}

	r.archive(ctx, payload, rec)
	r.publish(ctx, payload)
	return nil
}

// historyRecord builds the row to append, or nil when the result carries
// nothing worth keeping. Provenance bookkeeping is stripped and the artifact
// paths and remote photo are merged in before serialization.
func (r *Reconciler) historyRecord(payload tracker.ResultPayload) (*tracker.HistoryRecord, error) {
	if payload.Status != tracker.StatusCompleted || len(payload.RawResult) == 0 {
		return nil, nil
	}

	merged := make(map[string]any, len(payload.RawResult)+2)
	for k, v := range payload.RawResult {
		if k == "original_data" || k == "extraction_paths" {
			continue
		}
		merged[k] = v
	}
	merged["remote_photo"] = payload.ProfilePicURL
	merged["paths"] = tracker.ArtifactPaths{
		Image:   payload.ImagePath,
		Profile: filepath.Join(payload.ProfileDir, "profile-data.json"),
		Raw:     payload.RawPath,
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("serialize history result: %w", err)
	}

	return &tracker.HistoryRecord{
		ProfileID:      payload.ProfileID,
		UserID:         payload.UserID,
		Platform:       payload.Platform,
		Username:       payload.Username,
		Provider:       payload.Provider,
		RawResult:      raw,
		FollowersCount: payload.FollowersCount,
	}, nil
}

func (r *Reconciler) archive(ctx context.Context, payload tracker.ResultPayload, rec *tracker.HistoryRecord) {
	if r.blobs == nil || rec == nil {
		return
	}
	key := fmt.Sprintf("results/%d/%d/%s.json",
		payload.UserID, payload.ProfileID, r.clock.Now().UTC().Format("2006-01-02T15:04:05.000Z"))
	uri, err := r.blobs.PutObject(ctx, key, "application/json", rec.RawResult)
	if err != nil {
		r.logger.Warn("result archive failed", zap.String("key", key), zap.Error(err))
		return
	}
	r.logger.Debug("result archived", zap.String("uri", uri))
}

func (r *Reconciler) publish(ctx context.Context, payload tracker.ResultPayload) {
	if r.publisher == nil {
		return
	}
	event := Event{
		ProfileID:      payload.ProfileID,
		UserID:         payload.UserID,
		Platform:       payload.Platform,
		Username:       payload.Username,
		Provider:       payload.Provider,
		Status:         string(payload.Status),
		FollowersCount: payload.FollowersCount,
	}
	id, err := r.publisher.Publish(ctx, r.topic, event)
	if err != nil {
		r.logger.Warn("completion event not published", zap.Int64("profile_id", payload.ProfileID), zap.Error(err))
		return
	}
	r.logger.Debug("completion event published", zap.String("message_id", id))
}
