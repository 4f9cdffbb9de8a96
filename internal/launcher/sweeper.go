package launcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/socialscope/tracker/internal/metrics"
	"github.com/socialscope/tracker/internal/tracker"
)

// Sweeper force-fails scrape jobs whose deadline passed without a webhook.
// This covers workers that were killed, lost their network or could not
// deliver the result at all.
type Sweeper struct {
	profiles tracker.ProfileStore
	scrapes  tracker.ScrapeStore
	clock    tracker.Clock
	interval time.Duration
	logger   *zap.Logger
}

func NewSweeper(profiles tracker.ProfileStore, scrapes tracker.ScrapeStore, clock tracker.Clock, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		profiles: profiles,
		scrapes:  scrapes,
		clock:    clock,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps on a fixed interval until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce expires overdue jobs and flips their profiles to error.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	jobs, err := s.scrapes.SweepExpired(ctx, s.clock.Now())
	if err != nil {
		s.logger.Error("sweep failed", zap.Error(err))
		return
	}
	for _, job := range jobs {
		metrics.ObserveSweptJob()
		s.logger.Warn("scrape job expired",
			zap.String("job_id", job.ID),
			zap.Int64("profile_id", job.ProfileID),
			zap.Time("deadline", job.Deadline))
		if err := s.profiles.UpdateProfileStatus(ctx, job.ProfileID, tracker.StatusError); err != nil {
			s.logger.Error("expired profile not updated", zap.Int64("profile_id", job.ProfileID), zap.Error(err))
		}
	}
}
