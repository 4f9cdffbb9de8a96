// Package launcher spawns the out-of-process scrape worker and tracks its
// lifecycle through the scrape_jobs table.
package launcher

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/socialscope/tracker/internal/metrics"
	"github.com/socialscope/tracker/internal/tracker"
)

// Launcher starts one worker process per analyze request. The worker reports
// back through the webhook; the launcher only corrects state when the
// process dies before delivering anything.
type Launcher struct {
	profiles tracker.ProfileStore
	settings tracker.SettingsStore
	scrapes  tracker.ScrapeStore
	ids      tracker.IDGenerator
	clock    tracker.Clock
	binary   string
	deadline time.Duration
	logger   *zap.Logger
}

func New(profiles tracker.ProfileStore, settings tracker.SettingsStore, scrapes tracker.ScrapeStore, ids tracker.IDGenerator, clock tracker.Clock, binary string, deadline time.Duration, logger *zap.Logger) *Launcher {
	if deadline <= 0 {
		deadline = 10 * time.Minute
	}
	return &Launcher{
		profiles: profiles,
		settings: settings,
		scrapes:  scrapes,
		ids:      ids,
		clock:    clock,
		binary:   binary,
		deadline: deadline,
		logger:   logger,
	}
}

// Analyze marks the profile as analyzing and spawns the worker with the five
// positional arguments. It returns once the process has started; completion
// arrives later via webhook or is caught by the exit watcher and the sweeper.
func (l *Launcher) Analyze(ctx context.Context, profile tracker.Profile) (string, error) {
	if err := l.profiles.UpdateProfileStatus(ctx, profile.ID, tracker.StatusAnalyzing); err != nil {
		return "", fmt.Errorf("mark profile analyzing: %w", err)
	}

	providerName, err := l.settings.DefaultProvider(ctx, profile.Platform)
	if err != nil {
		return "", fmt.Errorf("resolve default provider: %w", err)
	}

	jobID, err := l.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("generate job id: %w", err)
	}
	now := l.clock.Now()
	job := tracker.ScrapeJob{
		ID:          jobID,
		ProfileID:   profile.ID,
		UserID:      profile.UserID,
		Platform:    profile.Platform,
		Username:    profile.Username,
		Provider:    providerName,
		Status:      tracker.JobRunning,
		RequestedAt: now,
		Deadline:    now.Add(l.deadline),
	}
	if err := l.scrapes.CreateJob(ctx, job); err != nil {
		return "", fmt.Errorf("record scrape job: %w", err)
	}

	cmd := exec.Command(l.binary,
		profile.Platform,
		profile.Username,
		providerName,
		strconv.FormatInt(profile.ID, 10),
		strconv.FormatInt(profile.UserID, 10),
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("worker stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("worker stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		l.failJob(profile.ID, jobID)
		return "", fmt.Errorf("start worker: %w", err)
	}

	l.logger.Info("scrape worker started",
		zap.String("job_id", jobID),
		zap.Int64("profile_id", profile.ID),
		zap.String("platform", profile.Platform),
		zap.String("provider", providerName),
		zap.Int("pid", cmd.Process.Pid))
	metrics.ObserveJobLaunched(profile.Platform, providerName)
	metrics.IncActiveJobs()

	go l.forward(stdout, "worker stdout", jobID)
	go l.forward(stderr, "worker stderr", jobID)
	go l.watch(cmd, profile.ID, jobID)

	return jobID, nil
}

// forward relays one worker output stream into the server log.
func (l *Launcher) forward(stream io.Reader, label, jobID string) {
	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		l.logger.Info(label, zap.String("job_id", jobID), zap.String("line", scanner.Text()))
	}
}

// watch waits for the process and corrects state when it exits nonzero. A
// clean exit means the worker already reported through the webhook.
func (l *Launcher) watch(cmd *exec.Cmd, profileID int64, jobID string) {
	err := cmd.Wait()
	metrics.DecActiveJobs()
	if err == nil {
		l.logger.Info("scrape worker finished", zap.String("job_id", jobID), zap.Int64("profile_id", profileID))
		return
	}
	l.logger.Error("scrape worker died",
		zap.String("job_id", jobID),
		zap.Int64("profile_id", profileID),
		zap.Error(err))
	l.failJob(profileID, jobID)
}

func (l *Launcher) failJob(profileID int64, jobID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := l.profiles.UpdateProfileStatus(ctx, profileID, tracker.StatusError); err != nil {
		l.logger.Error("profile status not corrected", zap.Int64("profile_id", profileID), zap.Error(err))
	}
	if err := l.scrapes.CloseJobs(ctx, profileID, tracker.JobFailed); err != nil {
		l.logger.Error("scrape job not closed", zap.String("job_id", jobID), zap.Error(err))
	}
}
