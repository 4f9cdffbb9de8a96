package launcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/socialscope/tracker/internal/id/uuid"
	"github.com/socialscope/tracker/internal/metrics"
	"github.com/socialscope/tracker/internal/storage/memory"
	"github.com/socialscope/tracker/internal/tracker"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worker.sh")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func newLauncher(t *testing.T, store *memory.Store, binary string) *Launcher {
	t.Helper()
	metrics.Init()
	clock := fixedClock{at: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)}
	return New(store, store, store, uuid.New(), clock, binary, 10*time.Minute, zap.NewNop())
}

func trackedProfile(t *testing.T, store *memory.Store) tracker.Profile {
	t.Helper()
	id, err := store.CreateProfile(context.Background(), tracker.Profile{
		Username: "nasa", Platform: "instagram", UserID: 7,
	})
	require.NoError(t, err)
	p, err := store.GetProfile(context.Background(), id)
	require.NoError(t, err)
	return p
}

func TestAnalyzeSpawnsWorkerWithPositionalArgs(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args.txt")
	binary := writeScript(t, `echo "$@" > `+argsFile)

	store := memory.NewStore()
	l := newLauncher(t, store, binary)
	profile := trackedProfile(t, store)

	jobID, err := l.Analyze(context.Background(), profile)
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	p, err := store.GetProfile(context.Background(), profile.ID)
	require.NoError(t, err)
	require.Equal(t, tracker.StatusAnalyzing, p.Status)

	job, ok := store.Job(jobID)
	require.True(t, ok)
	require.Equal(t, tracker.JobRunning, job.Status)
	require.Equal(t, "default", job.Provider)
	require.Equal(t, job.RequestedAt.Add(10*time.Minute), job.Deadline)

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(argsFile)
		return err == nil && strings.TrimSpace(string(data)) == "instagram nasa default 1 7"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestAnalyzeUsesConfiguredProvider(t *testing.T) {
	binary := writeScript(t, "exit 0")

	store := memory.NewStore()
	require.NoError(t, store.SetDefaultProvider(context.Background(), "instagram", "apify"))
	l := newLauncher(t, store, binary)
	profile := trackedProfile(t, store)

	jobID, err := l.Analyze(context.Background(), profile)
	require.NoError(t, err)

	job, ok := store.Job(jobID)
	require.True(t, ok)
	require.Equal(t, "apify", job.Provider)
}

func TestAnalyzeStartFailureMarksError(t *testing.T) {
	store := memory.NewStore()
	l := newLauncher(t, store, filepath.Join(t.TempDir(), "missing-binary"))
	profile := trackedProfile(t, store)

	_, err := l.Analyze(context.Background(), profile)
	require.Error(t, err)

	p, err := store.GetProfile(context.Background(), profile.ID)
	require.NoError(t, err)
	require.Equal(t, tracker.StatusError, p.Status)
}

func TestAnalyzeNonzeroExitMarksError(t *testing.T) {
	binary := writeScript(t, "exit 3")

	store := memory.NewStore()
	l := newLauncher(t, store, binary)
	profile := trackedProfile(t, store)

	jobID, err := l.Analyze(context.Background(), profile)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		p, err := store.GetProfile(context.Background(), profile.ID)
		if err != nil {
			return false
		}
		job, ok := store.Job(jobID)
		return ok && p.Status == tracker.StatusError && job.Status == tracker.JobFailed
	}, 5*time.Second, 20*time.Millisecond)
}

func TestAnalyzeCleanExitLeavesStateToWebhook(t *testing.T) {
	binary := writeScript(t, "exit 0")

	store := memory.NewStore()
	l := newLauncher(t, store, binary)
	profile := trackedProfile(t, store)

	jobID, err := l.Analyze(context.Background(), profile)
	require.NoError(t, err)

	// The watcher must not touch anything on a clean exit.
	time.Sleep(200 * time.Millisecond)
	p, err := store.GetProfile(context.Background(), profile.ID)
	require.NoError(t, err)
	require.Equal(t, tracker.StatusAnalyzing, p.Status)

	job, ok := store.Job(jobID)
	require.True(t, ok)
	require.Equal(t, tracker.JobRunning, job.Status)
}

func TestSweeperExpiresOverdueJobs(t *testing.T) {
	metrics.Init()
	store := memory.NewStore()
	now := time.Date(2026, 8, 29, 11, 0, 0, 0, time.UTC)

	profile := trackedProfile(t, store)
	require.NoError(t, store.UpdateProfileStatus(context.Background(), profile.ID, tracker.StatusAnalyzing))
	require.NoError(t, store.CreateJob(context.Background(), tracker.ScrapeJob{
		ID: "job-overdue", ProfileID: profile.ID, Status: tracker.JobRunning,
		RequestedAt: now.Add(-30 * time.Minute), Deadline: now.Add(-20 * time.Minute),
	}))

	s := NewSweeper(store, store, fixedClock{at: now}, time.Minute, zap.NewNop())
	s.SweepOnce(context.Background())

	job, ok := store.Job("job-overdue")
	require.True(t, ok)
	require.Equal(t, tracker.JobExpired, job.Status)

	p, err := store.GetProfile(context.Background(), profile.ID)
	require.NoError(t, err)
	require.Equal(t, tracker.StatusError, p.Status)
}
