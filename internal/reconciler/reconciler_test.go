package reconciler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/socialscope/tracker/internal/metrics"
	memorypublisher "github.com/socialscope/tracker/internal/publisher/memory"
	"github.com/socialscope/tracker/internal/storage/memory"
	"github.com/socialscope/tracker/internal/tracker"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type fakeBlobStore struct {
	keys []string
	data [][]byte
	err  error
}

func (b *fakeBlobStore) PutObject(_ context.Context, path, _ string, data []byte) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	b.keys = append(b.keys, path)
	b.data = append(b.data, data)
	return "mem://" + path, nil
}

func setup(t *testing.T) (*Reconciler, *memory.Store, *fakeBlobStore, *memorypublisher.Publisher) {
	t.Helper()
	metrics.Init()
	store := memory.NewStore()
	blobs := &fakeBlobStore{}
	pub := memorypublisher.New()
	clock := fixedClock{at: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)}
	r := New(store, blobs, pub, "scrape-completions", clock, zap.NewNop())
	return r, store, blobs, pub
}

func completedPayload(profileID int64) tracker.ResultPayload {
	return tracker.ResultPayload{
		ProfileID: profileID,
		UserID:    7,
		Platform:  "instagram",
		Username:  "nasa",
		Provider:  "apify",
		Status:    tracker.StatusCompleted,
		RawResult: map[string]any{
			"username":         "nasa",
			"followers_count":  float64(96000000),
			"original_data":    map[string]any{"followers_count": "x"},
			"extraction_paths": map[string]any{"followers_count": []any{"x"}},
		},
		ProfileDir:     "/data/7/instagram/apify/2026-08-29/profile",
		RawPath:        "/data/7/instagram/apify/2026-08-29/raw-instagram-2026-08-29T11:59:00.000Z.json",
		ProfilePicURL:  "https://cdn.example.com/nasa.jpg",
		ImagePath:      "/data/7/instagram/apify/2026-08-29/profile/nasa.jpg",
		FollowersCount: 96000000,
	}
}

func TestProcessScrapingResultCompleted(t *testing.T) {
	r, store, blobs, pub := setup(t)
	ctx := context.Background()

	id, err := store.CreateProfile(ctx, tracker.Profile{Username: "nasa", Platform: "instagram", UserID: 7})
	require.NoError(t, err)
	require.NoError(t, store.CreateJob(ctx, tracker.ScrapeJob{ID: "job-1", ProfileID: id, Status: tracker.JobRunning}))

	require.NoError(t, r.ProcessScrapingResult(ctx, completedPayload(id)))

	p, err := store.GetProfile(ctx, id)
	require.NoError(t, err)
	require.Equal(t, tracker.StatusCompleted, p.Status)

	history, err := store.ListProfileHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, int64(96000000), history[0].FollowersCount)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(history[0].RawResult, &raw))
	require.NotContains(t, raw, "original_data")
	require.NotContains(t, raw, "extraction_paths")
	require.Equal(t, "https://cdn.example.com/nasa.jpg", raw["remote_photo"])
	paths := raw["paths"].(map[string]any)
	require.Equal(t, "/data/7/instagram/apify/2026-08-29/profile/profile-data.json", paths["profile"])

	job, ok := store.Job("job-1")
	require.True(t, ok)
	require.Equal(t, tracker.JobDone, job.Status)

	require.Len(t, blobs.keys, 1)
	require.Equal(t, "results/7/1/2026-08-29T12:00:00.000Z.json", blobs.keys[0])

	published := pub.Messages()
	require.Len(t, published, 1)
	require.Equal(t, "scrape-completions", published[0].Topic)
	event := published[0].Payload.(Event)
	require.Equal(t, id, event.ProfileID)
	require.Equal(t, "completed", event.Status)
}

func TestProcessScrapingResultErrorSkipsHistory(t *testing.T) {
	r, store, blobs, _ := setup(t)
	ctx := context.Background()

	id, err := store.CreateProfile(ctx, tracker.Profile{Username: "nasa", Platform: "instagram", UserID: 7})
	require.NoError(t, err)
	require.NoError(t, store.CreateJob(ctx, tracker.ScrapeJob{ID: "job-1", ProfileID: id, Status: tracker.JobRunning}))

	payload := tracker.ResultPayload{
		ProfileID:    id,
		UserID:       7,
		Platform:     "instagram",
		Username:     "nasa",
		Provider:     "default",
		Status:       tracker.StatusError,
		ErrorMessage: "actor run finished with status TIMED_OUT",
	}
	require.NoError(t, r.ProcessScrapingResult(ctx, payload))

	p, err := store.GetProfile(ctx, id)
	require.NoError(t, err)
	require.Equal(t, tracker.StatusError, p.Status)

	history, err := store.ListProfileHistory(ctx, id)
	require.NoError(t, err)
	require.Empty(t, history)

	job, ok := store.Job("job-1")
	require.True(t, ok)
	require.Equal(t, tracker.JobFailed, job.Status)

	require.Empty(t, blobs.keys)
}

func TestProcessScrapingResultCompletedWithoutDataSkipsHistory(t *testing.T) {
	r, store, _, _ := setup(t)
	ctx := context.Background()

	id, err := store.CreateProfile(ctx, tracker.Profile{Username: "nasa", Platform: "instagram", UserID: 7})
	require.NoError(t, err)

	payload := completedPayload(id)
	payload.RawResult = nil
	require.NoError(t, r.ProcessScrapingResult(ctx, payload))

	history, err := store.ListProfileHistory(ctx, id)
	require.NoError(t, err)
	require.Empty(t, history)

	p, err := store.GetProfile(ctx, id)
	require.NoError(t, err)
	require.Equal(t, tracker.StatusCompleted, p.Status)
}

func TestProcessScrapingResultUnknownProfileFails(t *testing.T) {
	r, _, _, _ := setup(t)
	err := r.ProcessScrapingResult(context.Background(), completedPayload(99))
	require.Error(t, err)
}

func TestArchiveFailureIsNotFatal(t *testing.T) {
	r, store, blobs, _ := setup(t)
	blobs.err = context.DeadlineExceeded
	ctx := context.Background()

	id, err := store.CreateProfile(ctx, tracker.Profile{Username: "nasa", Platform: "instagram", UserID: 7})
	require.NoError(t, err)

	require.NoError(t, r.ProcessScrapingResult(ctx, completedPayload(id)))
}
