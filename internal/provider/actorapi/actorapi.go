// Package actorapi implements scraping through a hosted actor platform: it
// starts an actor run for the target profile, polls until the run reaches a
// terminal state and maps the dataset items into the standardized shape.
package actorapi

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/socialscope/tracker/internal/artifacts"
	"github.com/socialscope/tracker/internal/provider"
)

const (
	pollInterval = 5 * time.Second
	runBudget    = 5 * time.Minute
	runsAPIBase  = "https://api.apify.com/v2/actor-runs"
)

// inputFor builds the actor input document for a platform.
var inputFor = map[string]func(username string) map[string]any{
	"instagram": func(u string) map[string]any {
		return map[string]any{"usernames": []string{u}, "resultsLimit": 1, "proxyConfiguration": map[string]any{"useApifyProxy": true}}
	},
	"twitter": func(u string) map[string]any {
		return map[string]any{"user_names": []string{u}}
	},
	"tiktok": func(u string) map[string]any {
		return map[string]any{"usernames": []string{u}}
	},
	"youtube": func(u string) map[string]any {
		return map[string]any{"channels": []string{"@" + u}}
	},
	"facebook": func(u string) map[string]any {
		return map[string]any{
			"startUrls":          []map[string]any{{"url": "https://www.facebook.com/" + u}},
			"scrapeProfileOnly":  true,
			"proxyConfiguration": map[string]any{"useApifyProxy": true},
		}
	},
	"linkedin": func(u string) map[string]any {
		return map[string]any{"profiles": []string{u}, "scrapeProfileOnly": true, "proxyConfiguration": map[string]any{"useApifyProxy": true}}
	},
	"reddit": func(u string) map[string]any {
		return map[string]any{"usernames": []string{u}, "scrapeUserInfoOnly": true}
	},
	"twitch": func(u string) map[string]any {
		return map[string]any{"usernames": []string{u}, "scrapeProfileOnly": true}
	},
}

// mapperFor normalizes the first dataset item of a run into the common
// profile keys. Each platform's actor returns a different document shape.
var mapperFor = map[string]func(items []map[string]any) map[string]any{
	"instagram": func(items []map[string]any) map[string]any {
		d := items[0]
		return map[string]any{
			"username":       d["username"],
			"fullName":       d["fullName"],
			"bio":            d["biography"],
			"followersCount": d["followersCount"],
			"followingCount": d["followsCount"],
			"postsCount":     d["postsCount"],
			"isPrivate":      d["private"],
			"isVerified":     d["verified"],
			"profilePicUrl":  d["profilePicUrl"],
			"externalUrl":    d["externalUrl"],
		}
	},
	"twitter": func(items []map[string]any) map[string]any {
		d := items[0]
		out := map[string]any{
			"username":       dig(d, "core", "screen_name"),
			"name":           dig(d, "core", "name"),
			"bio":            dig(d, "profile_bio", "description"),
			"followersCount": dig(d, "relationship_counts", "followers"),
			"followingCount": dig(d, "relationship_counts", "following"),
			"postsCount":     dig(d, "tweet_counts", "tweets"),
			"isVerified":     dig(d, "verification", "is_blue_verified"),
		}
		if url, ok := dig(d, "avatar", "image_url").(string); ok && url != "" {
			out["profilePicUrl"] = replaceOnce(url, "normal", "400x400")
		}
		return out
	},
	"tiktok": func(items []map[string]any) map[string]any {
		d := items[0]
		out := map[string]any{
			"username":       d["unique_id"],
			"name":           d["nickname"],
			"bio":            d["signature"],
			"followersCount": d["follower_count"],
			"followingCount": d["following_count"],
			"likesCount":     d["total_favorited"],
			"postsCount":     d["visible_videos_count"],
		}
		if verify, ok := d["custom_verify"].(string); ok {
			out["isVerified"] = verify != ""
		}
		if urls, ok := dig(d, "avatar_larger", "url_list").([]any); ok && len(urls) > 0 {
			out["profilePicUrl"] = urls[0]
		}
		return out
	},
	"youtube": func(items []map[string]any) map[string]any {
		d := items[0]
		out := map[string]any{
			"name":           d["title"],
			"bio":            d["description"],
			"followersCount": d["subscriberCount"],
			"followingCount": 0,
			"videoCount":     d["videoCount"],
			"viewCount":      d["viewCount"],
			"profilePicUrl":  dig(d, "thumbnails", "medium"),
		}
		if custom, ok := d["customUrl"].(string); ok {
			out["username"] = replaceOnce(custom, "@", "")
		}
		return out
	},
	"facebook": func(items []map[string]any) map[string]any {
		d := items[0]
		return map[string]any{
			"username":       d["username"],
			"name":           d["name"],
			"about":          d["about"],
			"followersCount": d["followersCount"],
			"profilePicUrl":  d["profilePicUrl"],
			"isVerified":     d["isVerified"],
		}
	},
	"linkedin": func(items []map[string]any) map[string]any {
		d := items[0]
		return map[string]any{
			"username":         d["username"],
			"headline":         d["headline"],
			"summary":          d["summary"],
			"connectionsCount": d["connectionsCount"],
			"profilePicUrl":    d["profilePicUrl"],
		}
	},
	"reddit": func(items []map[string]any) map[string]any {
		d := items[0]
		return map[string]any{
			"username":       d["username"],
			"name":           d["displayName"],
			"bio":            d["description"],
			"followersCount": d["subscribersCount"],
			"karma":          d["karma"],
			"profilePicUrl":  d["userIcon"],
			"isGold":         d["isGold"],
		}
	},
	"twitch": func(items []map[string]any) map[string]any {
		d := items[0]
		return map[string]any{
			"username":       d["name"],
			"name":           d["displayName"],
			"bio":            d["description"],
			"followersCount": d["followers"],
			"profilePicUrl":  d["profileImageUrl"],
			"isVerified":     d["isPartner"],
		}
	},
}

// runState is the subset of the actor-run envelope the poller needs.
type runState struct {
	Data struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
}

// Scraper drives one actor platform account, configured per provider
// directory with an actor ID per social platform.
type Scraper struct {
	http     *provider.RetryClient
	logger   *zap.Logger
	runsBase string
	sleep    func(ctx context.Context, d time.Duration) error
}

func New(client *http.Client, attempts int, retryDelay time.Duration, logger *zap.Logger) *Scraper {
	if attempts <= 0 {
		attempts = 3
	}
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	return &Scraper{
		http:     provider.NewRetryClient(client, attempts, retryDelay, logger),
		logger:   logger,
		runsBase: runsAPIBase,
		sleep:    ctxSleep,
	}
}

func (s *Scraper) Scrape(ctx context.Context, opts provider.Options) (*provider.Outcome, error) {
	token := os.Getenv(opts.Config.APIKeyEnvVar)
	if token == "" {
		return nil, fmt.Errorf("environment variable %s is not set", opts.Config.APIKeyEnvVar)
	}
	actorID, ok := opts.Config.ActorIDs[opts.Platform]
	if !ok || actorID == "" {
		return nil, fmt.Errorf("no actor configured for platform %q", opts.Platform)
	}

	buildInput, ok := inputFor[opts.Platform]
	if !ok {
		return provider.Failure(fmt.Errorf("platform %q is not supported", opts.Platform)), nil
	}

	s.logger.Info("starting actor run",
		zap.String("platform", opts.Platform),
		zap.String("username", opts.Username),
		zap.String("actor", actorID))

	var started runState
	startURL := fmt.Sprintf("%s%s/runs?token=%s", opts.Config.BaseURL, actorID, token)
	if err := s.http.DoJSON(ctx, http.MethodPost, startURL, buildInput(opts.Username), &started); err != nil {
		return provider.Failure(fmt.Errorf("start actor run: %w", err)), nil
	}
	runID := started.Data.ID

	status, err := s.waitForRun(ctx, runID, token)
	if err != nil {
		return provider.Failure(err), nil
	}
	if status != "SUCCEEDED" {
		return provider.Failure(fmt.Errorf("actor run %s finished with status %s", runID, status)), nil
	}

	var items []map[string]any
	itemsURL := fmt.Sprintf("%s/%s/dataset/items?token=%s", s.runsBase, runID, token)
	if err := s.http.DoJSON(ctx, http.MethodGet, itemsURL, nil, &items); err != nil {
		return provider.Failure(fmt.Errorf("fetch dataset items: %w", err)), nil
	}
	if len(items) == 0 {
		return provider.Failure(fmt.Errorf("actor run %s produced no items", runID)), nil
	}

	mapper, ok := mapperFor[opts.Platform]
	if !ok {
		return provider.Failure(fmt.Errorf("no result mapper for platform %q", opts.Platform)), nil
	}
	formatted := mapper(items)

	now := time.Now().UTC()
	// The unmapped API response is kept alongside the run for auditing.
	apiRespPath := filepath.Join(opts.RunDir, "request-api", "api-response.json")
	if err := artifacts.WriteJSON(apiRespPath, items); err != nil {
		return nil, fmt.Errorf("persist api response: %w", err)
	}

	doc := artifacts.RawDocument{
		Metadata: artifacts.RawMetadata{
			ExtractedAt: now,
			Platform:    opts.Platform,
			Username:    opts.Username,
		},
		Profile: artifacts.Standardize(formatted, opts.Platform, opts.Username, now),
		RawData: formatted,
	}
	rawPath := filepath.Join(opts.RunDir, opts.RawFilename)
	if err := artifacts.SaveResult(rawPath, artifacts.ProfileDir(opts.RunDir), doc); err != nil {
		return nil, fmt.Errorf("persist result: %w", err)
	}

	return &provider.Outcome{Success: true, Data: formatted}, nil
}

// waitForRun polls the run status until it leaves RUNNING/READY or the time
// budget is spent, in which case the run is reported as TIMED_OUT.
func (s *Scraper) waitForRun(ctx context.Context, runID, token string) (string, error) {
	statusURL := fmt.Sprintf("%s/%s?token=%s&timeout=60", s.runsBase, runID, token)
	deadline := time.Now().Add(runBudget)
	for {
		if err := s.sleep(ctx, pollInterval); err != nil {
			return "", err
		}
		var state runState
		if err := s.http.DoJSON(ctx, http.MethodGet, statusURL, nil, &state); err != nil {
			return "", fmt.Errorf("poll actor run: %w", err)
		}
		status := state.Data.Status
		if time.Now().After(deadline) {
			return "TIMED_OUT", nil
		}
		if status != "RUNNING" && status != "READY" {
			return status, nil
		}
	}
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func dig(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[k]
	}
	return cur
}

func replaceOnce(s, old, new string) string {
	return strings.Replace(s, old, new, 1)
}
