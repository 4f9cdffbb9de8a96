// Package worker implements the out-of-process scrape run: resolve the
// provider, execute the scrape, and report the result through the webhook.
package worker

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/socialscope/tracker/internal/artifacts"
	"github.com/socialscope/tracker/internal/provider"
	"github.com/socialscope/tracker/internal/provider/actorapi"
	"github.com/socialscope/tracker/internal/provider/browser"
	"github.com/socialscope/tracker/internal/provider/headless"
	"github.com/socialscope/tracker/internal/provider/scrapeapi"
	"github.com/socialscope/tracker/internal/tracker"
	"github.com/socialscope/tracker/internal/webhook"
)

// Params are the five positional arguments of one worker invocation.
type Params struct {
	Platform  string
	Username  string
	Provider  string
	ProfileID int64
	UserID    int64
}

// Sender delivers the result payload to the tracker server.
type Sender interface {
	Send(ctx context.Context, payload tracker.ResultPayload) bool
}

var _ Sender = (*webhook.Client)(nil)

// Runner executes a single scrape run end to end.
type Runner struct {
	registry   *provider.Registry
	scrapers   map[string]provider.Scraper
	webhook    Sender
	dataDir    string
	browserCfg browser.Config
	clock      tracker.Clock
	logger     *zap.Logger

	// launchBrowser is swapped out in tests.
	launchBrowser func(ctx context.Context, cfg browser.Config, logger *zap.Logger) (*browser.Session, error)
}

func NewRunner(registry *provider.Registry, scrapers map[string]provider.Scraper, sender Sender, dataDir string, browserCfg browser.Config, clock tracker.Clock, logger *zap.Logger) *Runner {
	return &Runner{
		registry:      registry,
		scrapers:      scrapers,
		webhook:       sender,
		dataDir:       dataDir,
		browserCfg:    browserCfg,
		clock:         clock,
		logger:        logger,
		launchBrowser: browser.Launch,
	}
}

// DefaultScrapers is the catalog of built-in provider implementations, keyed
// by config name.
func DefaultScrapers(navTimeout time.Duration, httpAttempts int, httpRetryDelay time.Duration, logger *zap.Logger) map[string]provider.Scraper {
	return map[string]provider.Scraper{
		"default": headless.New(navTimeout, logger),
		"apify":   actorapi.New(http.DefaultClient, httpAttempts, httpRetryDelay, logger),
		"zenrows": scrapeapi.New(logger),
	}
}

// Run performs the scrape and sends the webhook. A returned error means the
// run died before producing a reportable result; no webhook is sent and the
// process should exit nonzero.
func (r *Runner) Run(ctx context.Context, p Params) error {
	cfg, err := r.registry.Resolve(p.Provider)
	if err != nil {
		return fmt.Errorf("resolve provider: %w", err)
	}
	scraper, ok := r.scrapers[cfg.Name]
	if !ok {
		return fmt.Errorf("provider %q has no scraper implementation", cfg.Name)
	}

	now := r.clock.Now()
	runDir := artifacts.RunDir(r.dataDir, p.UserID, p.Platform, cfg.Name, now)
	if err := os.MkdirAll(runDir, 0o750); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}
	profileDir := artifacts.ProfileDir(runDir)
	rawFilename := artifacts.RawFilename(p.Platform, now)

	opts := provider.Options{
		Platform:    p.Platform,
		Username:    p.Username,
		RunDir:      runDir,
		RawFilename: rawFilename,
		BaseURL:     cfg.BaseURL,
		Config:      cfg,
		ProfileID:   p.ProfileID,
		UserID:      p.UserID,
	}

	if cfg.RequiresBrowser {
		session, err := r.launchBrowser(ctx, r.browserCfg, r.logger)
		if err != nil {
			return fmt.Errorf("launch browser: %w", err)
		}
		defer session.Close()
		opts.BrowserCtx = session.TabCtx()
	}

	r.logger.Info("scrape run starting",
		zap.String("platform", p.Platform),
		zap.String("username", p.Username),
		zap.String("provider", cfg.Name),
		zap.Int64("profile_id", p.ProfileID))

	outcome, err := scraper.Scrape(ctx, opts)
	if err != nil {
		return fmt.Errorf("scrape %s/%s: %w", p.Platform, p.Username, err)
	}

	payload := r.buildPayload(p, cfg.Name, runDir, profileDir, rawFilename, outcome)
	if !r.webhook.Send(ctx, payload) {
		r.logger.Error("result could not be delivered",
			zap.Int64("profile_id", p.ProfileID),
			zap.String("status", string(payload.Status)))
	}
	return nil
}

func (r *Runner) buildPayload(p Params, providerName, runDir, profileDir, rawFilename string, outcome *provider.Outcome) tracker.ResultPayload {
	payload := tracker.ResultPayload{
		ProfileID:  p.ProfileID,
		UserID:     p.UserID,
		Platform:   p.Platform,
		Username:   p.Username,
		Provider:   providerName,
		ProfileDir: profileDir,
		RawPath:    filepath.Join(runDir, rawFilename),
		RawResult:  map[string]any{},
	}

	if outcome.Success {
		payload.Status = tracker.StatusCompleted
	} else {
		payload.Status = tracker.StatusError
		if outcome.Error != nil {
			payload.ErrorMessage = outcome.Error.Message
		}
	}

	resultData, err := artifacts.ReadProfileData(profileDir)
	if err != nil {
		r.logger.Warn("profile data unreadable", zap.String("dir", profileDir), zap.Error(err))
	}
	if resultData != nil {
		payload.RawResult = resultData
		if pic, ok := resultData["profile_pic_url"].(string); ok {
			payload.ProfilePicURL = pic
		}
		payload.FollowersCount = artifacts.FollowersFrom(resultData)
	}
	return payload
}
