// Package headless implements the default scraper. It drives a shared
// Chrome tab to load the public profile page and lifts whatever the page
// exposes through meta tags and platform-specific counters.
package headless

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/socialscope/tracker/internal/artifacts"
	"github.com/socialscope/tracker/internal/provider"
)

const settleDelay = 5 * time.Second

// pageExtract mirrors the object assembled by the in-page script.
type pageExtract struct {
	Image         string `json:"image"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	FollowersText string `json:"followersText"`
}

const extractScript = `(() => {
	const meta = (sel) => {
		const el = document.querySelector(sel);
		return el ? el.getAttribute("content") || "" : "";
	};
	const out = {
		image: meta('meta[property="og:image"]'),
		title: meta('meta[property="og:title"]'),
		description: meta('meta[property="og:description"]') || meta('meta[name="description"]'),
		followersText: "",
	};
	const sub = document.querySelector("#subscriber-count");
	if (sub) {
		out.followersText = sub.innerText || "";
	}
	if (!out.followersText) {
		const m = (out.description || "").match(/([\d.,]+\s*[KMB]?)\s+(Followers|followers|seguidores|subscribers)/);
		if (m) {
			out.followersText = m[1];
		}
	}
	return out;
})()`

// Scraper is the zero-config fallback used when a profile has no
// provider-specific configuration.
type Scraper struct {
	navTimeout time.Duration
	logger     *zap.Logger
}

func New(navTimeout time.Duration, logger *zap.Logger) *Scraper {
	if navTimeout <= 0 {
		navTimeout = 60 * time.Second
	}
	return &Scraper{navTimeout: navTimeout, logger: logger}
}

func (s *Scraper) Scrape(ctx context.Context, opts provider.Options) (*provider.Outcome, error) {
	if opts.BrowserCtx == nil {
		return nil, fmt.Errorf("headless: browser session not available")
	}

	target := opts.BaseURL
	if target == "" {
		target = provider.BuildProfileURL(opts.Platform, opts.Username)
	}
	if target == "" {
		return provider.Failure(fmt.Errorf("no profile URL for platform %q", opts.Platform)), nil
	}

	navCtx, cancel := context.WithTimeout(opts.BrowserCtx, s.navTimeout)
	defer cancel()

	var extract pageExtract
	err := chromedp.Run(navCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
		chromedp.Evaluate(extractScript, &extract),
	)
	if err != nil {
		s.logger.Warn("page extraction failed",
			zap.String("url", target),
			zap.String("platform", opts.Platform),
			zap.Error(err))
		return provider.Failure(fmt.Errorf("load %s: %w", target, err)), nil
	}

	raw := map[string]any{
		"username":    opts.Username,
		"profile_url": target,
	}
	if extract.Image != "" {
		raw["profile_pic_url"] = extract.Image
	}
	if extract.Title != "" {
		raw["full_name"] = strings.TrimSpace(extract.Title)
	}
	if extract.Description != "" {
		raw["biography"] = extract.Description
	}
	if count, ok := provider.ParseCount(extract.FollowersText); ok {
		raw["followers_count"] = count
	}

	now := time.Now().UTC()
	doc := artifacts.RawDocument{
		Metadata: artifacts.RawMetadata{
			ExtractedAt: now,
			Platform:    opts.Platform,
			Username:    opts.Username,
		},
		Profile: artifacts.Standardize(raw, opts.Platform, opts.Username, now),
		RawData: raw,
	}
	rawPath := filepath.Join(opts.RunDir, opts.RawFilename)
	profileDir := artifacts.ProfileDir(opts.RunDir)
	if err := artifacts.SaveResult(rawPath, profileDir, doc); err != nil {
		return nil, fmt.Errorf("persist result: %w", err)
	}

	s.logger.Info("headless scrape done",
		zap.String("platform", opts.Platform),
		zap.String("username", opts.Username),
		zap.String("url", target))
	return &provider.Outcome{Success: true, Data: raw}, nil
}
