// Package scrapeapi implements scraping through an HTML rendering API. The
// upstream service renders the profile page server-side and returns the final
// DOM, which is mined for the subscriber count and profile picture.
package scrapeapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/socialscope/tracker/internal/artifacts"
	"github.com/socialscope/tracker/internal/provider"
)

var subscriberTextPattern = regexp.MustCompile(`(?i)(\d+\.?\d*[KMGT]?)\s*(subscribers|inscritos)`)

// Scraper talks to a ZenRows-style rendering endpoint configured through the
// provider directory's baseUrl and apiKeyEnvVar.
type Scraper struct {
	logger     *zap.Logger
	timeout    time.Duration
	attempts   int
	retryDelay time.Duration
}

func New(logger *zap.Logger) *Scraper {
	return &Scraper{logger: logger, timeout: 90 * time.Second, attempts: 3, retryDelay: time.Second}
}

func (s *Scraper) Scrape(ctx context.Context, opts provider.Options) (*provider.Outcome, error) {
	apiKey := os.Getenv(opts.Config.APIKeyEnvVar)
	if apiKey == "" {
		return nil, fmt.Errorf("environment variable %s is not set", opts.Config.APIKeyEnvVar)
	}

	target := provider.BuildProfileURL(opts.Platform, opts.Username)
	if target == "" {
		return provider.Failure(fmt.Errorf("no profile URL for platform %q", opts.Platform)), nil
	}

	renderURL, err := renderRequestURL(opts.Config.BaseURL, target, apiKey)
	if err != nil {
		return nil, fmt.Errorf("build render request: %w", err)
	}

	s.logger.Info("rendering profile page",
		zap.String("platform", opts.Platform),
		zap.String("username", opts.Username),
		zap.String("url", target))

	var doc *goquery.Selection
	err = provider.Retry(ctx, s.attempts, s.retryDelay, s.logger, "render page", func() error {
		fetched, fetchErr := s.fetchDOM(ctx, renderURL)
		if fetchErr != nil {
			return fetchErr
		}
		doc = fetched
		return nil
	})
	if err != nil {
		return provider.Failure(fmt.Errorf("render %s: %w", target, err)), nil
	}

	raw := map[string]any{
		"username":    opts.Username,
		"profile_url": target,
	}
	if text := subscriberText(doc); text != "" {
		if count, ok := provider.ParseCount(text); ok {
			raw["followers_count"] = count
		}
	}
	if picURL := profilePicURL(doc); picURL != "" {
		raw["profile_pic_url"] = picURL
		picPath := filepath.Join(opts.RunDir, fmt.Sprintf("profile-pic-%s.jpg", opts.Username))
		err := provider.Retry(ctx, s.attempts, s.retryDelay, s.logger, "download profile picture", func() error {
			return artifacts.DownloadResource(ctx, http.DefaultClient, picURL, picPath)
		})
		if err != nil {
			s.logger.Warn("profile picture download failed", zap.String("url", picURL), zap.Error(err))
		}
	}

	now := time.Now().UTC()
	result := artifacts.RawDocument{
		Metadata: artifacts.RawMetadata{
			ExtractedAt: now,
			Platform:    opts.Platform,
			Username:    opts.Username,
		},
		Profile: artifacts.Standardize(raw, opts.Platform, opts.Username, now),
		RawData: raw,
	}
	rawPath := filepath.Join(opts.RunDir, opts.RawFilename)
	if err := artifacts.SaveResult(rawPath, artifacts.ProfileDir(opts.RunDir), result); err != nil {
		return nil, fmt.Errorf("persist result: %w", err)
	}

	return &provider.Outcome{Success: true, Data: raw}, nil
}

// fetchDOM retrieves the rendered page and hands back its parsed document.
func (s *Scraper) fetchDOM(ctx context.Context, renderURL string) (*goquery.Selection, error) {
	collector := colly.NewCollector(colly.StdlibContext(ctx))
	collector.SetRequestTimeout(s.timeout)

	var root *goquery.Selection
	collector.OnHTML("html", func(e *colly.HTMLElement) {
		root = e.DOM
	})

	var visitErr error
	collector.OnError(func(_ *colly.Response, err error) {
		visitErr = err
	})

	if err := collector.Visit(renderURL); err != nil {
		return nil, err
	}
	collector.Wait()
	if visitErr != nil {
		return nil, visitErr
	}
	if root == nil {
		return nil, fmt.Errorf("empty document")
	}
	return root, nil
}

func renderRequestURL(baseURL, target, apiKey string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("url", target)
	q.Set("apikey", apiKey)
	q.Set("js_render", "true")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func subscriberText(doc *goquery.Selection) string {
	if content, ok := doc.Find(`meta[itemprop="interactionCount"]`).Attr("content"); ok && content != "" {
		return content
	}
	match := subscriberTextPattern.FindStringSubmatch(doc.Find("body").Text())
	if match != nil {
		return match[1]
	}
	return ""
}

func profilePicURL(doc *goquery.Selection) string {
	if content, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok && content != "" {
		return content
	}
	if src, ok := doc.Find(`img[src*="yt3.ggpht.com"]`).Attr("src"); ok {
		return src
	}
	return ""
}
