// Package provider defines the pluggable scraping backend contract and the
// directory-based provider registry.
package provider

import (
	"context"
)

// Options parameterize one scrape invocation.
type Options struct {
	Platform string
	Username string
	// RunDir is the per-run directory; plugins create their own
	// subdirectories under it before writing artifacts.
	RunDir      string
	RawFilename string
	BaseURL     string
	Config      Config
	ProfileID   int64
	UserID      int64
	// BrowserCtx is the shared chromedp tab context, non-nil only when the
	// provider config declares requiresBrowser.
	BrowserCtx context.Context
}

// Outcome is the uniform result of a scrape. Success=false carries a
// sanitized business-level failure; programmer/config errors are returned as
// Go errors instead and abort the job.
type Outcome struct {
	Success bool            `json:"success"`
	Data    map[string]any  `json:"data,omitempty"`
	Error   *SanitizedError `json:"error,omitempty"`
}

// Scraper is the uniform contract every provider variant implements.
type Scraper interface {
	Scrape(ctx context.Context, opts Options) (*Outcome, error)
}

// Failure wraps a business-level error into a failed Outcome.
func Failure(err error) *Outcome {
	return &Outcome{Success: false, Error: Sanitize(err)}
}
