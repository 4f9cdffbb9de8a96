// Package browser manages the shared headless Chrome session passed to
// browser-based providers.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Config controls the headless session.
type Config struct {
	UserAgent         string
	NavigationTimeout time.Duration
}

// Session holds one browser instance with a single tab. The worker launches
// it once per run when the provider requires a browser and closes it on
// every exit path.
type Session struct {
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	logger      *zap.Logger
}

// Launch starts the browser and opens the shared tab.
func Launch(ctx context.Context, cfg Config, logger *zap.Logger) (*Session, error) {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 90 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.WindowSize(1280, 800),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	startup := []chromedp.Action{
		emulation.SetDeviceMetricsOverride(1280, 800, 1, false),
	}
	if cfg.UserAgent != "" {
		startup = append(startup, emulation.SetUserAgentOverride(cfg.UserAgent))
	}
	startupCtx, startupCancel := context.WithTimeout(tabCtx, cfg.NavigationTimeout)
	defer startupCancel()
	if err := chromedp.Run(startupCtx, startup...); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &Session{
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		logger:      logger,
	}, nil
}

// TabCtx returns the shared tab context providers run their actions on.
func (s *Session) TabCtx() context.Context {
	return s.tabCtx
}

// Close tears the browser down. It swallows its own failures so closing
// never masks the failure that triggered the teardown.
func (s *Session) Close() {
	if s == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Warn("browser close panicked", zap.Any("panic", rec))
		}
	}()
	s.tabCancel()
	s.allocCancel()
}
