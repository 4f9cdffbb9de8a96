// Package main runs one scrape job and reports the result back to the
// tracker service webhook. The launcher spawns it per job.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/socialscope/tracker/internal/clock/system"
	"github.com/socialscope/tracker/internal/config"
	"github.com/socialscope/tracker/internal/logging"
	"github.com/socialscope/tracker/internal/provider"
	"github.com/socialscope/tracker/internal/provider/browser"
	"github.com/socialscope/tracker/internal/webhook"
	"github.com/socialscope/tracker/internal/worker"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: scrapeworker [-config path] <platform> <username> <provider> <profileId> <userId>")
}

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) != 5 {
		usage()
		os.Exit(2)
	}
	profileID, err := strconv.ParseInt(args[3], 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid profileId %q: %v\n", args[3], err)
		os.Exit(2)
	}
	userID, err := strconv.ParseInt(args[4], 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid userId %q: %v\n", args[4], err)
		os.Exit(2)
	}
	params := worker.Params{
		Platform:  args[0],
		Username:  args[1],
		Provider:  args[2],
		ProfileID: profileID,
		UserID:    userID,
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.FilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	logger = logger.With(
		zap.Int64("profile_id", params.ProfileID),
		zap.String("platform", params.Platform),
		zap.String("provider", params.Provider))

	navTimeout := time.Duration(cfg.Headless.NavTimeoutSec) * time.Second
	sender := webhook.NewClient(
		cfg.Webhook.URL(),
		cfg.Webhook.MaxAttempts,
		cfg.Webhook.RetryDelay(),
		cfg.Webhook.Timeout(),
		logger.Named("webhook"),
	)
	registry := provider.NewRegistry(cfg.Worker.ProvidersDir, logger.Named("registry"))
	scrapers := worker.DefaultScrapers(
		navTimeout,
		cfg.Worker.HTTPRetries,
		time.Duration(cfg.Worker.HTTPDelayMs)*time.Millisecond,
		logger,
	)
	runner := worker.NewRunner(
		registry,
		scrapers,
		sender,
		cfg.Worker.DataDir,
		browser.Config{UserAgent: cfg.Headless.UserAgent, NavigationTimeout: navTimeout},
		system.New(),
		logger,
	)

	if err := runner.Run(context.Background(), params); err != nil {
		logger.Error("scrape run failed", zap.Error(err))
		os.Exit(1)
	}
}
