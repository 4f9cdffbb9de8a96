// Package main runs the tracker service: the HTTP API, the scrape launcher
// and the deadline sweeper.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/socialscope/tracker/internal/api"
	gcsarchive "github.com/socialscope/tracker/internal/archive/gcs"
	"github.com/socialscope/tracker/internal/clock/system"
	"github.com/socialscope/tracker/internal/config"
	"github.com/socialscope/tracker/internal/id/uuid"
	"github.com/socialscope/tracker/internal/launcher"
	"github.com/socialscope/tracker/internal/logging"
	"github.com/socialscope/tracker/internal/metrics"
	"github.com/socialscope/tracker/internal/provider"
	pubsubpublisher "github.com/socialscope/tracker/internal/publisher/pubsub"
	"github.com/socialscope/tracker/internal/reconciler"
	"github.com/socialscope/tracker/internal/storage/postgres"
	"github.com/socialscope/tracker/internal/tracker"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

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
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		DSN:      cfg.DB.DSN,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		logger.Fatal("postgres pool init failed", zap.Error(err))
	}
	defer pool.Close()

	profiles, err := postgres.NewProfileStore(pool)
	if err != nil {
		logger.Fatal("profile store init failed", zap.Error(err))
	}
	history, err := postgres.NewHistoryStore(pool)
	if err != nil {
		logger.Fatal("history store init failed", zap.Error(err))
	}
	scrapes, err := postgres.NewScrapeStore(pool)
	if err != nil {
		logger.Fatal("scrape store init failed", zap.Error(err))
	}
	settings, err := postgres.NewSettingsStore(pool)
	if err != nil {
		logger.Fatal("settings store init failed", zap.Error(err))
	}

	registry := provider.NewRegistry(cfg.Worker.ProvidersDir, logger.Named("registry"))
	clock := system.New()
	ids := uuid.New()

	var blobs tracker.BlobStore
	if cfg.Archive.GCSBucket != "" {
		gcsClient, err := storage.NewClient(ctx)
		if err != nil {
			logger.Fatal("gcs client init failed", zap.Error(err))
		}
		defer func() {
			_ = gcsClient.Close()
		}()
		blobs, err = gcsarchive.New(gcsClient, gcsarchive.Config{
			Bucket: cfg.Archive.GCSBucket,
			Prefix: cfg.Archive.Prefix,
		})
		if err != nil {
			logger.Fatal("blob store init failed", zap.Error(err))
		}
	}

	var events tracker.Publisher
	if cfg.PubSub.ProjectID != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("pubsub client init failed", zap.Error(err))
		}
		defer func() {
			_ = pubsubClient.Close()
		}()
		events, err = pubsubpublisher.New(pubsubClient)
		if err != nil {
			logger.Fatal("publisher init failed", zap.Error(err))
		}
	}

	launch := launcher.New(profiles, settings, scrapes, ids, clock, cfg.Worker.Binary, cfg.Sweep.Deadline(), logger.Named("launcher"))
	sweeper := launcher.NewSweeper(profiles, scrapes, clock, cfg.Sweep.Interval(), logger.Named("sweeper"))
	recon := reconciler.New(scrapes, blobs, events, cfg.PubSub.TopicName, clock, logger.Named("reconciler"))
	apiServer := api.NewServer(profiles, history, settings, registry, launch, recon, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("sweeper started", zap.Duration("interval", cfg.Sweep.Interval()))
		sweeper.Run(ctx)
	}()

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
