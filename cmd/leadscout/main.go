// Package main wires together the lead scraper service binary.
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

	"go.uber.org/zap"

	"github.com/mspscout/leadscout/internal/api"
	"github.com/mspscout/leadscout/internal/cache"
	"github.com/mspscout/leadscout/internal/clock/system"
	"github.com/mspscout/leadscout/internal/config"
	"github.com/mspscout/leadscout/internal/enrich"
	"github.com/mspscout/leadscout/internal/events"
	"github.com/mspscout/leadscout/internal/fetch"
	"github.com/mspscout/leadscout/internal/id/uuid"
	"github.com/mspscout/leadscout/internal/leads"
	"github.com/mspscout/leadscout/internal/logging"
	"github.com/mspscout/leadscout/internal/metrics"
	"github.com/mspscout/leadscout/internal/pipeline"
	"github.com/mspscout/leadscout/internal/runner"
	"github.com/mspscout/leadscout/internal/search"
	memoryStorage "github.com/mspscout/leadscout/internal/storage/memory"
	"github.com/mspscout/leadscout/internal/storage/postgres"
	"github.com/mspscout/leadscout/internal/website"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
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

	clock := system.New()
	idGen := uuid.New()

	var (
		jobStore  leads.JobStore
		leadStore leads.LeadStore
		pgStore   *postgres.Store
	)
	if cfg.DB.DSN != "" {
		pgStore, err = postgres.New(ctx, cfg.DB.DSN)
		if err != nil {
			logger.Fatal("postgres init failed", zap.Error(err))
		}
		defer pgStore.Close()
		jobStore, leadStore = pgStore, pgStore
		logger.Info("using postgres stores")
	} else {
		mem := memoryStorage.New(clock)
		jobStore, leadStore = mem, mem
		logger.Info("using in-memory stores")
	}

	var lookupCache cache.Cache
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("redis init failed, using in-memory cache", zap.Error(err))
			lookupCache = cache.NewMemory()
		} else {
			defer redisCache.Close()
			lookupCache = redisCache
			logger.Info("using redis cache", zap.String("addr", cfg.Redis.Addr))
		}
	} else {
		lookupCache = cache.NewMemory()
	}

	searcher := search.New(search.Config{
		PageDelay: time.Duration(cfg.Scrape.PageDelayMs) * time.Millisecond,
		Timeout:   cfg.RequestTimeout(),
		UserAgent: cfg.Scrape.UserAgent,
	}, lookupCache, logger.Named("search"))

	fetcher := fetch.New(fetch.Config{
		UserAgent:      cfg.Scrape.UserAgent,
		Timeout:        cfg.RequestTimeout(),
		MaxRetries:     cfg.HTTP.MaxRetries,
		BackoffInitial: time.Duration(cfg.HTTP.BackoffInitialMs) * time.Millisecond,
		BackoffMax:     time.Duration(cfg.HTTP.BackoffMaxMs) * time.Millisecond,
	}, logger.Named("fetch"))
	extractor := website.New(fetcher, logger.Named("website"))

	enricher := enrich.New(enrich.Config{
		Timeout:   cfg.RequestTimeout(),
		UserAgent: cfg.Scrape.UserAgent,
	}, lookupCache, logger.Named("enrich"))

	bus := events.NewBus(logger.Named("events"))
	orch := pipeline.New(jobStore, leadStore, searcher, extractor, enricher, bus, idGen, nil, logger.Named("pipeline"))
	jobRunner := runner.NewBackground(logger.Named("runner"), orch.FailFromPanic)

	apiServer := api.NewServer(jobStore, leadStore, jobRunner, orch, bus, idGen, clock, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

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
	if err := jobRunner.Shutdown(shutdownCtx); err != nil {
		logger.Error("runner shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
