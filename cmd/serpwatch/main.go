// Package main wires together the keyword scraping service binary.
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

	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/serpwatch/serpwatch/internal/api"
	"github.com/serpwatch/serpwatch/internal/clock/system"
	"github.com/serpwatch/serpwatch/internal/config"
	"github.com/serpwatch/serpwatch/internal/dispatcher"
	"github.com/serpwatch/serpwatch/internal/id/uuid"
	"github.com/serpwatch/serpwatch/internal/ingest"
	"github.com/serpwatch/serpwatch/internal/keyword"
	"github.com/serpwatch/serpwatch/internal/logging"
	"github.com/serpwatch/serpwatch/internal/notifier"
	"github.com/serpwatch/serpwatch/internal/policy/ratelimit"
	queuememory "github.com/serpwatch/serpwatch/internal/queue/memory"
	queuepubsub "github.com/serpwatch/serpwatch/internal/queue/pubsub"
	"github.com/serpwatch/serpwatch/internal/report"
	"github.com/serpwatch/serpwatch/internal/sanitize"
	"github.com/serpwatch/serpwatch/internal/scraper"
	"github.com/serpwatch/serpwatch/internal/storage/gcs"
	"github.com/serpwatch/serpwatch/internal/storage/local"
	storagememory "github.com/serpwatch/serpwatch/internal/storage/memory"
	"github.com/serpwatch/serpwatch/internal/storage/postgres"
	"github.com/serpwatch/serpwatch/internal/worker"
	"github.com/serpwatch/serpwatch/internal/ws"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("service failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	idGen := uuid.New()

	var (
		keywords    keyword.Store
		results     keyword.ResultStore
		caches      keyword.CacheStore
		connections keyword.ConnectionStore
	)
	if cfg.DB.DSN != "" {
		pool, err := postgres.Connect(ctx, postgres.Config{
			DSN:      cfg.DB.DSN,
			MaxConns: int32(cfg.DB.MaxOpenConns),
		})
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		if keywords, err = postgres.NewKeywordStore(pool); err != nil {
			return err
		}
		if results, err = postgres.NewResultStore(pool); err != nil {
			return err
		}
		if connections, err = postgres.NewConnectionStore(pool); err != nil {
			return err
		}
		if caches, err = postgres.NewCacheStore(pool, idGen); err != nil {
			return err
		}
	} else {
		logger.Warn("db.dsn not set, using in-memory stores")
		keywords = storagememory.NewKeywordStore()
		results = storagememory.NewResultStore()
		connections = storagememory.NewConnectionStore()
		caches = storagememory.NewCacheStore()
	}

	switch cfg.Cache.Backend {
	case "gcs":
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("create gcs client: %w", err)
		}
		defer client.Close()
		caches, err = gcs.New(client, gcs.Config{
			Bucket: cfg.Cache.GCSBucket,
			Prefix: cfg.Cache.Prefix,
		}, idGen)
		if err != nil {
			return err
		}
	case "local":
		var err error
		caches, err = local.New(local.Config{BaseDir: cfg.Cache.Dir}, idGen)
		if err != nil {
			return err
		}
	case "memory":
		caches = storagememory.NewCacheStore()
	case "postgres":
		// Already wired above; requires db.dsn.
		if cfg.DB.DSN == "" {
			logger.Warn("postgres cache requested without db.dsn, falling back to memory")
		}
	}

	var queue keyword.Queue
	switch cfg.Queue.Backend {
	case "pubsub":
		psQueue, err := queuepubsub.New(ctx, queuepubsub.Config{
			ProjectID:    cfg.Queue.ProjectID,
			TopicID:      cfg.Queue.TopicID,
			Subscription: cfg.Queue.Subscription,
			Buffer:       cfg.Queue.Depth,
		}, logger.Named("queue"))
		if err != nil {
			return fmt.Errorf("connect pubsub: %w", err)
		}
		defer func() {
			if err := psQueue.Close(); err != nil {
				logger.Error("pubsub queue close failed", zap.Error(err))
			}
		}()
		go func() {
			if err := psQueue.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("pubsub receive stopped", zap.Error(err))
			}
		}()
		queue = psQueue
	default:
		memQueue := queuememory.NewQueue(cfg.Queue.Depth)
		defer memQueue.Close()
		queue = memQueue
	}

	var scrape keyword.Scraper
	if cfg.Scraper.Engine == "headless" {
		headless, err := scraper.NewHeadless(scraper.HeadlessConfig{
			MaxParallel:       cfg.Scraper.MaxParallel,
			UserAgent:         cfg.Scraper.UserAgent,
			NavigationTimeout: cfg.NavTimeout(),
		})
		if err != nil {
			return fmt.Errorf("headless scraper init: %w", err)
		}
		defer headless.Close()
		scrape = headless
	} else {
		scrape = scraper.NewStatic(scraper.StaticConfig{
			UserAgent: cfg.Scraper.UserAgent,
			Timeout:   cfg.NavTimeout(),
		})
	}

	sanitizer := sanitize.New()
	reports := report.NewService(keywords, results, caches, sanitizer)
	hub := ws.NewHub(connections, idGen, system.New(), logger.Named("ws"))
	notify := notifier.New(connections, reports, hub, logger.Named("notifier"))
	limiter := ratelimit.New(ratelimit.Config{
		MaxStarts: cfg.Worker.RateMaxStarts,
		Window:    cfg.RateWindow(),
	})

	workerCfg := worker.Config{ScrapeTimeout: cfg.ScrapeTimeout()}
	var workers []*worker.Worker
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		workers = append(workers, worker.New(
			queue,
			keywords,
			results,
			caches,
			scrape,
			notify,
			limiter,
			workerCfg,
			logger.Named("worker").With(zap.Int("index", i)),
		))
	}
	dispatch := dispatcher.New(queue, workers)

	ingestSvc := ingest.NewService(keywords, queue, logger.Named("ingest"))
	apiServer := api.NewServer(keywords, ingestSvc, reports, hub, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("dispatcher started", zap.Int("workers", cfg.Worker.Concurrency))
		dispatch.Run(ctx)
	}()

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
