// Package worker implements the keyword processing pipeline: it drives each
// queued job through the status state machine, the scraper, result
// persistence, and the best-effort notification.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/serpwatch/serpwatch/internal/keyword"
	"github.com/serpwatch/serpwatch/internal/telemetry"
)

// StartLimiter gates how fast jobs may begin processing. The ratelimit
// package provides the production implementation.
type StartLimiter interface {
	Wait(ctx context.Context) error
}

// Config controls Worker behavior.
type Config struct {
	// ScrapeTimeout bounds a single scraper call; a timed-out scrape is a
	// scrape failure.
	ScrapeTimeout time.Duration
}

// Worker consumes jobs and executes the scrape pipeline. Run several Workers
// over one queue to bound concurrency; they share the StartLimiter.
type Worker struct {
	queue    keyword.Queue
	keywords keyword.Store
	results  keyword.ResultStore
	caches   keyword.CacheStore
	scraper  keyword.Scraper
	notifier keyword.Notifier
	limiter  StartLimiter
	cfg      Config
	logger   *zap.Logger
}

// New constructs a Worker.
func New(
	queue keyword.Queue,
	keywords keyword.Store,
	results keyword.ResultStore,
	caches keyword.CacheStore,
	scraper keyword.Scraper,
	notifier keyword.Notifier,
	limiter StartLimiter,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	if cfg.ScrapeTimeout <= 0 {
		cfg.ScrapeTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		queue:    queue,
		keywords: keywords,
		results:  results,
		caches:   caches,
		scraper:  scraper,
		notifier: notifier,
		limiter:  limiter,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run blocks, consuming jobs until the context finishes. A failure in one
// job never aborts the loop; every job resolves to a terminal keyword
// status before the next dequeue.
func (w *Worker) Run(ctx context.Context) {
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("dequeue failed", zap.Error(err))
			continue
		}
		w.processJob(ctx, job)
	}
}

func (w *Worker) processJob(ctx context.Context, job keyword.Job) {
	logger := w.logger.With(
		zap.Int64("keyword_id", job.KeywordID),
		zap.String("keyword", job.KeywordText),
	)

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			// Only context cancellation gets here; the job is dropped with
			// the rest of the shutdown.
			logger.Debug("job start canceled while rate limited", zap.Error(err))
			return
		}
	}

	logger.Info("processing keyword")

	if err := w.keywords.UpdateStatus(ctx, job.KeywordID, keyword.StatusInProgress); err != nil {
		if keyword.IsNotFound(err) {
			// Ingestion enqueued an id that was never persisted; that is a
			// bug, not a transient condition.
			logger.DPanic("queued job references missing keyword", zap.Error(err))
			return
		}
		logger.Error("mark keyword in progress failed", zap.Error(err))
		w.markFailed(ctx, job, logger)
		return
	}

	result, err := w.scrape(ctx, job)
	if err != nil {
		logger.Error("error scraping keyword", zap.Error(err))
		w.markFailed(ctx, job, logger)
		return
	}

	if err := w.persistResult(ctx, job, result); err != nil {
		logger.Error("persist scrape result failed", zap.Error(err))
		w.markFailed(ctx, job, logger)
		return
	}

	if err := w.keywords.UpdateStatus(ctx, job.KeywordID, keyword.StatusCompleted); err != nil {
		logger.Error("mark keyword completed failed", zap.Error(err))
		return
	}
	telemetry.IncKeywordProcessed(keyword.StatusCompleted.String())
	logger.Info("finished processing keyword")

	w.notifier.Notify(ctx, job.OwnerID, job.KeywordID)
}

// scrape runs the scraper under the configured timeout and rejects empty
// pages; an empty result is indistinguishable from a failed scrape for
// callers downstream.
func (w *Worker) scrape(ctx context.Context, job keyword.Job) (keyword.ScrapeResult, error) {
	scrapeCtx, cancel := context.WithTimeout(ctx, w.cfg.ScrapeTimeout)
	defer cancel()

	start := time.Now()
	result, err := w.scraper.Scrape(scrapeCtx, job.KeywordText, 0)
	if err != nil {
		telemetry.ObserveScrapeDuration("failure", time.Since(start))
		return keyword.ScrapeResult{}, fmt.Errorf("scrape keyword: %w", err)
	}
	if result.HTML == "" {
		telemetry.ObserveScrapeDuration("failure", time.Since(start))
		return keyword.ScrapeResult{}, errors.New("scraper returned empty result")
	}
	telemetry.ObserveScrapeDuration("success", time.Since(start))
	return result, nil
}

// persistResult writes the html cache first so the result row never carries
// a dangling cache reference.
func (w *Worker) persistResult(ctx context.Context, job keyword.Job, result keyword.ScrapeResult) error {
	cacheID, err := w.caches.Put(ctx, result.HTML)
	if err != nil {
		return fmt.Errorf("save html page cache: %w", err)
	}
	_, err = w.results.Create(ctx, keyword.SearchResult{
		KeywordID:  job.KeywordID,
		TotalAds:   result.TotalAds,
		TotalLinks: result.TotalLinks,
		CacheID:    cacheID,
	})
	if err != nil {
		return fmt.Errorf("save search result: %w", err)
	}
	return nil
}

func (w *Worker) markFailed(ctx context.Context, job keyword.Job, logger *zap.Logger) {
	if err := w.keywords.UpdateStatus(ctx, job.KeywordID, keyword.StatusFailed); err != nil {
		logger.Error("mark keyword failed failed", zap.Error(err))
		return
	}
	telemetry.IncKeywordProcessed(keyword.StatusFailed.String())
}
