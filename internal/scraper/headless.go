package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/serpwatch/serpwatch/internal/keyword"
)

// HeadlessConfig controls the chromedp-backed scraper.
type HeadlessConfig struct {
	MaxParallel       int
	UserAgent         string
	NavigationTimeout time.Duration
}

// Headless implements keyword.Scraper with a headless browser, so the
// counts reflect the rendered DOM including script-inserted ad blocks.
type Headless struct {
	cfg         HeadlessConfig
	limiter     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
}

// NewHeadless creates a headless scraper backed by chromedp.
func NewHeadless(cfg HeadlessConfig) (*Headless, error) {
	if cfg.MaxParallel < 0 {
		return nil, errors.New("max parallel must be >= 0")
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	var limiter chan struct{}
	if cfg.MaxParallel > 0 {
		limiter = make(chan struct{}, cfg.MaxParallel)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Headless{
		cfg:         cfg,
		limiter:     limiter,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close cancels the allocator context.
func (h *Headless) Close() {
	h.allocCancel()
}

// Scrape renders one results page and extracts its metrics.
func (h *Headless) Scrape(ctx context.Context, text string, page int) (keyword.ScrapeResult, error) {
	if err := h.acquire(ctx); err != nil {
		return keyword.ScrapeResult{}, err
	}
	defer h.release()

	taskCtx, taskCancel := chromedp.NewContext(h.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, h.cfg.NavigationTimeout)
	defer cancel()

	// Tie the browser task to the caller's context so job cancellation
	// tears the navigation down.
	go func() {
		select {
		case <-ctx.Done():
			taskCancel()
		case <-taskCtx.Done():
		}
	}()

	var html string
	actions := []chromedp.Action{
		emulation.SetDeviceMetricsOverride(1280, 800, 1.0, false),
		chromedp.Navigate(searchURL(defaultBaseURL, text, page)),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return keyword.ScrapeResult{}, fmt.Errorf("chromedp run: %w", err)
	}
	if html == "" {
		return keyword.ScrapeResult{}, errors.New("empty rendered page")
	}

	totalAds, totalLinks, err := extractMetrics(html)
	if err != nil {
		return keyword.ScrapeResult{}, err
	}
	return keyword.ScrapeResult{
		TotalAds:   totalAds,
		TotalLinks: totalLinks,
		HTML:       html,
	}, nil
}

func (h *Headless) acquire(ctx context.Context) error {
	if h.limiter == nil {
		return nil
	}
	select {
	case h.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("acquire headless slot: %w", ctx.Err())
	}
}

func (h *Headless) release() {
	if h.limiter == nil {
		return
	}
	<-h.limiter
}
