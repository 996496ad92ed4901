package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/serpwatch/serpwatch/internal/keyword"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// StaticConfig controls the plain HTTP scraper.
type StaticConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// Static implements keyword.Scraper with a single HTTP GET per page. It is
// cheaper than the headless scraper but sees only the served markup.
type Static struct {
	cfg           StaticConfig
	baseURL       string
	baseCollector *colly.Collector
}

// NewStatic builds a Static scraper.
func NewStatic(cfg StaticConfig) *Static {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	return &Static{
		cfg:           cfg,
		baseURL:       defaultBaseURL,
		baseCollector: c,
	}
}

// Scrape fetches one results page and extracts its metrics.
func (s *Static) Scrape(ctx context.Context, text string, page int) (keyword.ScrapeResult, error) {
	collector := s.baseCollector.Clone()
	collector.UserAgent = s.cfg.UserAgent
	collector.SetRequestTimeout(s.cfg.Timeout)

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := collector.Visit(searchURL(s.baseURL, text, page)); err != nil && fetchErr == nil {
			fetchErr = err
		}
		collector.Wait()
	}()

	select {
	case <-ctx.Done():
		return keyword.ScrapeResult{}, fmt.Errorf("scrape canceled: %w", ctx.Err())
	case <-done:
	}

	if fetchErr != nil {
		return keyword.ScrapeResult{}, fmt.Errorf("fetch results page: %w", fetchErr)
	}
	if len(body) == 0 {
		return keyword.ScrapeResult{}, errors.New("empty results page body")
	}

	html := string(body)
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
