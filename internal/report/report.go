// Package report assembles the user-facing view of a processed keyword:
// the saved metrics joined with the sanitized cached HTML page.
package report

import (
	"context"
	"fmt"

	"github.com/serpwatch/serpwatch/internal/keyword"
)

// Service reads completed keywords and builds report payloads. It never
// mutates keyword or result state.
type Service struct {
	keywords  keyword.Store
	results   keyword.ResultStore
	caches    keyword.CacheStore
	sanitizer keyword.Sanitizer
}

// NewService constructs a Service.
func NewService(
	keywords keyword.Store,
	results keyword.ResultStore,
	caches keyword.CacheStore,
	sanitizer keyword.Sanitizer,
) *Service {
	return &Service{
		keywords:  keywords,
		results:   results,
		caches:    caches,
		sanitizer: sanitizer,
	}
}

// GetScrapedResult returns the report for a completed keyword. The cached
// HTML is sanitized before it leaves the service; the raw page is never
// exposed.
func (s *Service) GetScrapedResult(ctx context.Context, keywordID int64) (keyword.Report, error) {
	if keywordID <= 0 {
		return keyword.Report{}, keyword.NewValidation("keyword id must be positive")
	}

	kw, err := s.keywords.Get(ctx, keywordID)
	if err != nil {
		if keyword.IsNotFound(err) {
			return keyword.Report{}, keyword.NewNotFound("Keyword not found")
		}
		return keyword.Report{}, fmt.Errorf("load keyword: %w", err)
	}

	if kw.Status != keyword.StatusCompleted {
		return keyword.Report{}, keyword.NewInvalidState("Can not get in-completed keyword")
	}

	result, err := s.results.GetByKeywordID(ctx, keywordID)
	if err != nil {
		if keyword.IsNotFound(err) {
			return keyword.Report{}, keyword.NewNotFound("Can not found search result of keyword")
		}
		return keyword.Report{}, fmt.Errorf("load search result: %w", err)
	}

	if result.CacheID == "" {
		return keyword.Report{}, keyword.NewNotFound("No html page cache attached")
	}

	cache, err := s.caches.Get(ctx, result.CacheID)
	if err != nil {
		if keyword.IsNotFound(err) {
			return keyword.Report{}, keyword.NewNotFound("Can not found html page cache of keyword")
		}
		return keyword.Report{}, fmt.Errorf("load html page cache: %w", err)
	}

	return keyword.Report{
		KeywordID:  kw.ID,
		Keyword:    kw.Text,
		Status:     kw.Status,
		TotalAds:   result.TotalAds,
		TotalLinks: result.TotalLinks,
		HTML:       s.sanitizer.Sanitize(cache.HTML),
		CreatedAt:  kw.CreatedAt,
		UpdatedAt:  kw.UpdatedAt,
	}, nil
}
