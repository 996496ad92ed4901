package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/serpwatch/serpwatch/internal/keyword"
)

// ResultStore persists search result rows in Postgres.
type ResultStore struct {
	pool Pool
}

// NewResultStore wraps the pool with search result persistence.
func NewResultStore(pool Pool) (*ResultStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &ResultStore{pool: pool}, nil
}

const insertResultSQL = `
INSERT INTO search_results (keyword_id, total_ads, total_links, html_cache_id)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at, updated_at`

// Create inserts the result row. The keyword_id column carries a unique
// constraint, so a second insert for the same keyword fails rather than
// overwriting.
func (s *ResultStore) Create(ctx context.Context, result keyword.SearchResult) (keyword.SearchResult, error) {
	if result.KeywordID == 0 {
		return keyword.SearchResult{}, keyword.NewValidation("keyword id is required")
	}
	if result.TotalAds < 0 || result.TotalLinks < 0 {
		return keyword.SearchResult{}, keyword.NewValidation("counts must be non-negative")
	}
	cacheID := sql.NullString{String: result.CacheID, Valid: result.CacheID != ""}
	row := s.pool.QueryRow(ctx, insertResultSQL, result.KeywordID, result.TotalAds, result.TotalLinks, cacheID)
	if err := row.Scan(&result.ID, &result.CreatedAt, &result.UpdatedAt); err != nil {
		return keyword.SearchResult{}, fmt.Errorf("insert search result: %w", err)
	}
	return result, nil
}

const selectResultSQL = `
SELECT id, keyword_id, total_ads, total_links, html_cache_id, created_at, updated_at
FROM search_results
WHERE keyword_id = $1`

// GetByKeywordID fetches the result row for a keyword.
func (s *ResultStore) GetByKeywordID(ctx context.Context, keywordID int64) (keyword.SearchResult, error) {
	var (
		result  keyword.SearchResult
		cacheID sql.NullString
	)
	row := s.pool.QueryRow(ctx, selectResultSQL, keywordID)
	err := row.Scan(
		&result.ID,
		&result.KeywordID,
		&result.TotalAds,
		&result.TotalLinks,
		&cacheID,
		&result.CreatedAt,
		&result.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return keyword.SearchResult{}, keyword.NewNotFound("Can not found search result of keyword")
		}
		return keyword.SearchResult{}, fmt.Errorf("select search result: %w", err)
	}
	if cacheID.Valid {
		result.CacheID = cacheID.String
	}
	return result, nil
}
