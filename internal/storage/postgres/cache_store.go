package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/serpwatch/serpwatch/internal/keyword"
)

// CacheStore persists raw HTML blobs in Postgres, addressed by a generated
// surrogate id. Rows are never updated or deleted.
type CacheStore struct {
	pool  Pool
	idGen keyword.IDGenerator
}

// NewCacheStore wraps the pool with html page cache persistence.
func NewCacheStore(pool Pool, idGen keyword.IDGenerator) (*CacheStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	if idGen == nil {
		return nil, errors.New("id generator is required")
	}
	return &CacheStore{pool: pool, idGen: idGen}, nil
}

const insertCacheSQL = `
INSERT INTO html_page_caches (id, html)
VALUES ($1, $2)`

// Put stores the html under a fresh surrogate id and returns that id.
func (s *CacheStore) Put(ctx context.Context, html string) (string, error) {
	if html == "" {
		return "", keyword.NewValidation("html is required")
	}
	id, err := s.idGen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate cache id: %w", err)
	}
	if _, err := s.pool.Exec(ctx, insertCacheSQL, id, html); err != nil {
		return "", fmt.Errorf("insert html page cache: %w", err)
	}
	return id, nil
}

const selectCacheSQL = `
SELECT id, html, created_at
FROM html_page_caches
WHERE id = $1`

// Get fetches one cached page by id.
func (s *CacheStore) Get(ctx context.Context, id string) (keyword.PageCache, error) {
	var cache keyword.PageCache
	row := s.pool.QueryRow(ctx, selectCacheSQL, id)
	if err := row.Scan(&cache.ID, &cache.HTML, &cache.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return keyword.PageCache{}, keyword.NewNotFound("Can not found html page cache of keyword")
		}
		return keyword.PageCache{}, fmt.Errorf("select html page cache: %w", err)
	}
	return cache, nil
}
