package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/serpwatch/serpwatch/internal/keyword"
)

// CacheStore is an in-memory keyword.CacheStore.
type CacheStore struct {
	mu     sync.RWMutex
	nextID int64
	caches map[string]keyword.PageCache
}

// NewCacheStore constructs a CacheStore.
func NewCacheStore() *CacheStore {
	return &CacheStore{
		nextID: 1,
		caches: make(map[string]keyword.PageCache),
	}
}

// Put stores the html and returns its surrogate id.
func (s *CacheStore) Put(_ context.Context, html string) (string, error) {
	if html == "" {
		return "", keyword.NewValidation("html is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("cache-%d", s.nextID)
	s.nextID++
	s.caches[id] = keyword.PageCache{
		ID:        id,
		HTML:      html,
		CreatedAt: time.Now().UTC(),
	}
	return id, nil
}

// Get fetches one cached page by id.
func (s *CacheStore) Get(_ context.Context, id string) (keyword.PageCache, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cache, ok := s.caches[id]
	if !ok {
		return keyword.PageCache{}, keyword.NewNotFound("Can not found html page cache of keyword")
	}
	return cache, nil
}
