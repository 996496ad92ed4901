package memory

import (
	"context"
	"sync"
	"time"

	"github.com/serpwatch/serpwatch/internal/keyword"
)

// ResultStore is an in-memory keyword.ResultStore.
type ResultStore struct {
	mu        sync.RWMutex
	nextID    int64
	byKeyword map[int64]keyword.SearchResult
}

// NewResultStore constructs a ResultStore.
func NewResultStore() *ResultStore {
	return &ResultStore{
		nextID:    1,
		byKeyword: make(map[int64]keyword.SearchResult),
	}
}

// Create inserts the result row; a second insert for the same keyword fails.
func (s *ResultStore) Create(_ context.Context, result keyword.SearchResult) (keyword.SearchResult, error) {
	if result.KeywordID == 0 {
		return keyword.SearchResult{}, keyword.NewValidation("keyword id is required")
	}
	if result.TotalAds < 0 || result.TotalLinks < 0 {
		return keyword.SearchResult{}, keyword.NewValidation("counts must be non-negative")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byKeyword[result.KeywordID]; exists {
		return keyword.SearchResult{}, keyword.NewValidation("search result already exists for keyword")
	}
	now := time.Now().UTC()
	result.ID = s.nextID
	s.nextID++
	result.CreatedAt = now
	result.UpdatedAt = now
	s.byKeyword[result.KeywordID] = result
	return result, nil
}

// GetByKeywordID fetches the result row for a keyword.
func (s *ResultStore) GetByKeywordID(_ context.Context, keywordID int64) (keyword.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.byKeyword[keywordID]
	if !ok {
		return keyword.SearchResult{}, keyword.NewNotFound("Can not found search result of keyword")
	}
	return result, nil
}
