// Package memory provides in-memory store implementations for development
// and testing.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/serpwatch/serpwatch/internal/keyword"
)

// KeywordStore is an in-memory keyword.Store.
type KeywordStore struct {
	mu       sync.RWMutex
	nextID   int64
	keywords map[int64]keyword.Keyword
}

// NewKeywordStore constructs a KeywordStore.
func NewKeywordStore() *KeywordStore {
	return &KeywordStore{
		nextID:   1,
		keywords: make(map[int64]keyword.Keyword),
	}
}

// CreateBulk inserts one pending keyword per text.
func (s *KeywordStore) CreateBulk(_ context.Context, ownerID string, texts []string) ([]keyword.Keyword, error) {
	if ownerID == "" {
		return nil, keyword.NewValidation("owner id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	created := make([]keyword.Keyword, 0, len(texts))
	for _, text := range texts {
		kw := keyword.Keyword{
			ID:        s.nextID,
			OwnerID:   ownerID,
			Text:      text,
			Status:    keyword.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.nextID++
		s.keywords[kw.ID] = kw
		created = append(created, kw)
	}
	return created, nil
}

// Get fetches one keyword by id.
func (s *KeywordStore) Get(_ context.Context, id int64) (keyword.Keyword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kw, ok := s.keywords[id]
	if !ok {
		return keyword.Keyword{}, keyword.NewNotFound("Keyword not found")
	}
	return kw, nil
}

// List returns one page of the owner's keywords ordered by id.
func (s *KeywordStore) List(_ context.Context, ownerID string, params keyword.ListParams) (keyword.KeywordPage, error) {
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	search := strings.ToLower(strings.TrimSpace(params.Search))

	s.mu.RLock()
	matches := make([]keyword.Keyword, 0, len(s.keywords))
	for _, kw := range s.keywords {
		if kw.OwnerID != ownerID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(kw.Text), search) {
			continue
		}
		matches = append(matches, kw)
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })

	page := params.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start > len(matches) {
		start = len(matches)
	}
	end := start + pageSize
	if end > len(matches) {
		end = len(matches)
	}
	out := make([]keyword.Keyword, end-start)
	copy(out, matches[start:end])
	return keyword.KeywordPage{Keywords: out, Total: len(matches)}, nil
}

// UpdateStatus moves a keyword to the given status.
func (s *KeywordStore) UpdateStatus(_ context.Context, id int64, status keyword.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kw, ok := s.keywords[id]
	if !ok {
		return keyword.NewNotFound("Update keyword status failed: keyword not found")
	}
	kw.Status = status
	kw.UpdatedAt = time.Now().UTC()
	s.keywords[id] = kw
	return nil
}
