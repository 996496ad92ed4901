package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/serpwatch/serpwatch/internal/keyword"
)

// KeywordStore persists keyword rows in Postgres.
type KeywordStore struct {
	pool Pool
}

// NewKeywordStore wraps the pool with keyword persistence.
func NewKeywordStore(pool Pool) (*KeywordStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &KeywordStore{pool: pool}, nil
}

const insertKeywordSQL = `
INSERT INTO keywords (user_id, keyword, status)
VALUES ($1, $2, $3)
RETURNING id, created_at, updated_at`

// CreateBulk inserts one pending row per keyword text and returns the
// created records in input order.
func (s *KeywordStore) CreateBulk(ctx context.Context, ownerID string, texts []string) ([]keyword.Keyword, error) {
	if ownerID == "" {
		return nil, keyword.NewValidation("owner id is required")
	}
	created := make([]keyword.Keyword, 0, len(texts))
	for _, text := range texts {
		kw := keyword.Keyword{
			OwnerID: ownerID,
			Text:    text,
			Status:  keyword.StatusPending,
		}
		row := s.pool.QueryRow(ctx, insertKeywordSQL, ownerID, text, kw.Status.String())
		if err := row.Scan(&kw.ID, &kw.CreatedAt, &kw.UpdatedAt); err != nil {
			return nil, fmt.Errorf("insert keyword %q: %w", text, err)
		}
		created = append(created, kw)
	}
	return created, nil
}

const selectKeywordSQL = `
SELECT id, user_id, keyword, status, created_at, updated_at
FROM keywords
WHERE id = $1`

// Get fetches one keyword by id.
func (s *KeywordStore) Get(ctx context.Context, id int64) (keyword.Keyword, error) {
	row := s.pool.QueryRow(ctx, selectKeywordSQL, id)
	kw, err := scanKeyword(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return keyword.Keyword{}, keyword.NewNotFound("Keyword not found")
		}
		return keyword.Keyword{}, fmt.Errorf("select keyword: %w", err)
	}
	return kw, nil
}

const listKeywordsSQL = `
SELECT id, user_id, keyword, status, created_at, updated_at
FROM keywords
WHERE user_id = $1 AND ($2 = '' OR keyword ILIKE '%' || $2 || '%')
ORDER BY id
LIMIT $3 OFFSET $4`

const countKeywordsSQL = `
SELECT count(*)
FROM keywords
WHERE user_id = $1 AND ($2 = '' OR keyword ILIKE '%' || $2 || '%')`

// List returns one page of the owner's keywords plus the total match count.
func (s *KeywordStore) List(ctx context.Context, ownerID string, params keyword.ListParams) (keyword.KeywordPage, error) {
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	page := params.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	search := strings.TrimSpace(params.Search)

	var total int
	if err := s.pool.QueryRow(ctx, countKeywordsSQL, ownerID, search).Scan(&total); err != nil {
		return keyword.KeywordPage{}, fmt.Errorf("count keywords: %w", err)
	}

	rows, err := s.pool.Query(ctx, listKeywordsSQL, ownerID, search, pageSize, offset)
	if err != nil {
		return keyword.KeywordPage{}, fmt.Errorf("list keywords: %w", err)
	}
	defer rows.Close()

	keywords := make([]keyword.Keyword, 0, pageSize)
	for rows.Next() {
		kw, err := scanKeyword(rows)
		if err != nil {
			return keyword.KeywordPage{}, fmt.Errorf("scan keyword: %w", err)
		}
		keywords = append(keywords, kw)
	}
	if err := rows.Err(); err != nil {
		return keyword.KeywordPage{}, fmt.Errorf("iterate keywords: %w", err)
	}
	return keyword.KeywordPage{Keywords: keywords, Total: total}, nil
}

const updateKeywordStatusSQL = `
UPDATE keywords
SET status = $2, updated_at = now()
WHERE id = $1`

// UpdateStatus moves the keyword to the given status. A missing row yields a
// NotFoundError so callers can tell a broken id from an infrastructure
// failure.
func (s *KeywordStore) UpdateStatus(ctx context.Context, id int64, status keyword.Status) error {
	tag, err := s.pool.Exec(ctx, updateKeywordStatusSQL, id, status.String())
	if err != nil {
		return fmt.Errorf("update keyword status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return keyword.NewNotFound("Update keyword status failed: keyword not found")
	}
	return nil
}

func scanKeyword(row pgx.Row) (keyword.Keyword, error) {
	var (
		kw     keyword.Keyword
		status string
	)
	if err := row.Scan(&kw.ID, &kw.OwnerID, &kw.Text, &status, &kw.CreatedAt, &kw.UpdatedAt); err != nil {
		return keyword.Keyword{}, err
	}
	parsed, err := keyword.ParseStatus(status)
	if err != nil {
		return keyword.Keyword{}, err
	}
	kw.Status = parsed
	return kw, nil
}
