package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/serpwatch/serpwatch/internal/keyword"
)

func TestResultStoreCreate(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewResultStore(mock)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	mock.ExpectQuery("INSERT INTO search_results").
		WithArgs(int64(10), 2, 15, sql.NullString{String: "cache-1", Valid: true}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))

	created, err := store.Create(context.Background(), keyword.SearchResult{
		KeywordID:  10,
		TotalAds:   2,
		TotalLinks: 15,
		CacheID:    "cache-1",
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), created.ID)
	require.Equal(t, "cache-1", created.CacheID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultStoreCreateRejectsNegativeCounts(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewResultStore(mock)
	require.NoError(t, err)

	_, err = store.Create(context.Background(), keyword.SearchResult{KeywordID: 10, TotalAds: -1})
	require.Error(t, err)
	require.True(t, keyword.IsValidation(err))
}

func TestResultStoreGetByKeywordIDNotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewResultStore(mock)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, keyword_id").
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "keyword_id", "total_ads", "total_links", "html_cache_id", "created_at", "updated_at"}))

	_, err = store.GetByKeywordID(context.Background(), 10)
	require.Error(t, err)
	require.True(t, keyword.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
