package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/serpwatch/serpwatch/internal/keyword"
)

func TestKeywordStoreCreateBulk(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewKeywordStore(mock)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	mock.ExpectQuery("INSERT INTO keywords").
		WithArgs("user-1", "shoes", "pending").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(10), now, now))
	mock.ExpectQuery("INSERT INTO keywords").
		WithArgs("user-1", "boots", "pending").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))

	created, err := store.CreateBulk(context.Background(), "user-1", []string{"shoes", "boots"})
	require.NoError(t, err)
	require.Len(t, created, 2)
	require.Equal(t, int64(10), created[0].ID)
	require.Equal(t, keyword.StatusPending, created[0].Status)
	require.Equal(t, "boots", created[1].Text)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKeywordStoreGetNotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewKeywordStore(mock)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, user_id, keyword, status").
		WithArgs(int64(999)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "keyword", "status", "created_at", "updated_at"}))

	_, err = store.Get(context.Background(), 999)
	require.Error(t, err)
	require.True(t, keyword.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKeywordStoreUpdateStatus(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewKeywordStore(mock)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE keywords").
		WithArgs(int64(10), "in-progress").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.UpdateStatus(context.Background(), 10, keyword.StatusInProgress))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKeywordStoreUpdateStatusMissingRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewKeywordStore(mock)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE keywords").
		WithArgs(int64(404), "failed").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = store.UpdateStatus(context.Background(), 404, keyword.StatusFailed)
	require.Error(t, err)
	require.True(t, keyword.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKeywordStoreList(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewKeywordStore(mock)
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	mock.ExpectQuery("SELECT count").
		WithArgs("user-1", "sho").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT id, user_id, keyword, status").
		WithArgs("user-1", "sho", 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "keyword", "status", "created_at", "updated_at"}).
			AddRow(int64(10), "user-1", "shoes", "completed", now, now))

	page, err := store.List(context.Background(), "user-1", keyword.ListParams{Search: "sho"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Len(t, page.Keywords, 1)
	require.Equal(t, keyword.StatusCompleted, page.Keywords[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
