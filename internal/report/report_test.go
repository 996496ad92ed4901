package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serpwatch/serpwatch/internal/keyword"
	"github.com/serpwatch/serpwatch/internal/sanitize"
	"github.com/serpwatch/serpwatch/internal/storage/memory"
)

type reportFixture struct {
	service  *Service
	keywords *memory.KeywordStore
	results  *memory.ResultStore
	caches   *memory.CacheStore
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	f := &reportFixture{
		keywords: memory.NewKeywordStore(),
		results:  memory.NewResultStore(),
		caches:   memory.NewCacheStore(),
	}
	f.service = NewService(f.keywords, f.results, f.caches, sanitize.New())
	return f
}

// seedCompleted creates a completed keyword with a saved result and cached page.
func (f *reportFixture) seedCompleted(t *testing.T, html string) keyword.Keyword {
	t.Helper()
	ctx := context.Background()
	created, err := f.keywords.CreateBulk(ctx, "user-1", []string{"shoes"})
	require.NoError(t, err)
	kw := created[0]

	cacheID, err := f.caches.Put(ctx, html)
	require.NoError(t, err)
	_, err = f.results.Create(ctx, keyword.SearchResult{
		KeywordID:  kw.ID,
		TotalAds:   2,
		TotalLinks: 15,
		CacheID:    cacheID,
	})
	require.NoError(t, err)

	require.NoError(t, f.keywords.UpdateStatus(ctx, kw.ID, keyword.StatusInProgress))
	require.NoError(t, f.keywords.UpdateStatus(ctx, kw.ID, keyword.StatusCompleted))
	return kw
}

func TestGetScrapedResult(t *testing.T) {
	f := newReportFixture(t)
	kw := f.seedCompleted(t, `<html><body><p>ok</p><script>alert(1)</script></body></html>`)

	report, err := f.service.GetScrapedResult(context.Background(), kw.ID)
	require.NoError(t, err)

	assert.Equal(t, kw.ID, report.KeywordID)
	assert.Equal(t, "shoes", report.Keyword)
	assert.Equal(t, keyword.StatusCompleted, report.Status)
	assert.Equal(t, 2, report.TotalAds)
	assert.Equal(t, 15, report.TotalLinks)
	assert.Contains(t, report.HTML, "<p>ok</p>")
	assert.NotContains(t, report.HTML, "<script>")
}

func TestGetScrapedResultUnknownKeyword(t *testing.T) {
	f := newReportFixture(t)

	_, err := f.service.GetScrapedResult(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, keyword.IsNotFound(err))
	assert.Equal(t, "Keyword not found", err.Error())
}

func TestGetScrapedResultInvalidID(t *testing.T) {
	f := newReportFixture(t)

	_, err := f.service.GetScrapedResult(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, keyword.IsValidation(err))
}

func TestGetScrapedResultIncompleteKeyword(t *testing.T) {
	f := newReportFixture(t)
	created, err := f.keywords.CreateBulk(context.Background(), "user-1", []string{"shoes"})
	require.NoError(t, err)

	_, err = f.service.GetScrapedResult(context.Background(), created[0].ID)
	require.Error(t, err)
	assert.True(t, keyword.IsInvalidState(err))
	assert.Equal(t, "Can not get in-completed keyword", err.Error())
}

func TestGetScrapedResultMissingResult(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	created, err := f.keywords.CreateBulk(ctx, "user-1", []string{"shoes"})
	require.NoError(t, err)
	kw := created[0]
	require.NoError(t, f.keywords.UpdateStatus(ctx, kw.ID, keyword.StatusInProgress))
	require.NoError(t, f.keywords.UpdateStatus(ctx, kw.ID, keyword.StatusCompleted))

	_, err = f.service.GetScrapedResult(ctx, kw.ID)
	require.Error(t, err)
	assert.True(t, keyword.IsNotFound(err))
	assert.Equal(t, "Can not found search result of keyword", err.Error())
}

func TestGetScrapedResultMissingCacheReference(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	created, err := f.keywords.CreateBulk(ctx, "user-1", []string{"shoes"})
	require.NoError(t, err)
	kw := created[0]
	_, err = f.results.Create(ctx, keyword.SearchResult{KeywordID: kw.ID, TotalAds: 1, TotalLinks: 1})
	require.NoError(t, err)
	require.NoError(t, f.keywords.UpdateStatus(ctx, kw.ID, keyword.StatusInProgress))
	require.NoError(t, f.keywords.UpdateStatus(ctx, kw.ID, keyword.StatusCompleted))

	_, err = f.service.GetScrapedResult(ctx, kw.ID)
	require.Error(t, err)
	assert.True(t, keyword.IsNotFound(err))
	assert.Equal(t, "No html page cache attached", err.Error())
}
