package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/serpwatch/serpwatch/internal/config"
	"github.com/serpwatch/serpwatch/internal/ingest"
	"github.com/serpwatch/serpwatch/internal/keyword"
	"github.com/serpwatch/serpwatch/internal/queue/memory"
	"github.com/serpwatch/serpwatch/internal/report"
	"github.com/serpwatch/serpwatch/internal/sanitize"
	storemem "github.com/serpwatch/serpwatch/internal/storage/memory"
)

type apiFixture struct {
	server   *Server
	keywords *storemem.KeywordStore
	results  *storemem.ResultStore
	caches   *storemem.CacheStore
	queue    *memory.Queue
}

func newAPIFixture(t *testing.T, cfg config.Config) *apiFixture {
	t.Helper()
	f := &apiFixture{
		keywords: storemem.NewKeywordStore(),
		results:  storemem.NewResultStore(),
		caches:   storemem.NewCacheStore(),
		queue:    memory.NewQueue(256),
	}
	ingestSvc := ingest.NewService(f.keywords, f.queue, zap.NewNop())
	reports := report.NewService(f.keywords, f.results, f.caches, sanitize.New())
	hub := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusSwitchingProtocols)
	})
	f.server = NewServer(f.keywords, ingestSvc, reports, hub, cfg, zap.NewNop())
	return f
}

func (f *apiFixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func multipartUpload(t *testing.T, csvBody string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "keywords.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvBody))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestHealthEndpoints(t *testing.T) {
	f := newAPIFixture(t, config.Config{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := f.do(t, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestUploadKeywords(t *testing.T) {
	f := newAPIFixture(t, config.Config{})

	body, contentType := multipartUpload(t, "Keyword\nshoes\nhats\n")
	req := httptest.NewRequest(http.MethodPost, "/v1/keywords/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-User-ID", "user-1")

	rec := f.do(t, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Keywords []keyword.Keyword `json:"keywords"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Keywords, 2)
	assert.Equal(t, keyword.StatusPending, resp.Keywords[0].Status)

	// One job per created keyword.
	for i := 0; i < 2; i++ {
		_, err := f.queue.Dequeue(context.Background())
		require.NoError(t, err)
	}
}

func TestUploadRejectsBadCSV(t *testing.T) {
	f := newAPIFixture(t, config.Config{})

	body, contentType := multipartUpload(t, "Name\nshoes\n")
	req := httptest.NewRequest(http.MethodPost, "/v1/keywords/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-User-ID", "user-1")

	rec := f.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRequiresFilePart(t *testing.T) {
	f := newAPIFixture(t, config.Config{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, "/v1/keywords/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-User-ID", "user-1")

	rec := f.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListKeywords(t *testing.T) {
	f := newAPIFixture(t, config.Config{})
	_, err := f.keywords.CreateBulk(context.Background(), "user-1", []string{"shoes", "hats", "shirts"})
	require.NoError(t, err)
	_, err = f.keywords.CreateBulk(context.Background(), "user-2", []string{"other"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/keywords?page=1&pageSize=2", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Keywords []keyword.Keyword `json:"keywords"`
		Total    int               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Len(t, resp.Keywords, 2)

	// Search narrows by substring.
	req = httptest.NewRequest(http.MethodGet, "/v1/keywords?search=sho", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec = f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
}

func TestListKeywordsRequiresUserID(t *testing.T) {
	f := newAPIFixture(t, config.Config{})

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/v1/keywords", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetReport(t *testing.T) {
	f := newAPIFixture(t, config.Config{})
	ctx := context.Background()
	created, err := f.keywords.CreateBulk(ctx, "user-1", []string{"shoes"})
	require.NoError(t, err)
	kw := created[0]

	cacheID, err := f.caches.Put(ctx, "<html><body><p>ok</p><script>x</script></body></html>")
	require.NoError(t, err)
	_, err = f.results.Create(ctx, keyword.SearchResult{
		KeywordID: kw.ID, TotalAds: 2, TotalLinks: 9, CacheID: cacheID,
	})
	require.NoError(t, err)
	require.NoError(t, f.keywords.UpdateStatus(ctx, kw.ID, keyword.StatusInProgress))
	require.NoError(t, f.keywords.UpdateStatus(ctx, kw.ID, keyword.StatusCompleted))

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/"+strconv.FormatInt(kw.ID, 10), nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, kw.ID, resp["keywordId"])
	assert.EqualValues(t, 2, resp["totalAds"])
	assert.EqualValues(t, 9, resp["totalLinks"])
	html, _ := resp["htmlCachePage"].(string)
	assert.Contains(t, html, "<p>ok</p>")
	assert.NotContains(t, html, "script")
}

func TestGetReportErrors(t *testing.T) {
	f := newAPIFixture(t, config.Config{})
	created, err := f.keywords.CreateBulk(context.Background(), "user-1", []string{"shoes"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "unknown keyword",
			path:       "/v1/reports/999",
			wantStatus: http.StatusNotFound,
			wantError:  "Keyword not found",
		},
		{
			name:       "incomplete keyword",
			path:       "/v1/reports/" + strconv.FormatInt(created[0].ID, 10),
			wantStatus: http.StatusBadRequest,
			wantError:  "Can not get in-completed keyword",
		},
		{
			name:       "non-integer id",
			path:       "/v1/reports/abc",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("X-User-ID", "user-1")
			rec := f.do(t, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				var resp map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantError, resp["error"])
			}
		})
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	cfg := config.Config{}
	cfg.Auth.Enabled = true
	cfg.Auth.APIKey = "secret"
	f := newAPIFixture(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/v1/keywords", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := f.do(t, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/keywords", nil)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("X-API-Key", "secret")
	rec = f.do(t, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newAPIFixture(t, config.Config{})

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
