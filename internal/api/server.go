// Package api exposes the HTTP interface for the keyword scraping service.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/serpwatch/serpwatch/internal/config"
	"github.com/serpwatch/serpwatch/internal/ingest"
	"github.com/serpwatch/serpwatch/internal/keyword"
	"github.com/serpwatch/serpwatch/internal/report"
	"github.com/serpwatch/serpwatch/internal/telemetry"
)

// maxUploadBytes bounds the multipart keyword file; a hundred keywords fit
// comfortably under a megabyte.
const maxUploadBytes = 1 << 20

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Server wires HTTP handlers to the ingestion, listing, report, and
// websocket paths.
type Server struct {
	router   chi.Router
	keywords keyword.Store
	ingest   *ingest.Service
	reports  *report.Service
	hub      http.Handler
	cfg      config.Config
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes. The hub handler
// serves websocket upgrades at /ws; it sits outside the request timeout so
// long-lived connections survive.
func NewServer(
	keywords keyword.Store,
	ingestSvc *ingest.Service,
	reports *report.Service,
	hub http.Handler,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		keywords: keywords,
		ingest:   ingestSvc,
		reports:  reports,
		hub:      hub,
		cfg:      cfg,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metricsMiddleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())
	r.Get("/ws", s.hub.ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Use(timeoutMiddleware(60 * time.Second))
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Use(userIDMiddleware)

		r.Post("/keywords/upload", s.uploadKeywords)
		r.Get("/keywords", s.listKeywords)
		r.Get("/reports/{keyword_id}", s.getReport)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) uploadKeywords(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerIDFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, `missing "file" upload`)
		return
	}
	defer file.Close()

	created, err := s.ingest.Upload(r.Context(), ownerID, file)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"keywords": created})
}

func (s *Server) listKeywords(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerIDFromContext(r.Context())

	params := keyword.ListParams{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", defaultPageSize),
		Search:   r.URL.Query().Get("search"),
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		params.PageSize = defaultPageSize
	}

	page, err := s.keywords.List(r.Context(), ownerID, params)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if page.Keywords == nil {
		page.Keywords = []keyword.Keyword{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"keywords": page.Keywords,
		"total":    page.Total,
		"page":     params.Page,
		"pageSize": params.PageSize,
	})
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	keywordID, err := strconv.ParseInt(chi.URLParam(r, "keyword_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "keyword id must be an integer")
		return
	}

	rep, err := s.reports.GetScrapedResult(r.Context(), keywordID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// writeDomainError maps the typed error taxonomy onto HTTP statuses.
// Anything untyped is an internal failure and is not echoed to the caller.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case keyword.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case keyword.IsValidation(err), keyword.IsInvalidState(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, http.ErrHandlerTimeout):
		writeError(w, http.StatusRequestTimeout, "request timed out")
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
