// Package local implements an HTML cache store on the local filesystem. It
// is intended for development setups without Postgres or GCS at hand.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/serpwatch/serpwatch/internal/keyword"
)

// Config captures the parameters for the filesystem cache store.
type Config struct {
	// BaseDir is the root directory where cached pages are stored.
	BaseDir string `mapstructure:"base_dir"`
}

// CacheStore writes cached pages as files named by surrogate id.
type CacheStore struct {
	baseDir string
	idGen   keyword.IDGenerator
}

// New creates a filesystem-backed cache store, creating BaseDir if needed.
func New(cfg Config, idGen keyword.IDGenerator) (*CacheStore, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, errors.New("base directory is required")
	}
	if idGen == nil {
		return nil, errors.New("id generator is required")
	}
	info, err := os.Stat(cfg.BaseDir)
	switch {
	case err != nil && os.IsNotExist(err):
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat base directory: %w", err)
	case !info.IsDir():
		return nil, errors.New("base directory path is not a directory")
	}
	return &CacheStore{baseDir: cfg.BaseDir, idGen: idGen}, nil
}

// Put writes the html under a fresh surrogate id and returns that id.
func (s *CacheStore) Put(_ context.Context, html string) (string, error) {
	if html == "" {
		return "", keyword.NewValidation("html is required")
	}
	id, err := s.idGen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate cache id: %w", err)
	}
	if err := os.WriteFile(s.path(id), []byte(html), 0o600); err != nil {
		return "", fmt.Errorf("write cache file: %w", err)
	}
	return id, nil
}

// Get reads one cached page by id.
func (s *CacheStore) Get(_ context.Context, id string) (keyword.PageCache, error) {
	// Ids are generated UUIDs; reject anything that could escape BaseDir.
	if id == "" || strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return keyword.PageCache{}, keyword.NewValidation("invalid cache id")
	}
	path := s.path(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return keyword.PageCache{}, keyword.NewNotFound("Can not found html page cache of keyword")
		}
		return keyword.PageCache{}, fmt.Errorf("read cache file: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return keyword.PageCache{}, fmt.Errorf("stat cache file: %w", err)
	}
	return keyword.PageCache{
		ID:        id,
		HTML:      string(data),
		CreatedAt: info.ModTime().UTC(),
	}, nil
}

func (s *CacheStore) path(id string) string {
	return filepath.Join(s.baseDir, id+".html")
}
