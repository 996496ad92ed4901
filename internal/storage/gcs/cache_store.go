// Package gcs provides an HTML cache store backed by Google Cloud Storage.
// Each cached page is one immutable object whose name is the surrogate id.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/serpwatch/serpwatch/internal/keyword"
)

const contentType = "text/html; charset=utf-8"

// Config captures the parameters required to connect to GCS.
type Config struct {
	Bucket string
	Prefix string
}

// CacheStore writes cached pages to a configured GCS bucket.
type CacheStore struct {
	client *storage.Client
	bucket string
	prefix string
	idGen  keyword.IDGenerator
}

// New creates a GCS-backed cache store.
func New(client *storage.Client, cfg Config, idGen keyword.IDGenerator) (*CacheStore, error) {
	if client == nil {
		return nil, errors.New("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if idGen == nil {
		return nil, errors.New("id generator is required")
	}
	return &CacheStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		idGen:  idGen,
	}, nil
}

// Put uploads the html under a fresh surrogate id and returns that id.
func (s *CacheStore) Put(ctx context.Context, html string) (string, error) {
	if html == "" {
		return "", keyword.NewValidation("html is required")
	}
	id, err := s.idGen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate cache id: %w", err)
	}
	writer := s.client.Bucket(s.bucket).Object(s.objectName(id)).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := io.WriteString(writer, html); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return "", fmt.Errorf("write cache object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("write cache object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close cache writer: %w", err)
	}
	return id, nil
}

// Get downloads one cached page by id.
func (s *CacheStore) Get(ctx context.Context, id string) (keyword.PageCache, error) {
	obj := s.client.Bucket(s.bucket).Object(s.objectName(id))
	reader, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return keyword.PageCache{}, keyword.NewNotFound("Can not found html page cache of keyword")
		}
		return keyword.PageCache{}, fmt.Errorf("open cache object: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return keyword.PageCache{}, fmt.Errorf("read cache object: %w", err)
	}
	return keyword.PageCache{
		ID:        id,
		HTML:      string(data),
		CreatedAt: reader.Attrs.LastModified,
	}, nil
}

func (s *CacheStore) objectName(id string) string {
	if s.prefix == "" {
		return id + ".html"
	}
	return fmt.Sprintf("%s/%s.html", s.prefix, id)
}
