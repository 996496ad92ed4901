// Package ingest turns an uploaded keyword file into pending keyword rows
// and queued jobs.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/serpwatch/serpwatch/internal/keyword"
)

const (
	// headerColumn is the required CSV column carrying keyword text.
	headerColumn = "Keyword"

	MinKeywords = 1
	MaxKeywords = 100
)

// Service validates keyword uploads, bulk-creates the rows, and enqueues
// one job per newly pending keyword.
type Service struct {
	keywords keyword.Store
	queue    keyword.Queue
	logger   *zap.Logger
}

// NewService constructs a Service.
func NewService(keywords keyword.Store, queue keyword.Queue, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		keywords: keywords,
		queue:    queue,
		logger:   logger,
	}
}

// Upload parses a CSV of keywords, creates pending rows for the owner, and
// enqueues a job for each. Created rows are returned even when some
// enqueues fail; those keywords simply stay pending.
func (s *Service) Upload(ctx context.Context, ownerID string, file io.Reader) ([]keyword.Keyword, error) {
	texts, err := ParseCSV(file)
	if err != nil {
		return nil, err
	}

	created, err := s.keywords.CreateBulk(ctx, ownerID, texts)
	if err != nil {
		return nil, fmt.Errorf("create keywords: %w", err)
	}

	for _, kw := range created {
		job := keyword.Job{
			OwnerID:     kw.OwnerID,
			KeywordID:   kw.ID,
			KeywordText: kw.Text,
		}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			// The row exists with status pending; it just never got a job.
			// Surface the condition without undoing the upload.
			s.logger.Error("enqueue keyword job failed",
				zap.Int64("keyword_id", kw.ID),
				zap.Error(err))
		}
	}

	s.logger.Info("keyword upload accepted",
		zap.String("user_id", ownerID),
		zap.Int("keywords", len(created)))
	return created, nil
}

// ParseCSV extracts keyword texts from a CSV with a "Keyword" header
// column. Blank cells are skipped; the remaining count must be between
// MinKeywords and MaxKeywords.
func ParseCSV(file io.Reader) ([]string, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, keyword.NewValidation("file is empty")
	}
	if err != nil {
		return nil, keyword.NewValidation("file is not valid CSV")
	}

	column := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), headerColumn) {
			column = i
			break
		}
	}
	if column < 0 {
		return nil, keyword.NewValidation(`file must have a "Keyword" header column`)
	}

	var texts []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, keyword.NewValidation("file is not valid CSV")
		}
		if column >= len(record) {
			continue
		}
		text := strings.TrimSpace(record[column])
		if text == "" {
			continue
		}
		texts = append(texts, text)
	}

	if len(texts) < MinKeywords || len(texts) > MaxKeywords {
		return nil, keyword.NewValidation(
			fmt.Sprintf("file must contain between %d and %d keywords", MinKeywords, MaxKeywords))
	}
	return texts, nil
}
