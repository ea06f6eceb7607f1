// Package ingest loads PDF files into the vector index.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/metrics"
)

// Service extracts a PDF and indexes its chunks.
type Service struct {
	extractor Extractor
	index     Index
	logger    *zap.Logger
}

// New creates an ingest service.
func New(extractor Extractor, index Index, logger *zap.Logger) *Service {
	return &Service{extractor: extractor, index: index, logger: logger}
}

// Ingest indexes the PDF at path and returns the number of chunks added.
// A PDF without extractable text adds nothing and is not an error.
func (s *Service) Ingest(ctx context.Context, path string) (int, error) {
	return s.IngestAs(ctx, path, "")
}

// IngestAs is Ingest with chunks attributed to source instead of path.
// Uploads are stored under a unique name but searched by their original one.
func (s *Service) IngestAs(ctx context.Context, path, source string) (int, error) {
	chunks, err := s.extractor.ExtractResult(ctx, path)
	if err != nil {
		metrics.IngestRequestsTotal.WithLabelValues("failed").Inc()
		return 0, fmt.Errorf("extract: %w", err)
	}
	if len(chunks) == 0 {
		metrics.IngestRequestsTotal.WithLabelValues("empty").Inc()
		s.logger.Warn("no text extracted from PDF", zap.String("path", path))
		return 0, nil
	}
	if source != "" {
		for i := range chunks {
			chunks[i].Metadata.Source = source
		}
	}

	n, err := s.index.AddResult(ctx, chunks)
	if err != nil {
		metrics.IngestRequestsTotal.WithLabelValues("failed").Inc()
		return 0, fmt.Errorf("index chunks: %w", err)
	}

	metrics.IngestRequestsTotal.WithLabelValues("ok").Inc()
	s.logger.Info("PDF ingested",
		zap.String("path", path),
		zap.String("source", source),
		zap.Int("chunks", n),
	)
	return n, nil
}
