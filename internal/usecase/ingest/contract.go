package ingest

import (
	"context"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// Extractor turns a PDF on disk into chunks.
type Extractor interface {
	ExtractResult(ctx context.Context, path string) ([]domain.Chunk, error)
}

// Index stores embedded chunks.
type Index interface {
	AddResult(ctx context.Context, chunks []domain.Chunk) (int, error)
}
