package query

import (
	"context"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// Index is the retrieval contract of the chunk index.
type Index interface {
	Search(ctx context.Context, query string, k int) []domain.ScoredChunk
	SearchResult(ctx context.Context, query string, k int, source string) ([]domain.ScoredChunk, error)
}
