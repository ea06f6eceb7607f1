package chat

import (
	"context"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// Retriever finds context chunks for a question.
type Retriever interface {
	Search(ctx context.Context, query string, k int) []domain.ScoredChunk
}

// Memory holds the recent turns of each session.
type Memory interface {
	Lock(id string) (unlock func())
	Get(id string) []domain.Turn
	Lookup(id string) ([]domain.Turn, error)
	Append(id, user, assistant string)
	Clear(id string) bool
	List() []string
}
