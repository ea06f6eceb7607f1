// Package query answers raw similarity searches over the indexed PDFs.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// Default result counts.
const (
	DefaultTopK = 5
	MaxTopK     = 50
)

// Request is a similarity query.
type Request struct {
	Query  string
	TopK   int    // 0 selects the default
	Source string // optional: restrict to one uploaded file
}

// Service delegates similarity queries to the index.
type Service struct {
	index       Index
	defaultTopK int
	maxTopK     int
}

// New creates a query service. Non-positive limits fall back to the package defaults.
func New(index Index, defaultTopK, maxTopK int) *Service {
	if maxTopK <= 0 {
		maxTopK = MaxTopK
	}
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &Service{index: index, defaultTopK: min(defaultTopK, maxTopK), maxTopK: maxTopK}
}

// Query returns up to k chunks nearest to text. Failures yield an empty slice.
func (s *Service) Query(ctx context.Context, text string, k int) []domain.ScoredChunk {
	return s.index.Search(ctx, text, s.topK(k))
}

// QueryResult validates req and returns the nearest chunks or the failure cause.
func (s *Service) QueryResult(ctx context.Context, req Request) ([]domain.ScoredChunk, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidInput)
	}
	if req.TopK < 0 {
		return nil, fmt.Errorf("%w: top_k must be positive", domain.ErrInvalidInput)
	}
	if req.TopK > s.maxTopK {
		return nil, fmt.Errorf("%w: top_k must be at most %d", domain.ErrInvalidInput, s.maxTopK)
	}
	out, err := s.index.SearchResult(ctx, req.Query, s.topK(req.TopK), req.Source)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return out, nil
}

func (s *Service) topK(k int) int {
	if k <= 0 {
		return s.defaultTopK
	}
	return min(k, s.maxTopK)
}
