// Package intent classifies user queries with the LLM.
package intent

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/prompt"
)

// Service maps free text to a coarse intent.
type Service struct {
	llm    Classifier
	logger *zap.Logger
}

// New creates an intent service.
func New(llm Classifier, logger *zap.Logger) *Service {
	return &Service{llm: llm, logger: logger}
}

// Detect classifies query. Any failure, or a reply naming no known intent, yields IntentUnknown.
func (s *Service) Detect(ctx context.Context, query string) domain.Intent {
	p, err := prompt.Intent(query)
	if err != nil {
		s.logger.Error("render intent prompt", zap.Error(err))
		return domain.IntentUnknown
	}

	out, err := s.llm.Complete(ctx, p)
	if err != nil {
		s.logger.Warn("intent detection failed", zap.Error(err))
		return domain.IntentUnknown
	}
	return Parse(out.Text)
}

// Parse maps an LLM reply to an intent by case-insensitive substring match.
func Parse(reply string) domain.Intent {
	r := strings.ToLower(reply)
	switch {
	case strings.Contains(r, string(domain.IntentInformationRetrieval)):
		return domain.IntentInformationRetrieval
	case strings.Contains(r, string(domain.IntentGeneralChat)):
		return domain.IntentGeneralChat
	default:
		return domain.IntentUnknown
	}
}
