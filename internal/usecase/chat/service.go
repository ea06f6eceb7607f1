// Package chat answers questions from indexed PDF content with per-session memory.
package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
	"github.com/kailas-cloud/pdfchat/internal/prompt"
)

// DefaultSessionID is used when the caller does not name a session.
const DefaultSessionID = "default_session"

// DefaultTopK is the number of context chunks retrieved per question.
const DefaultTopK = 4

// Apology replaces the reply whenever answering fails.
const Apology = "I'm sorry, I encountered an error while trying to respond. Please try again."

// Reply is the outcome of one chat exchange.
type Reply struct {
	Text      string
	SessionID string
	Sources   []domain.Metadata
	// Err is the cause when Text is the apology.
	Err error
}

// Service runs retrieval-augmented chat.
type Service struct {
	retriever Retriever
	llm       domain.Completer
	memory    Memory
	topK      int
	logger    *zap.Logger
}

// New creates a chat service. topK <= 0 selects DefaultTopK.
func New(retriever Retriever, llm domain.Completer, memory Memory, topK int, logger *zap.Logger) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Service{
		retriever: retriever,
		llm:       llm,
		memory:    memory,
		topK:      topK,
		logger:    logger,
	}
}

// Chat answers message within session sessionID and records the turn.
// It never fails: on any error the reply is Apology and nothing is recorded.
func (s *Service) Chat(ctx context.Context, message, sessionID string) Reply {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	unlock := s.memory.Lock(sessionID)
	defer unlock()

	text, sources, err := s.answer(ctx, message, sessionID)
	if err != nil {
		metrics.ChatFallbacksTotal.Inc()
		s.logger.Error("chat failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return Reply{Text: Apology, SessionID: sessionID, Err: err}
	}

	s.memory.Append(sessionID, message, text)
	return Reply{Text: text, SessionID: sessionID, Sources: sources}
}

func (s *Service) answer(ctx context.Context, message, sessionID string) (string, []domain.Metadata, error) {
	if strings.TrimSpace(message) == "" {
		return "", nil, fmt.Errorf("%w: message must not be empty", domain.ErrInvalidInput)
	}

	history := s.memory.Get(sessionID)
	chunks := s.retriever.Search(ctx, message, s.topK)

	p, err := prompt.QA(chunks, message, history)
	if err != nil {
		return "", nil, fmt.Errorf("build prompt: %w", err)
	}

	out, err := s.llm.Complete(ctx, p)
	if err != nil {
		return "", nil, fmt.Errorf("complete: %w", err)
	}

	s.logger.Debug("chat answered",
		zap.String("session_id", sessionID),
		zap.Int("context_chunks", len(chunks)),
		zap.Int("history_turns", len(history)),
		zap.Int("tokens", out.TotalTokens),
	)
	return out.Text, sourcesOf(chunks), nil
}

// sourcesOf lists the distinct source pages of chunks in retrieval order.
func sourcesOf(chunks []domain.ScoredChunk) []domain.Metadata {
	seen := make(map[domain.Metadata]struct{}, len(chunks))
	out := make([]domain.Metadata, 0, len(chunks))
	for _, c := range chunks {
		if _, ok := seen[c.Metadata]; ok {
			continue
		}
		seen[c.Metadata] = struct{}{}
		out = append(out, c.Metadata)
	}
	return out
}

// History returns the recorded turns of a session, oldest first.
func (s *Service) History(id string) ([]domain.Turn, error) {
	turns, err := s.memory.Lookup(id)
	if err != nil {
		return nil, fmt.Errorf("history %q: %w", id, err)
	}
	return turns, nil
}

// Clear empties a session's history. Unknown ids are logged and ignored.
func (s *Service) Clear(id string) error {
	if !s.memory.Clear(id) {
		s.logger.Warn("clear of unknown session", zap.String("session_id", id))
	}
	return nil
}

// Sessions lists known session ids.
func (s *Service) Sessions() []string {
	return s.memory.List()
}
