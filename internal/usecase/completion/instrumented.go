// Package completion decorates the LLM provider with token budget enforcement.
package completion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
}

// InstrumentedCompleter checks the LLM budget before each call and records usage after it.
type InstrumentedCompleter struct {
	inner  domain.Completer
	model  string
	budget BudgetChecker
	logger *zap.Logger
}

// NewInstrumentedCompleter wraps inner. budget may be nil.
func NewInstrumentedCompleter(
	inner domain.Completer, model string, budget BudgetChecker, logger *zap.Logger,
) *InstrumentedCompleter {
	return &InstrumentedCompleter{inner: inner, model: model, budget: budget, logger: logger}
}

// Complete runs one completion under the budget.
func (c *InstrumentedCompleter) Complete(ctx context.Context, prompt string) (domain.Completion, error) {
	if c.budget != nil {
		if err := c.budget.Check(ctx); err != nil {
			c.logger.Warn("LLM budget exhausted", zap.String("model", c.model), zap.Error(err))
			return domain.Completion{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	out, err := c.inner.Complete(ctx, prompt)
	if err != nil {
		c.logger.Error("Completion request failed",
			zap.String("model", c.model),
			zap.Duration("duration", time.Since(start)),
			zap.Int("prompt_bytes", len(prompt)),
			zap.Error(err),
		)
		return domain.Completion{}, fmt.Errorf("complete: %w", err)
	}
	if c.budget != nil && out.TotalTokens > 0 {
		c.budget.Record(int64(out.TotalTokens))
	}

	c.logger.Debug("Completion request completed",
		zap.String("model", c.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("prompt_tokens", out.PromptTokens),
		zap.Int("completion_tokens", out.CompletionTokens),
	)
	return out, nil
}
