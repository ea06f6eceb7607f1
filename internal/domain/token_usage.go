package domain

import (
	"context"
	"sync"
)

type tokenUsageKey struct{}

// TokenUsage collects provider token usage for a single HTTP request.
// The handler puts it into the context, providers add to it, and the handler
// reports the totals in response headers.
type TokenUsage struct {
	mu         sync.Mutex
	embedding  int
	completion int
}

// NewContextWithUsage returns a context carrying a fresh usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *TokenUsage) {
	u := &TokenUsage{}
	return context.WithValue(ctx, tokenUsageKey{}, u), u
}

// UsageFromContext returns the collector, or nil if none was attached.
func UsageFromContext(ctx context.Context) *TokenUsage {
	u, _ := ctx.Value(tokenUsageKey{}).(*TokenUsage)
	return u
}

// AddEmbedding records embedding tokens. Safe on a nil receiver.
func (u *TokenUsage) AddEmbedding(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.embedding += n
	u.mu.Unlock()
}

// AddCompletion records completion tokens. Safe on a nil receiver.
func (u *TokenUsage) AddCompletion(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.completion += n
	u.mu.Unlock()
}

// Totals returns embedding and completion tokens recorded so far.
func (u *TokenUsage) Totals() (embedding, completion int) {
	if u == nil {
		return 0, 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.embedding, u.completion
}
