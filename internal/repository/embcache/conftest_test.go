package embcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/db"
	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// countingEmbedder returns a vector derived from the text length and records calls.
type countingEmbedder struct {
	mu         sync.Mutex
	err        error
	embedCalls int
	batchCalls int
	batchSizes []int
}

func vectorFor(text string) []float32 {
	return []float32{float32(len(text)), 1, 2}
}

func (m *countingEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: vectorFor(text), PromptTokens: 5, TotalTokens: 5}, nil
}

func (m *countingEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	m.batchSizes = append(m.batchSizes, len(texts))
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		out.Embeddings[i] = vectorFor(t)
	}
	out.PromptTokens = 5 * len(texts)
	out.TotalTokens = 5 * len(texts)
	return out, nil
}

// memKV implements the consumer interface for tests.
type memKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	getHits int
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	m.getHits++
	return v, nil
}

func (m *memKV) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func newCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"tier", "result"})
}

func newTestCache(t *testing.T, size int) (*CachedEmbedder, *countingEmbedder, *memKV, *prometheus.CounterVec) {
	t.Helper()
	inner := &countingEmbedder{}
	kv := newMemKV()
	counter := newCounter()
	c, err := New(inner, kv, Config{
		Model:      "text-embedding-3-small",
		Dimensions: 1536,
		KeyPrefix:  "pdfchat:",
		Size:       size,
		TTL:        24 * time.Hour,
	}, counter, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, inner, kv, counter
}
