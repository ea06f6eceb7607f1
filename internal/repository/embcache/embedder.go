// Package embcache memoizes embeddings in two tiers: an in-process LRU
// in front of a shared redis key-value store.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/db"
	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// Cache tiers used as metric label values.
const (
	tierMemory = "memory"
	tierRedis  = "redis"
)

// store is the consumer interface for the shared tier (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config controls cache sizing and key layout.
type Config struct {
	Model      string        // part of the cache key
	Dimensions int           // part of the cache key; vectors of another size are never returned
	KeyPrefix  string        // e.g. "pdfchat:"
	Size       int           // L1 entries; 0 disables the in-process tier
	TTL        time.Duration // L2 expiry
}

// CachedEmbedder caches embeddings and delegates misses to the inner embedder.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	l1         *lru.Cache[string, []float32]
	cfg        Config
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with labels "tier" and "result" ("hit"/"miss"), passed explicitly.
// s may be nil to run with the in-process tier only.
func New(
	inner domain.Embedder,
	s store,
	cfg Config,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) (*CachedEmbedder, error) {
	c := &CachedEmbedder{
		inner:      inner,
		store:      s,
		cfg:        cfg,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
	if cfg.Size > 0 {
		l1, err := lru.New[string, []float32](cfg.Size)
		if err != nil {
			return nil, fmt.Errorf("init embedding lru: %w", err)
		}
		c.l1 = l1
	}
	return c, nil
}

// Embed returns a cached embedding or calls the inner embedder.
// A hit reports zero tokens because nothing was consumed.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)
	if vec, ok := c.lookup(ctx, key); ok {
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	c.persist(ctx, key, result.Embedding)
	return result, nil
}

// BatchEmbed serves hits from cache and embeds the unique misses in one inner batch.
func (c *CachedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	if len(texts) == 0 {
		return out, nil
	}

	keys := make([]string, len(texts))
	missing := make(map[string][]int)
	var order []string
	for i, text := range texts {
		keys[i] = c.cacheKey(text)
		if vec, ok := c.lookup(ctx, keys[i]); ok {
			out.Embeddings[i] = vec
			continue
		}
		if _, seen := missing[text]; !seen {
			order = append(order, text)
		}
		missing[text] = append(missing[text], i)
	}
	if len(order) == 0 {
		return out, nil
	}

	res, err := domain.BatchEmbed(ctx, c.inner, order)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
	}
	if len(res.Embeddings) != len(order) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("%w: got %d embeddings for %d texts",
			domain.ErrEmbeddingProviderError, len(res.Embeddings), len(order))
	}

	for j, text := range order {
		vec := res.Embeddings[j]
		idx := missing[text]
		c.persist(ctx, keys[idx[0]], vec)
		for _, i := range idx {
			out.Embeddings[i] = cloneVector(vec)
		}
	}
	out.PromptTokens = res.PromptTokens
	out.TotalTokens = res.TotalTokens
	return out, nil
}

// HealthCheck delegates to the inner embedder when it supports health checks.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	if c.l1 != nil {
		if vec, ok := c.l1.Get(key); ok {
			c.inc(tierMemory, "hit")
			return cloneVector(vec), true
		}
		c.inc(tierMemory, "miss")
	}
	if c.store == nil {
		return nil, false
	}

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		c.inc(tierRedis, "miss")
		return nil, false
	}
	vec, err := bytesToVector(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		c.inc(tierRedis, "miss")
		return nil, false
	}
	c.inc(tierRedis, "hit")
	if c.l1 != nil {
		c.l1.Add(key, cloneVector(vec))
	}
	return vec, true
}

// persist writes through both tiers. L2 failures are logged, never returned.
func (c *CachedEmbedder) persist(ctx context.Context, key string, vec []float32) {
	if c.l1 != nil {
		c.l1.Add(key, cloneVector(vec))
	}
	if c.store == nil {
		return
	}
	if err := c.store.SetWithTTL(ctx, key, []byte(db.EncodeVector(vec)), c.cfg.TTL); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func (c *CachedEmbedder) inc(tier, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(tier, result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.New()
	h.Write([]byte(c.cfg.Model))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(c.cfg.Dimensions)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return c.cfg.KeyPrefix + "emb_cache:" + hex.EncodeToString(h.Sum(nil))
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d", len(data))
	}
	return db.DecodeVector(string(data)), nil
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
