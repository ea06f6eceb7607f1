// Package chunkindex stores embedded PDF chunks in a RediSearch HNSW index
// and answers nearest-neighbour queries over them.
package chunkindex

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/db"
	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
)

// Hash field names. The double-underscore fields are internal to the index.
const (
	fieldContent = "__content"
	fieldVector  = "__vector"
	fieldSource  = "source"
	fieldPage    = "page"
)

// store is the consumer interface for the chunk index (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Config describes the index layout.
type Config struct {
	IndexName  string
	KeyPrefix  string // e.g. "pdfchat:"; chunk keys are {KeyPrefix}chunk:{uuid}
	Dimensions int
	HNSWM      int
	HNSWEF     int
}

// Repo is the vector index over PDF chunks.
type Repo struct {
	store    store
	embedder domain.Embedder
	cfg      Config
	logger   *zap.Logger
	ready    atomic.Bool
	newID    func() string
}

// New creates a chunk index repository.
func New(s store, embedder domain.Embedder, cfg Config, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{
		store:    s,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// IndexName returns the configured index name.
func (r *Repo) IndexName() string { return r.cfg.IndexName }

func (r *Repo) keyPrefix() string { return r.cfg.KeyPrefix + "chunk:" }

func (r *Repo) definition() (*db.IndexDefinition, error) {
	return db.NewIndex(r.cfg.IndexName).
		Prefix(r.keyPrefix()).
		Text(fieldContent).
		Tag(fieldSource).
		Numeric(fieldPage).
		VectorHNSW(fieldVector, r.cfg.Dimensions, db.DistanceCosine, r.cfg.HNSWM, r.cfg.HNSWEF).
		Build()
}

// EnsureReady creates the index when it does not exist yet.
// A concurrent creator winning the race is not an error.
func (r *Repo) EnsureReady(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.cfg.IndexName)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	}
	if !exists {
		def, err := r.definition()
		if err != nil {
			return fmt.Errorf("index definition: %w", err)
		}
		if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
			return fmt.Errorf("%w: create %s: %w", domain.ErrIndexUnavailable, r.cfg.IndexName, err)
		}
		r.logger.Info("vector index created",
			zap.String("index", r.cfg.IndexName),
			zap.Int("dimensions", r.cfg.Dimensions),
		)
	}
	r.ready.Store(true)
	return nil
}

// Add embeds and stores chunks, returning how many were inserted.
// Failures are logged and reported as zero insertions.
func (r *Repo) Add(ctx context.Context, chunks []domain.Chunk) int {
	n, err := r.AddResult(ctx, chunks)
	if err != nil {
		r.logger.Error("add chunks failed", zap.Int("chunks", len(chunks)), zap.Error(err))
		return 0
	}
	return n
}

// AddResult embeds and stores chunks in one batch. Nothing is written unless every chunk embedded.
func (r *Repo) AddResult(ctx context.Context, chunks []domain.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	if !r.ready.Load() {
		if err := r.EnsureReady(ctx); err != nil {
			return 0, err
		}
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	res, err := domain.BatchEmbed(ctx, r.embedder, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(res.Embeddings) != len(chunks) {
		return 0, fmt.Errorf("%w: got %d embeddings for %d chunks",
			domain.ErrEmbeddingProviderError, len(res.Embeddings), len(chunks))
	}

	items := make([]db.HashSetItem, len(chunks))
	for i := range chunks {
		vec := res.Embeddings[i]
		if len(vec) != r.cfg.Dimensions {
			return 0, fmt.Errorf("%w: chunk %d has %d dims, index expects %d",
				domain.ErrVectorDimMismatch, i, len(vec), r.cfg.Dimensions)
		}
		items[i] = db.HashSetItem{
			Key: r.keyPrefix() + r.newID(),
			Fields: map[string]string{
				fieldContent: chunks[i].Content,
				fieldSource:  chunks[i].Metadata.Source,
				fieldPage:    strconv.Itoa(chunks[i].Metadata.Page),
				fieldVector:  db.EncodeVector(vec),
			},
		}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	metrics.IngestedChunksTotal.Add(float64(len(items)))
	return len(items), nil
}

// Search returns the k nearest chunks to query, or an empty slice on any failure.
func (r *Repo) Search(ctx context.Context, query string, k int) []domain.ScoredChunk {
	out, err := r.SearchResult(ctx, query, k, "")
	if err != nil {
		r.logger.Error("similarity search failed", zap.Int("k", k), zap.Error(err))
		return []domain.ScoredChunk{}
	}
	return out
}

// SearchResult returns the k nearest chunks to query, optionally restricted to one source.
// A missing index yields no matches; provider and store failures are returned.
func (r *Repo) SearchResult(ctx context.Context, query string, k int, source string) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return []domain.ScoredChunk{}, nil
	}

	emb, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	q := &db.KNNQuery{
		IndexName:    r.cfg.IndexName,
		VectorField:  fieldVector,
		Vector:       emb.Embedding,
		K:            k,
		ReturnFields: []string{fieldContent, fieldSource, fieldPage},
	}
	if source != "" {
		q.TagFilters = map[string]string{fieldSource: source}
	}

	res, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			r.ready.Store(false)
			return []domain.ScoredChunk{}, nil
		}
		return nil, fmt.Errorf("%w: knn search: %w", domain.ErrIndexUnavailable, err)
	}

	out := make([]domain.ScoredChunk, 0, len(res.Entries))
	for _, e := range res.Entries {
		page, _ := strconv.Atoi(e.Fields[fieldPage])
		out = append(out, domain.ScoredChunk{
			ID:      e.Key[min(len(e.Key), len(r.keyPrefix())):],
			Content: e.Fields[fieldContent],
			Metadata: domain.Metadata{
				Source: e.Fields[fieldSource],
				Page:   page,
			},
			Score: e.Score,
		})
	}
	metrics.RetrievedChunks.Observe(float64(len(out)))
	return out, nil
}

// Count returns the number of indexed chunks; a missing index counts as empty.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.cfg.IndexName, "*")
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: count: %w", domain.ErrIndexUnavailable, err)
	}
	return n, nil
}

// DeleteAll drops the index together with every stored chunk, then recreates it empty.
func (r *Repo) DeleteAll(ctx context.Context) error {
	r.ready.Store(false)
	if err := r.store.DropIndex(ctx, r.cfg.IndexName, true); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("%w: drop %s: %w", domain.ErrIndexUnavailable, r.cfg.IndexName, err)
	}
	r.logger.Warn("vector index dropped", zap.String("index", r.cfg.IndexName))
	return r.EnsureReady(ctx)
}
