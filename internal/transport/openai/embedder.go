package openai

import (
	"context"
	"fmt"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
)

const kindEmbedding = "embedding"

// Embedder is an embedding provider using the OpenAI embeddings API.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	user       string
	logger     *zap.Logger
}

// NewEmbedder creates an OpenAI embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	return &Embedder{
		client:     newClient(cfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		user:       cfg.User,
		logger:     cfg.Logger,
	}
}

// Dimensions returns the configured vector size.
func (e *Embedder) Dimensions() int { return e.dimensions }

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder. Vectors are returned in input order.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	model := string(e.model)
	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		perr := parseAPIError(kindEmbedding, domain.ErrEmbeddingProviderError, err)
		metrics.ProviderRequestsTotal.WithLabelValues(kindEmbedding, model, "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(kindEmbedding, model, errorType(perr)).Inc()
		return domain.BatchEmbeddingResult{}, perr
	}

	if len(resp.Data) != len(texts) {
		metrics.ProviderRequestsTotal.WithLabelValues(kindEmbedding, model, "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(kindEmbedding, model, "count_mismatch").Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf("expected %d embeddings, got %d: %w",
			len(texts), len(resp.Data), domain.ErrEmbeddingProviderError)
	}

	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	embeddings := make([][]float32, len(data))
	for i := range data {
		if e.dimensions > 0 && len(data[i].Embedding) != e.dimensions {
			metrics.ProviderRequestsTotal.WithLabelValues(kindEmbedding, model, "error").Inc()
			metrics.ProviderErrorsTotal.WithLabelValues(kindEmbedding, model, "dimension_mismatch").Inc()
			return domain.BatchEmbeddingResult{}, fmt.Errorf("embedding %d has %d dimensions, want %d: %w",
				i, len(data[i].Embedding), e.dimensions, domain.ErrVectorDimMismatch)
		}
		embeddings[i] = data[i].Embedding
	}

	metrics.ProviderRequestsTotal.WithLabelValues(kindEmbedding, model, "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(kindEmbedding, model).Observe(duration.Seconds())

	promptTokens := resp.Usage.PromptTokens
	totalTokens := resp.Usage.TotalTokens
	if totalTokens > 0 {
		metrics.ProviderTokensTotal.WithLabelValues(kindEmbedding, model, "prompt").Add(float64(promptTokens))
		metrics.ProviderTokensTotal.WithLabelValues(kindEmbedding, model, "total").Add(float64(totalTokens))
	}
	domain.UsageFromContext(ctx).AddEmbedding(totalTokens)

	e.logger.Debug("Embeddings created",
		zap.String("model", model),
		zap.Int("batch_size", len(texts)),
		zap.Int("total_tokens", totalTokens),
		zap.Duration("duration", duration),
	)

	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: promptTokens,
		TotalTokens:  totalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
