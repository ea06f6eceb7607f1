package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	calls []string
	err   error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.calls = append(s.calls, text)
	if s.err != nil {
		return EmbeddingResult{}, s.err
	}
	return EmbeddingResult{Embedding: []float32{float32(len(text))}, PromptTokens: 2, TotalTokens: 3}, nil
}

type stubBatchEmbedder struct {
	stubEmbedder
	batches int
}

func (s *stubBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	s.batches++
	out := BatchEmbeddingResult{TotalTokens: len(texts)}
	for range texts {
		out.Embeddings = append(out.Embeddings, []float32{1})
	}
	return out, nil
}

func TestBatchFallback_AggregatesUsage(t *testing.T) {
	e := &stubEmbedder{}
	res, err := BatchFallback(context.Background(), e, []string{"a", "bb"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(res.Embeddings))
	}
	if res.Embeddings[1][0] != 2 {
		t.Errorf("embeddings out of order: %v", res.Embeddings)
	}
	if res.PromptTokens != 4 || res.TotalTokens != 6 {
		t.Errorf("usage = %d/%d, want 4/6", res.PromptTokens, res.TotalTokens)
	}
}

func TestBatchFallback_Error(t *testing.T) {
	e := &stubEmbedder{err: errors.New("down")}
	_, err := BatchFallback(context.Background(), e, []string{"a"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestBatchEmbed_PrefersNativeBatch(t *testing.T) {
	e := &stubBatchEmbedder{}
	res, err := BatchEmbed(context.Background(), e, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.batches != 1 || len(e.calls) != 0 {
		t.Errorf("expected one batch call and no single calls, got %d/%d", e.batches, len(e.calls))
	}
	if len(res.Embeddings) != 3 {
		t.Errorf("expected 3 embeddings, got %d", len(res.Embeddings))
	}
}

func TestTokenUsage(t *testing.T) {
	ctx, u := NewContextWithUsage(context.Background())
	UsageFromContext(ctx).AddEmbedding(5)
	UsageFromContext(ctx).AddCompletion(7)
	UsageFromContext(ctx).AddEmbedding(1)

	emb, comp := u.Totals()
	if emb != 6 || comp != 7 {
		t.Errorf("totals = %d/%d, want 6/7", emb, comp)
	}

	var missing *TokenUsage = UsageFromContext(context.Background())
	missing.AddEmbedding(1)
	if e, c := missing.Totals(); e != 0 || c != 0 {
		t.Errorf("nil collector should report zero, got %d/%d", e, c)
	}
}
