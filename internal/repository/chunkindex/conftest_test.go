package chunkindex

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/kailas-cloud/pdfchat/internal/db"
	"github.com/kailas-cloud/pdfchat/internal/domain"
)

const testDims = 4

// memStore is an in-memory stand-in for the redis store with brute-force cosine KNN.
type memStore struct {
	mu      sync.Mutex
	indexes map[string]*db.IndexDefinition
	hashes  map[string]map[string]string

	createCalls int
	existsErr   error
	hsetErr     error
	searchErr   error
	lastQuery   *db.KNNQuery
}

func newMemStore() *memStore {
	return &memStore{
		indexes: map[string]*db.IndexDefinition{},
		hashes:  map[string]map[string]string{},
	}
}

func (m *memStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if _, ok := m.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	m.indexes[def.Name] = def
	return nil
}

func (m *memStore) DropIndex(_ context.Context, name string, deleteDocs bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	def, ok := m.indexes[name]
	if !ok {
		return db.ErrIndexNotFound
	}
	delete(m.indexes, name)
	if deleteDocs {
		for k := range m.hashes {
			if strings.HasPrefix(k, def.Prefixes[0]) {
				delete(m.hashes, k)
			}
		}
	}
	return nil
}

func (m *memStore) IndexExists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.indexes[name]
	return ok, nil
}

func (m *memStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hsetErr != nil {
		return m.hsetErr
	}
	for _, it := range items {
		m.hashes[it.Key] = it.Fields
	}
	return nil
}

func (m *memStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = q
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	def, ok := m.indexes[q.IndexName]
	if !ok {
		return nil, db.ErrIndexNotFound
	}

	var entries []db.SearchEntry
	for key, fields := range m.hashes {
		if !strings.HasPrefix(key, def.Prefixes[0]) {
			continue
		}
		if src, ok := q.TagFilters[fieldSource]; ok && fields[fieldSource] != src {
			continue
		}
		vec := db.DecodeVector(fields[q.VectorField])
		entries = append(entries, db.SearchEntry{
			Key:   key,
			Score: max(0, cosine(q.Vector, vec)),
			Fields: map[string]string{
				fieldContent: fields[fieldContent],
				fieldSource:  fields[fieldSource],
				fieldPage:    fields[fieldPage],
			},
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Key < entries[j].Key
	})
	total := len(entries)
	if len(entries) > q.K {
		entries = entries[:q.K]
	}
	return &db.SearchResult{Total: total, Entries: entries}, nil
}

func (m *memStore) SearchCount(_ context.Context, index, _ string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	def, ok := m.indexes[index]
	if !ok {
		return 0, db.ErrIndexNotFound
	}
	n := 0
	for k := range m.hashes {
		if strings.HasPrefix(k, def.Prefixes[0]) {
			n++
		}
	}
	return n, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		if i >= len(b) {
			break
		}
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// keywordEmbedder maps text onto four topic axes so similarity is predictable.
type keywordEmbedder struct {
	dims  int
	err   error
	calls int
}

var topics = [testDims]string{"invoice", "refund", "shipping", "warranty"}

func (e *keywordEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.calls++
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	dims := e.dims
	if dims == 0 {
		dims = testDims
	}
	vec := make([]float32, dims)
	lower := strings.ToLower(text)
	for i := 0; i < dims && i < len(topics); i++ {
		vec[i] = float32(strings.Count(lower, topics[i]))
	}
	vec[dims-1] += 0.01
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: len(text) / 4}, nil
}

func newTestRepo(t *testing.T) (*Repo, *memStore, *keywordEmbedder) {
	t.Helper()
	ms := newMemStore()
	emb := &keywordEmbedder{}
	r := New(ms, emb, Config{
		IndexName:  "pdf-chatbot-index",
		KeyPrefix:  "pdfchat:",
		Dimensions: testDims,
		HNSWM:      16,
		HNSWEF:     200,
	}, nil)
	return r, ms, emb
}

var errProvider = errors.Join(domain.ErrEmbeddingProviderError, errors.New("503 upstream"))
