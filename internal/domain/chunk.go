package domain

// Metadata identifies where a chunk came from.
type Metadata struct {
	Source string `json:"source"`
	Page   int    `json:"page"` // 1-indexed
}

// Chunk is a span of page text sized for embedding.
type Chunk struct {
	Content  string
	Metadata Metadata
	// Start and End are byte offsets of Content within its page text.
	Start int
	End   int
}

// ScoredChunk is a chunk returned by similarity search.
type ScoredChunk struct {
	ID       string
	Content  string
	Metadata Metadata
	Score    float64 // cosine similarity, higher is closer
}
