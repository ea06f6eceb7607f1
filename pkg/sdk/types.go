package pdfchat

import "time"

// Intent is the coarse class of a query.
type Intent string

// Intents reported by the server.
const (
	IntentInformationRetrieval Intent = "information_retrieval"
	IntentGeneralChat          Intent = "general_chat"
	IntentUnknown              Intent = "unknown"
)

// Source identifies a page of an uploaded PDF.
type Source struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
}

// ChatReply is the answer to a chat message.
type ChatReply struct {
	Response  string   `json:"response"`
	SessionID string   `json:"session_id"`
	Sources   []Source `json:"sources,omitempty"`
	// CompletionTokens and EmbeddingTokens are read from response headers.
	CompletionTokens int `json:"-"`
	EmbeddingTokens  int `json:"-"`
}

// QueryRequest is a raw similarity search.
type QueryRequest struct {
	Query  string `json:"query"`
	TopK   int    `json:"top_k,omitempty"`
	Source string `json:"source,omitempty"`
}

// QueryResult is one matching chunk.
type QueryResult struct {
	ID       string  `json:"id,omitempty"`
	Content  string  `json:"content"`
	Metadata Source  `json:"metadata"`
	Score    float64 `json:"score"`
}

// Turn is one recorded exchange of a session.
type Turn struct {
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	At        time.Time `json:"at"`
}

// IndexStats describes the vector index.
type IndexStats struct {
	Index  string `json:"index"`
	Chunks int    `json:"chunks"`
}

// UsagePeriod is the aggregation granularity for usage reports.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
)

// Budget is the token budget state of one provider.
type Budget struct {
	Provider        string `json:"provider"`
	TokensLimit     int64  `json:"tokens_limit"`
	TokensUsed      int64  `json:"tokens_used"`
	TokensRemaining int64  `json:"tokens_remaining"`
	IsExhausted     bool   `json:"is_exhausted"`
}

// UsageReport contains token budgets for a period.
type UsageReport struct {
	Period        UsagePeriod `json:"period"`
	PeriodStartAt time.Time   `json:"period_start_at"`
	PeriodEndAt   time.Time   `json:"period_end_at"`
	Budgets       []Budget    `json:"budgets"`
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded", "error"
	Checks map[string]string `json:"checks"` // component -> "ok"/"error"
	Chunks *int              `json:"chunks,omitempty"`
}
