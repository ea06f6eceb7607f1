package chi

import "time"

type messageResponse struct {
	Message string `json:"message"`
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Response  string           `json:"response"`
	SessionID string           `json:"session_id"`
	Sources   []metadataResult `json:"sources,omitempty"`
}

type queryRequest struct {
	Query  string `json:"query"`
	TopK   *int   `json:"top_k,omitempty"`
	Source string `json:"source,omitempty"`
}

type metadataResult struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
}

type queryResult struct {
	ID       string         `json:"id,omitempty"`
	Content  string         `json:"content"`
	Metadata metadataResult `json:"metadata"`
	Score    float64        `json:"score"`
}

type queryResponse struct {
	Results []queryResult `json:"results"`
}

type intentRequest struct {
	Query string `json:"query"`
}

type intentResponse struct {
	Intent string `json:"intent"`
}

type sessionsResponse struct {
	Sessions []string `json:"sessions"`
}

type turnResponse struct {
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	At        time.Time `json:"at"`
}

type sessionResponse struct {
	SessionID string         `json:"session_id"`
	Turns     []turnResponse `json:"turns"`
}

type indexResponse struct {
	Index  string `json:"index"`
	Chunks int    `json:"chunks"`
}

type budgetResponse struct {
	Provider        string `json:"provider"`
	TokensLimit     int64  `json:"tokens_limit"`
	TokensUsed      int64  `json:"tokens_used"`
	TokensRemaining int64  `json:"tokens_remaining"`
	Exhausted       bool   `json:"is_exhausted"`
}

type usageResponse struct {
	Period        string           `json:"period"`
	PeriodStartAt time.Time        `json:"period_start_at"`
	PeriodEndAt   time.Time        `json:"period_end_at"`
	Budgets       []budgetResponse `json:"budgets"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Chunks *int              `json:"chunks,omitempty"`
}
