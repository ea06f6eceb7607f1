package domain

import (
	"context"
	"time"
)

// Turn is one user message and the assistant reply to it.
type Turn struct {
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	At        time.Time `json:"at"`
}

// Intent is the coarse class of a user query.
type Intent string

// Known intents.
const (
	IntentInformationRetrieval Intent = "information_retrieval"
	IntentGeneralChat          Intent = "general_chat"
	IntentUnknown              Intent = "unknown"
)

// Completer produces a single-turn completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
}

// Completion carries the model reply and its token usage.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
