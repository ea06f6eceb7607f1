// Package openai adapts the OpenAI API to the domain embedding and completion contracts.
package openai

import (
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Config holds the provider settings shared by Embedder and Completer.
type Config struct {
	APIKey  string
	BaseURL string // empty = api.openai.com
	Model   string
	User    string
	Logger  *zap.Logger

	// Embedding only.
	Dimensions int

	// Completion only.
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

func newClient(cfg *Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}
