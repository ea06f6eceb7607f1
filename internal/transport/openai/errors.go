package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// parseAPIError turns a go-openai error into a domain error.
// wrap is the provider sentinel (embedding or llm); quota and rate limit
// responses additionally match the dedicated sentinels.
func parseAPIError(kind string, wrap, err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("%s API error %d: %s: %w",
			kind, reqErr.HTTPStatusCode, detail, classify(reqErr.HTTPStatusCode, "", wrap))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code, _ := apiErr.Code.(string)
		return fmt.Errorf("%s API error %d: %s: %w",
			kind, apiErr.HTTPStatusCode, apiErr.Message, classify(apiErr.HTTPStatusCode, code, wrap))
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s request: %w: %w", kind, err, wrap)
	}

	return fmt.Errorf("%s request failed: %v: %w", kind, err, wrap)
}

func classify(status int, code string, wrap error) error {
	switch {
	case code == "insufficient_quota":
		return fmt.Errorf("%w: %w", wrap, domain.ErrQuotaExceeded)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", wrap, domain.ErrRateLimited)
	default:
		return wrap
	}
}

// extractDetail extracts the "detail" field used by some OpenAI-compatible gateways.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrQuotaExceeded):
		return "quota"
	default:
		return "api_error"
	}
}
