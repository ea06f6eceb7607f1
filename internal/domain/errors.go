package domain

import "errors"

var (
	// ErrInvalidInput signals a request that fails validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotPDF signals an upload that is not a PDF document.
	ErrNotPDF = errors.New("only PDF files are allowed")
	// ErrFileTooLarge signals an upload above the configured limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrExtractionFailed signals a PDF that could not be parsed.
	ErrExtractionFailed = errors.New("pdf extraction failed")
	// ErrSessionNotFound signals an unknown session identifier.
	ErrSessionNotFound = errors.New("session not found")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrIndexUnavailable signals a vector index that is missing or unreachable.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded signals an exhausted token budget or provider quota.
	ErrQuotaExceeded = errors.New("token quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrLLMProviderError signals a completion provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
)
