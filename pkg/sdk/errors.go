package pdfchat

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors matched by APIError. Use errors.Is() to check.
var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrFileTooLarge    = errors.New("file too large")
	ErrQuotaExceeded   = errors.New("token quota exceeded")
	ErrRateLimited     = errors.New("rate limited")
	ErrProvider        = errors.New("model provider error")
	ErrUnavailable     = errors.New("service unavailable")
	ErrInternal        = errors.New("internal server error")
	errUnexpectedReply = errors.New("unexpected response")
)

// APIError is a non-2xx reply from the server.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("pdfchat: %d %s: %s", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("pdfchat: %d %s", e.StatusCode, e.Message)
}

// Unwrap maps the status code to a sentinel.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return ErrInvalidRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusRequestEntityTooLarge:
		return ErrFileTooLarge
	case http.StatusPaymentRequired:
		return ErrQuotaExceeded
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadGateway:
		return ErrProvider
	case http.StatusServiceUnavailable:
		return ErrUnavailable
	default:
		if e.StatusCode >= http.StatusInternalServerError {
			return ErrInternal
		}
		return errUnexpectedReply
	}
}
