package chi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/logger"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest),
		sentinelHandler(domain.ErrNotPDF, http.StatusBadRequest),
		sentinelHandler(domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge),
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests),
		sentinelHandler(domain.ErrQuotaExceeded, http.StatusPaymentRequired),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway),
		sentinelHandler(domain.ErrLLMProviderError, http.StatusBadGateway),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable),
	}
}

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{StatusCode: status, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrNotPDF,
		domain.ErrFileTooLarge,
		domain.ErrSessionNotFound,
		domain.ErrRateLimited,
		domain.ErrQuotaExceeded,
		domain.ErrEmbeddingProviderError,
		domain.ErrLLMProviderError,
		domain.ErrIndexUnavailable,
		domain.ErrExtractionFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// Validation errors carry their full text so clients see which field failed.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		if status == http.StatusBadRequest {
			msg = err.Error()
		}
		writeError(w, status, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), s.logger)
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		StatusCode: http.StatusInternalServerError,
		Message:    msg,
		Details:    err.Error(),
	})
}
