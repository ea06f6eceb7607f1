package chi

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	domusage "github.com/kailas-cloud/pdfchat/internal/domain/usage"
	healthuc "github.com/kailas-cloud/pdfchat/internal/usecase/health"
)

// IndexStats handles GET /index.
func (s *Server) IndexStats(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Index.Count(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, indexResponse{Index: s.svc.Index.IndexName(), Chunks: n})
}

// DeleteIndex handles DELETE /index. Every indexed chunk is removed.
func (s *Server) DeleteIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Index.DeleteAll(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.logger.Warn("index reset via API", zap.String("index", s.svc.Index.IndexName()))
	w.WriteHeader(http.StatusNoContent)
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period, err := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report := s.svc.Usage.GetReport(r.Context(), period)
	resp := usageResponse{
		Period:        string(report.Period),
		PeriodStartAt: time.UnixMilli(report.PeriodStart).UTC(),
		PeriodEndAt:   time.UnixMilli(report.PeriodEnd).UTC(),
		Budgets:       make([]budgetResponse, len(report.Budgets)),
	}
	for i, b := range report.Budgets {
		resp.Budgets[i] = budgetResponse{
			Provider:        b.Provider,
			TokensLimit:     b.TokensLimit,
			TokensUsed:      b.TokensUsed,
			TokensRemaining: b.TokensRemaining,
			Exhausted:       b.Exhausted,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.svc.Health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	resp := healthResponse{Status: string(report.Status), Checks: checks}
	if report.Chunks >= 0 {
		n := report.Chunks
		resp.Chunks = &n
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, resp)
}
