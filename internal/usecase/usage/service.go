// Package usage reports token consumption against the configured budgets.
package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/pdfchat/internal/domain/usage"
	"github.com/kailas-cloud/pdfchat/internal/usecase/budget"
)

// Service handles usage reporting.
type Service struct {
	readers []BudgetReader
	now     func() time.Time
}

// New creates a Service over the given budgets, reported in argument order.
func New(readers ...BudgetReader) *Service {
	return &Service{readers: readers, now: func() time.Time { return time.Now().UTC() }}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	start, end := budget.PeriodBounds(s.now(), period)
	report := domusage.Report{
		Period:      period,
		PeriodStart: start.UnixMilli(),
		PeriodEnd:   end.UnixMilli(),
		Budgets:     make([]domusage.Budget, 0, len(s.readers)),
	}
	for _, r := range s.readers {
		if r == nil {
			continue
		}
		report.Budgets = append(report.Budgets, r.Snapshot(period))
	}
	return report
}
