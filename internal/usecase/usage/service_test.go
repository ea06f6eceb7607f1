package usage

import (
	"context"
	"testing"
	"time"

	domusage "github.com/kailas-cloud/pdfchat/internal/domain/usage"
)

type stubReader struct {
	provider string
	day      domusage.Budget
	month    domusage.Budget
}

func (s *stubReader) Snapshot(p domusage.Period) domusage.Budget {
	b := s.day
	if p == domusage.PeriodMonth {
		b = s.month
	}
	b.Provider = s.provider
	return b
}

func fixedService(readers ...BudgetReader) *Service {
	svc := New(readers...)
	svc.now = func() time.Time { return time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC) }
	return svc
}

func TestGetReport_Day(t *testing.T) {
	emb := &stubReader{provider: "embedding", day: domusage.Budget{TokensLimit: 1000, TokensUsed: 300, TokensRemaining: 700}}
	llm := &stubReader{provider: "llm", day: domusage.Budget{TokensLimit: 0, TokensUsed: 5, TokensRemaining: -1}}

	r := fixedService(emb, llm).GetReport(context.Background(), domusage.PeriodDay)

	if r.Period != domusage.PeriodDay {
		t.Errorf("period = %q", r.Period)
	}
	wantStart := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC).UnixMilli()
	if r.PeriodStart != wantStart || r.PeriodEnd != wantStart+24*3600*1000 {
		t.Errorf("bounds = %d..%d", r.PeriodStart, r.PeriodEnd)
	}
	if len(r.Budgets) != 2 || r.Budgets[0].Provider != "embedding" || r.Budgets[1].Provider != "llm" {
		t.Fatalf("budgets = %+v", r.Budgets)
	}
	if r.Budgets[0].TokensRemaining != 700 || r.Budgets[1].TokensRemaining != -1 {
		t.Errorf("remaining = %d/%d", r.Budgets[0].TokensRemaining, r.Budgets[1].TokensRemaining)
	}
}

func TestGetReport_Month(t *testing.T) {
	emb := &stubReader{provider: "embedding", month: domusage.Budget{TokensLimit: 10, TokensUsed: 10, Exhausted: true}}

	r := fixedService(emb).GetReport(context.Background(), domusage.PeriodMonth)

	if r.PeriodStart != time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC).UnixMilli() {
		t.Errorf("start = %d", r.PeriodStart)
	}
	if r.PeriodEnd != time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC).UnixMilli() {
		t.Errorf("end = %d", r.PeriodEnd)
	}
	if !r.Budgets[0].Exhausted {
		t.Error("expected exhausted budget")
	}
}

func TestGetReport_NoBudgets(t *testing.T) {
	r := fixedService(nil).GetReport(context.Background(), domusage.PeriodDay)
	if r.Budgets == nil || len(r.Budgets) != 0 {
		t.Errorf("budgets = %v, want empty slice", r.Budgets)
	}
}
