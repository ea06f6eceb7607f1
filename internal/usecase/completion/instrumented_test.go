package completion

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

type stubCompleter struct {
	out   domain.Completion
	err   error
	calls int
}

func (s *stubCompleter) Complete(_ context.Context, _ string) (domain.Completion, error) {
	s.calls++
	return s.out, s.err
}

type fakeBudget struct {
	err      error
	recorded int64
}

func (f *fakeBudget) Check(_ context.Context) error { return f.err }
func (f *fakeBudget) Record(n int64)                { f.recorded += n }

func TestComplete(t *testing.T) {
	tests := []struct {
		name       string
		inner      *stubCompleter
		budget     *fakeBudget
		wantErr    error
		wantCalls  int
		wantRecord int64
	}{
		{
			name:       "ok records tokens",
			inner:      &stubCompleter{out: domain.Completion{Text: "hi", TotalTokens: 42}},
			budget:     &fakeBudget{},
			wantCalls:  1,
			wantRecord: 42,
		},
		{
			name:      "budget rejects before call",
			inner:     &stubCompleter{},
			budget:    &fakeBudget{err: domain.ErrQuotaExceeded},
			wantErr:   domain.ErrQuotaExceeded,
			wantCalls: 0,
		},
		{
			name:      "provider failure records nothing",
			inner:     &stubCompleter{err: domain.ErrLLMProviderError},
			budget:    &fakeBudget{},
			wantErr:   domain.ErrLLMProviderError,
			wantCalls: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewInstrumentedCompleter(tt.inner, "gpt-4o-mini", tt.budget, zap.NewNop())
			out, err := c.Complete(context.Background(), "prompt")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			} else if out.Text != tt.inner.out.Text {
				t.Errorf("text = %q", out.Text)
			}
			if tt.inner.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", tt.inner.calls, tt.wantCalls)
			}
			if tt.budget.recorded != tt.wantRecord {
				t.Errorf("recorded = %d, want %d", tt.budget.recorded, tt.wantRecord)
			}
		})
	}
}

func TestComplete_NilBudget(t *testing.T) {
	c := NewInstrumentedCompleter(&stubCompleter{out: domain.Completion{Text: "ok"}}, "m", nil, zap.NewNop())
	if out, err := c.Complete(context.Background(), "p"); err != nil || out.Text != "ok" {
		t.Fatalf("got %+v, %v", out, err)
	}
}
