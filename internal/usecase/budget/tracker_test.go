package budget

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/domain/usage"
)

type memStore struct {
	mu     sync.Mutex
	data   map[string]int64
	getErr error
	incErr error
}

func newMemStore() *memStore { return &memStore{data: map[string]int64{}} }

func (m *memStore) IncrBy(_ context.Context, key string, val int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incErr != nil {
		return m.incErr
	}
	m.data[key] += val
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return 0, m.getErr
	}
	return m.data[key], nil
}

// fixedClock pins the tracker to a settable instant.
func fixedClock(t *Tracker, at *time.Time) {
	t.now = func() time.Time { return *at }
	t.lastDayReset = truncateToDay(*at)
	t.lastMonthReset = truncateToMonth(*at)
}

func TestTracker_RejectWhenDailyExceeded(t *testing.T) {
	tr := NewTracker("llm", "pdfchat:", Limits{Daily: 100, Action: ActionReject}, zap.NewNop())
	tr.Record(100)

	err := tr.Check(context.Background())
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestTracker_RejectWhenMonthlyExceeded(t *testing.T) {
	tr := NewTracker("embedding", "pdfchat:", Limits{Monthly: 500, Action: ActionReject}, zap.NewNop())
	tr.Record(499)
	if err := tr.Check(context.Background()); err != nil {
		t.Fatalf("below limit: %v", err)
	}
	tr.Record(1)
	if err := tr.Check(context.Background()); !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestTracker_WarnAllows(t *testing.T) {
	tr := NewTracker("llm", "pdfchat:", Limits{Daily: 10}, zap.NewNop())
	tr.Record(50)
	if err := tr.Check(context.Background()); err != nil {
		t.Fatalf("warn action must allow, got %v", err)
	}
}

func TestTracker_Unlimited(t *testing.T) {
	tr := NewTracker("llm", "pdfchat:", Limits{Action: ActionReject}, zap.NewNop())
	tr.Record(1 << 40)
	if err := tr.Check(context.Background()); err != nil {
		t.Fatalf("unlimited budget rejected: %v", err)
	}
	snap := tr.Snapshot(usage.PeriodDay)
	if snap.TokensRemaining != -1 || snap.Exhausted {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestTracker_Snapshot(t *testing.T) {
	tr := NewTracker("embedding", "pdfchat:", Limits{Daily: 1000, Monthly: 10000}, zap.NewNop())
	tr.Record(250)

	day := tr.Snapshot(usage.PeriodDay)
	if day.Provider != "embedding" || day.TokensLimit != 1000 || day.TokensUsed != 250 || day.TokensRemaining != 750 {
		t.Errorf("day = %+v", day)
	}
	month := tr.Snapshot(usage.PeriodMonth)
	if month.TokensLimit != 10000 || month.TokensRemaining != 9750 {
		t.Errorf("month = %+v", month)
	}

	tr.Record(5000)
	if day := tr.Snapshot(usage.PeriodDay); !day.Exhausted || day.TokensRemaining != 0 {
		t.Errorf("over limit day = %+v", day)
	}
}

func TestTracker_IgnoresNonPositive(t *testing.T) {
	tr := NewTracker("llm", "pdfchat:", Limits{Daily: 10}, zap.NewNop())
	tr.Record(0)
	tr.Record(-5)
	if used := tr.Snapshot(usage.PeriodDay).TokensUsed; used != 0 {
		t.Errorf("used = %d, want 0", used)
	}
}

func TestTracker_DayRollover(t *testing.T) {
	at := time.Date(2026, 10, 17, 23, 59, 0, 0, time.UTC)
	tr := NewTracker("llm", "pdfchat:", Limits{Daily: 100, Monthly: 1000, Action: ActionReject}, zap.NewNop())
	fixedClock(tr, &at)

	tr.Record(100)
	if err := tr.Check(context.Background()); err == nil {
		t.Fatal("expected rejection before midnight")
	}

	at = at.Add(2 * time.Minute)
	if err := tr.Check(context.Background()); err != nil {
		t.Fatalf("daily budget should reset at midnight: %v", err)
	}
	if used := tr.Snapshot(usage.PeriodMonth).TokensUsed; used != 100 {
		t.Errorf("monthly used = %d, want 100 (month unchanged)", used)
	}

	at = time.Date(2026, 11, 1, 0, 0, 1, 0, time.UTC)
	if used := tr.Snapshot(usage.PeriodMonth).TokensUsed; used != 0 {
		t.Errorf("monthly used after rollover = %d, want 0", used)
	}
}

func TestTracker_WithStore(t *testing.T) {
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	s := newMemStore()
	s.data["pdfchat:budget:llm:daily:2026-10-17"] = 40
	s.data["pdfchat:budget:llm:monthly:2026-10"] = 400

	tr := NewTracker("llm", "pdfchat:", Limits{Daily: 100}, zap.NewNop())
	fixedClock(tr, &at)
	tr.WithStore(context.Background(), s)

	if used := tr.Snapshot(usage.PeriodDay).TokensUsed; used != 40 {
		t.Errorf("loaded daily = %d, want 40", used)
	}

	tr.Record(10)
	if got := s.data["pdfchat:budget:llm:daily:2026-10-17"]; got != 50 {
		t.Errorf("persisted daily = %d, want 50", got)
	}
	if got := s.data["pdfchat:budget:llm:monthly:2026-10"]; got != 410 {
		t.Errorf("persisted monthly = %d, want 410", got)
	}
}

func TestTracker_StoreErrorsAreNotFatal(t *testing.T) {
	s := newMemStore()
	s.getErr = errors.New("down")
	s.incErr = errors.New("down")

	tr := NewTracker("embedding", "pdfchat:", Limits{Daily: 100}, zap.NewNop()).WithStore(context.Background(), s)
	tr.Record(10)
	if used := tr.Snapshot(usage.PeriodDay).TokensUsed; used != 10 {
		t.Errorf("in-memory used = %d, want 10", used)
	}
}

func TestTracker_ConcurrentRecord(t *testing.T) {
	tr := NewTracker("embedding", "pdfchat:", Limits{}, zap.NewNop())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Record(2)
		}()
	}
	wg.Wait()
	if used := tr.Snapshot(usage.PeriodDay).TokensUsed; used != 100 {
		t.Errorf("used = %d, want 100", used)
	}
}

func TestPeriodBounds(t *testing.T) {
	now := time.Date(2026, 2, 14, 15, 4, 5, 0, time.UTC)

	start, end := PeriodBounds(now, usage.PeriodDay)
	if !start.Equal(time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)) || !end.Equal(time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("day = %v..%v", start, end)
	}
	start, end = PeriodBounds(now, usage.PeriodMonth)
	if !start.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) || !end.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("month = %v..%v", start, end)
	}
}
