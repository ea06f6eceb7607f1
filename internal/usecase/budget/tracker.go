// Package budget enforces daily and monthly token caps per model provider.
package budget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/domain/usage"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
)

// Action defines behavior when a token budget is exceeded.
type Action string

const (
	// ActionWarn logs a warning but allows the request.
	ActionWarn Action = "warn"
	// ActionReject blocks the request with domain.ErrQuotaExceeded.
	ActionReject Action = "reject"
)

// Store persists budget counters.
// IncrBy may be called repeatedly for the same key.
type Store interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// Limits configures a tracker.
type Limits struct {
	Daily   int64 // 0 = unlimited
	Monthly int64 // 0 = unlimited
	Action  Action
}

// Tracker is an in-memory token budget with optional write-behind persistence.
// Check never touches the store.
type Tracker struct {
	mu             sync.Mutex
	provider       string
	keyPrefix      string
	limits         Limits
	dailyUsed      int64
	monthlyUsed    int64
	lastDayReset   time.Time
	lastMonthReset time.Time
	store          Store
	logger         *zap.Logger
	now            func() time.Time
}

// NewTracker creates a tracker for provider ("embedding" or "llm").
func NewTracker(provider, keyPrefix string, limits Limits, logger *zap.Logger) *Tracker {
	if limits.Action == "" {
		limits.Action = ActionWarn
	}
	t := &Tracker{
		provider:  provider,
		keyPrefix: keyPrefix,
		limits:    limits,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	now := t.now()
	t.lastDayReset = truncateToDay(now)
	t.lastMonthReset = truncateToMonth(now)
	return t
}

// WithStore attaches a persistence store and loads the current counters from it.
func (t *Tracker) WithStore(ctx context.Context, s Store) *Tracker {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.store = s
	now := t.now()
	if v, err := s.Get(ctx, t.dailyKey(now)); err == nil {
		t.dailyUsed = v
	} else {
		t.logger.Warn("Failed to load daily budget", zap.String("provider", t.provider), zap.Error(err))
	}
	if v, err := s.Get(ctx, t.monthlyKey(now)); err == nil {
		t.monthlyUsed = v
	} else {
		t.logger.Warn("Failed to load monthly budget", zap.String("provider", t.provider), zap.Error(err))
	}

	t.logger.Info("Budget loaded",
		zap.String("provider", t.provider),
		zap.Int64("daily_used", t.dailyUsed),
		zap.Int64("monthly_used", t.monthlyUsed),
	)
	return t
}

// Provider returns the provider label.
func (t *Tracker) Provider() string { return t.provider }

func (t *Tracker) dailyKey(now time.Time) string {
	return fmt.Sprintf("%sbudget:%s:daily:%s", t.keyPrefix, t.provider, now.Format("2006-01-02"))
}

func (t *Tracker) monthlyKey(now time.Time) string {
	return fmt.Sprintf("%sbudget:%s:monthly:%s", t.keyPrefix, t.provider, now.Format("2006-01"))
}

// Check reports whether a new request may proceed.
func (t *Tracker) Check(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNeeded()

	daily := t.limits.Daily > 0 && t.dailyUsed >= t.limits.Daily
	monthly := t.limits.Monthly > 0 && t.monthlyUsed >= t.limits.Monthly
	if !daily && !monthly {
		return nil
	}
	if t.limits.Action == ActionReject {
		return fmt.Errorf("%s: %w", t.provider, domain.ErrQuotaExceeded)
	}

	t.logger.Warn("Token budget exceeded",
		zap.String("provider", t.provider),
		zap.Int64("daily_used", t.dailyUsed),
		zap.Int64("daily_limit", t.limits.Daily),
		zap.Int64("monthly_used", t.monthlyUsed),
		zap.Int64("monthly_limit", t.limits.Monthly),
	)
	return nil
}

// Record adds consumed tokens, refreshes the remaining-budget gauge and
// persists the increment when a store is attached.
func (t *Tracker) Record(tokens int64) {
	if tokens <= 0 {
		return
	}
	t.mu.Lock()
	t.resetIfNeeded()
	t.dailyUsed += tokens
	t.monthlyUsed += tokens
	now := t.now()
	dailyKey, monthlyKey := t.dailyKey(now), t.monthlyKey(now)
	dailyLeft, monthlyLeft := remaining(t.limits.Daily, t.dailyUsed), remaining(t.limits.Monthly, t.monthlyUsed)
	s := t.store
	t.mu.Unlock()

	metrics.BudgetTokensRemaining.WithLabelValues(t.provider, "daily").Set(float64(dailyLeft))
	metrics.BudgetTokensRemaining.WithLabelValues(t.provider, "monthly").Set(float64(monthlyLeft))

	if s == nil {
		return
	}
	// Detached from the request so a cancelled client does not lose the increment.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.IncrBy(ctx, dailyKey, tokens); err != nil {
		t.logger.Warn("Failed to persist daily budget", zap.String("key", dailyKey), zap.Error(err))
	}
	if err := s.IncrBy(ctx, monthlyKey, tokens); err != nil {
		t.logger.Warn("Failed to persist monthly budget", zap.String("key", monthlyKey), zap.Error(err))
	}
}

// Snapshot returns the budget state for the given period.
func (t *Tracker) Snapshot(period usage.Period) usage.Budget {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNeeded()

	limit, used := t.limits.Daily, t.dailyUsed
	if period == usage.PeriodMonth {
		limit, used = t.limits.Monthly, t.monthlyUsed
	}
	left := remaining(limit, used)
	return usage.Budget{
		Provider:        t.provider,
		TokensLimit:     limit,
		TokensUsed:      used,
		TokensRemaining: left,
		Exhausted:       left == 0,
	}
}

// Now returns the tracker clock, used to align report periods.
func (t *Tracker) Now() time.Time { return t.now() }

// remaining returns tokens left, or -1 when limit is 0 (unlimited).
func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	return max(0, limit-used)
}

func (t *Tracker) resetIfNeeded() {
	now := t.now()
	if day := truncateToDay(now); day.After(t.lastDayReset) {
		t.dailyUsed = 0
		t.lastDayReset = day
	}
	if month := truncateToMonth(now); month.After(t.lastMonthReset) {
		t.monthlyUsed = 0
		t.lastMonthReset = month
	}
}

// PeriodBounds returns [start, end) of the period containing now, in UTC.
func PeriodBounds(now time.Time, period usage.Period) (time.Time, time.Time) {
	if period == usage.PeriodMonth {
		start := truncateToMonth(now)
		return start, start.AddDate(0, 1, 0)
	}
	start := truncateToDay(now)
	return start, start.AddDate(0, 0, 1)
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
