// Package usage describes token consumption reports.
package usage

import "fmt"

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name. Empty input means PeriodDay.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// Budget is a token budget snapshot for one provider.
type Budget struct {
	Provider        string
	TokensLimit     int64 // 0 = unlimited
	TokensUsed      int64
	TokensRemaining int64 // -1 = unlimited
	Exhausted       bool
}

// Report is a usage report for a period.
type Report struct {
	Period      Period
	PeriodStart int64 // unix millis
	PeriodEnd   int64 // unix millis
	Budgets     []Budget
}
