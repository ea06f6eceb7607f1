package usage

import domusage "github.com/kailas-cloud/pdfchat/internal/domain/usage"

// BudgetReader provides read-only access to one provider's token budget.
type BudgetReader interface {
	Snapshot(period domusage.Period) domusage.Budget
}
