package chi

import (
	"context"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	domusage "github.com/kailas-cloud/pdfchat/internal/domain/usage"
	chatuc "github.com/kailas-cloud/pdfchat/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/pdfchat/internal/usecase/health"
	queryuc "github.com/kailas-cloud/pdfchat/internal/usecase/query"
)

// ChatService answers chat messages and manages session memory.
type ChatService interface {
	Chat(ctx context.Context, message, sessionID string) chatuc.Reply
	History(id string) ([]domain.Turn, error)
	Clear(id string) error
	Sessions() []string
}

// QueryService runs raw similarity searches.
type QueryService interface {
	QueryResult(ctx context.Context, req queryuc.Request) ([]domain.ScoredChunk, error)
}

// IngestService indexes a PDF stored on disk.
type IngestService interface {
	IngestAs(ctx context.Context, path, source string) (int, error)
}

// IntentService classifies queries.
type IntentService interface {
	Detect(ctx context.Context, query string) domain.Intent
}

// IndexAdmin inspects and resets the vector index.
type IndexAdmin interface {
	IndexName() string
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

// UsageService reports token budgets.
type UsageService interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// HealthService checks dependencies.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
