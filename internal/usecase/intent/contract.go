package intent

import (
	"context"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// Classifier is the completion backend used for classification.
type Classifier interface {
	Complete(ctx context.Context, prompt string) (domain.Completion, error)
}
