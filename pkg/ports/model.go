package ports

import (
	"context"

	"github.com/aretw0/lookout/pkg/domain"
)

// ChatModel is the contract for any LLM completion backend.
type ChatModel interface {
	// Generate submits the ordered conversation plus the declared tools and
	// returns the next assistant message. The reply may carry tool call requests.
	// An empty tools slice means the model cannot call tools.
	Generate(ctx context.Context, messages []domain.Message, tools []domain.Tool) (domain.Message, error)
}
