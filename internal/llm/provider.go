package llm

import (
	"context"

	"github.com/merval-inteligente/pfi-chat-service/internal/models"
)

// Provider generates an assistant reply from an assembled context
// window. The service only passes the text through; provider-specific
// response fields stay inside the implementation.
type Provider interface {
	Name() string
	GenerateReply(ctx context.Context, messages []models.PromptMessage) (string, error)
}
