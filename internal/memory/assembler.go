package memory

import (
	"context"

	"github.com/merval-inteligente/pfi-chat-service/internal/models"
)

// HistorySource is the read path consumed by the assembler.
type HistorySource interface {
	History(ctx context.Context, userID string, limit int) ([]models.Message, error)
}

// Assembler builds the bounded, recency-biased context window sent to
// the model provider.
type Assembler struct {
	source      HistorySource
	maxMessages int
}

func NewAssembler(source HistorySource, maxMessages int) *Assembler {
	if maxMessages <= 0 {
		maxMessages = 20
	}
	return &Assembler{source: source, maxMessages: maxMessages}
}

// Build returns at most maxMessages role-tagged entries in
// chronological order, always ending with the newest message.
// Non user/assistant messages are dropped, except a system directive
// that leads the conversation. Truncation removes the oldest entries
// first. maxMessages <= 0 uses the configured window.
func (a *Assembler) Build(ctx context.Context, userID string, maxMessages int) ([]models.PromptMessage, error) {
	if maxMessages <= 0 {
		maxMessages = a.maxMessages
	}

	history, err := a.source.History(ctx, userID, maxMessages)
	if err != nil {
		return nil, err
	}

	window := make([]models.PromptMessage, 0, len(history))
	for i, msg := range history {
		switch msg.Role {
		case models.RoleUser, models.RoleAssistant:
		case models.RoleSystem:
			if i != 0 {
				continue
			}
		default:
			continue
		}
		window = append(window, models.PromptMessage{Role: msg.Role, Content: msg.Body})
	}

	if len(window) > maxMessages {
		window = window[len(window)-maxMessages:]
	}
	return window, nil
}
