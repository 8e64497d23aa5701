// Package chat runs a complete conversation turn: persist the user
// message, assemble the context window, call the model provider and
// persist the reply. Every transport (REST, WebSocket, NATS) goes
// through this one pipeline.
package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/merval-inteligente/pfi-chat-service/internal/llm"
	"github.com/merval-inteligente/pfi-chat-service/internal/models"
	"github.com/merval-inteligente/pfi-chat-service/internal/prompts"
)

var (
	// ErrEmptyMessage is returned for a blank chat turn.
	ErrEmptyMessage = errors.New("chat: message must not be empty")

	// ErrMessageTooLong is returned when the body exceeds the limit.
	ErrMessageTooLong = errors.New("chat: message exceeds maximum length")
)

// ConversationStore is the orchestrator surface the service writes to.
type ConversationStore interface {
	Save(ctx context.Context, msg models.Message) error
}

// ContextBuilder assembles the bounded context window for the model.
type ContextBuilder interface {
	Build(ctx context.Context, userID string, maxMessages int) ([]models.PromptMessage, error)
}

// Service is the turn pipeline.
type Service struct {
	store     ConversationStore
	builder   ContextBuilder
	provider  llm.Provider
	maxLength int
}

// NewService creates the turn pipeline. maxLength bounds the message
// body in characters; zero or negative selects the default.
func NewService(store ConversationStore, builder ContextBuilder, provider llm.Provider, maxLength int) *Service {
	if maxLength <= 0 {
		maxLength = models.MaxMessageLength
	}
	return &Service{store: store, builder: builder, provider: provider, maxLength: maxLength}
}

// HandleTurn persists the user message, generates the assistant reply
// and persists it. A provider failure degrades to a fallback reply;
// a storage failure (all tiers down) is returned to the caller.
func (s *Service) HandleTurn(ctx context.Context, userID, text string, userContext map[string]string) (*models.ChatResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	// The bound counts characters, not bytes, so accented Spanish text
	// is not penalized for its UTF-8 encoding.
	if utf8.RuneCountInString(text) > s.maxLength {
		return nil, ErrMessageTooLong
	}

	userMsg := models.Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		Body:      text,
		Role:      models.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Save(ctx, userMsg); err != nil {
		return nil, err
	}

	window, err := s.builder.Build(ctx, userID, 0)
	if err != nil {
		log.Printf("context assembly failed for %s, continuing without history: %v", userID, err)
		window = []models.PromptMessage{{Role: models.RoleUser, Content: text}}
	}

	prompt := make([]models.PromptMessage, 0, len(window)+1)
	prompt = append(prompt, models.PromptMessage{
		Role:    models.RoleSystem,
		Content: prompts.SystemPrompt(userContext),
	})
	prompt = append(prompt, window...)

	reply, err := s.provider.GenerateReply(ctx, prompt)
	if err != nil {
		log.Printf("model call failed for %s: %v", userID, err)
		reply = prompts.FallbackMessage
	}

	assistantMsg := models.Message{
		ID:        uuid.NewString(),
		UserID:    userID,
		Body:      reply,
		Role:      models.RoleAssistant,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Save(ctx, assistantMsg); err != nil {
		log.Printf("failed to store assistant reply for %s: %v", userID, err)
	}

	return &models.ChatResponse{
		MessageID:         userMsg.ID,
		UserMessage:       userMsg.Body,
		AssistantResponse: reply,
		Timestamp:         assistantMsg.CreatedAt,
		Model:             s.provider.Name(),
	}, nil
}
