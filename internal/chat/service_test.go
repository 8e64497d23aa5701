package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merval-inteligente/pfi-chat-service/internal/models"
	"github.com/merval-inteligente/pfi-chat-service/internal/prompts"
)

type fakeStore struct {
	saved   []models.Message
	saveErr error
}

func (f *fakeStore) Save(ctx context.Context, msg models.Message) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, msg)
	return nil
}

type fakeBuilder struct {
	window []models.PromptMessage
}

func (f *fakeBuilder) Build(ctx context.Context, userID string, maxMessages int) ([]models.PromptMessage, error) {
	return f.window, nil
}

type fakeProvider struct {
	reply    string
	err      error
	received []models.PromptMessage
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) GenerateReply(ctx context.Context, messages []models.PromptMessage) (string, error) {
	f.received = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestHandleTurnSavesBothMessages(t *testing.T) {
	store := &fakeStore{}
	provider := &fakeProvider{reply: "El MERVAL cerró al alza."}
	svc := NewService(store, &fakeBuilder{}, provider, 0)

	resp, err := svc.HandleTurn(context.Background(), "user-1", "¿Cómo está el MERVAL?", nil)
	require.NoError(t, err)

	require.Len(t, store.saved, 2)
	assert.Equal(t, models.RoleUser, store.saved[0].Role)
	assert.Equal(t, "¿Cómo está el MERVAL?", store.saved[0].Body)
	assert.Equal(t, models.RoleAssistant, store.saved[1].Role)
	assert.Equal(t, "El MERVAL cerró al alza.", store.saved[1].Body)

	assert.Equal(t, "¿Cómo está el MERVAL?", resp.UserMessage)
	assert.Equal(t, "El MERVAL cerró al alza.", resp.AssistantResponse)
	assert.Equal(t, "fake", resp.Model)
	assert.NotEmpty(t, resp.MessageID)
}

func TestHandleTurnPrependsSystemPrompt(t *testing.T) {
	provider := &fakeProvider{reply: "ok"}
	builder := &fakeBuilder{window: []models.PromptMessage{
		{Role: models.RoleUser, Content: "hola"},
	}}
	svc := NewService(&fakeStore{}, builder, provider, 0)

	_, err := svc.HandleTurn(context.Background(), "user-1", "hola", map[string]string{"perfil": "conservador"})
	require.NoError(t, err)

	require.NotEmpty(t, provider.received)
	assert.Equal(t, models.RoleSystem, provider.received[0].Role)
	assert.Contains(t, provider.received[0].Content, "asistente financiero")
	assert.Contains(t, provider.received[0].Content, "conservador")
}

func TestHandleTurnRejectsEmptyMessage(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeBuilder{}, &fakeProvider{}, 0)

	_, err := svc.HandleTurn(context.Background(), "user-1", "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestHandleTurnRejectsOversizedMessage(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeBuilder{}, &fakeProvider{}, 0)

	_, err := svc.HandleTurn(context.Background(), "user-1", strings.Repeat("a", models.MaxMessageLength+1), nil)
	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestHandleTurnCountsCharactersNotBytes(t *testing.T) {
	// "á" is two bytes in UTF-8; a body at the character limit must be
	// accepted even though its byte length is twice the bound.
	store := &fakeStore{}
	svc := NewService(store, &fakeBuilder{}, &fakeProvider{reply: "ok"}, 0)

	_, err := svc.HandleTurn(context.Background(), "user-1", strings.Repeat("á", models.MaxMessageLength), nil)
	require.NoError(t, err)
	require.Len(t, store.saved, 2)

	_, err = svc.HandleTurn(context.Background(), "user-1", strings.Repeat("á", models.MaxMessageLength+1), nil)
	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestHandleTurnHonorsConfiguredLimit(t *testing.T) {
	svc := NewService(&fakeStore{}, &fakeBuilder{}, &fakeProvider{reply: "ok"}, 10)

	_, err := svc.HandleTurn(context.Background(), "user-1", "corto", nil)
	require.NoError(t, err)

	_, err = svc.HandleTurn(context.Background(), "user-1", strings.Repeat("x", 11), nil)
	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestHandleTurnPropagatesStorageFailure(t *testing.T) {
	storageErr := errors.New("all tiers down")
	svc := NewService(&fakeStore{saveErr: storageErr}, &fakeBuilder{}, &fakeProvider{reply: "ok"}, 0)

	_, err := svc.HandleTurn(context.Background(), "user-1", "hola", nil)
	assert.ErrorIs(t, err, storageErr)
}

func TestHandleTurnDegradesOnProviderFailure(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, &fakeBuilder{}, &fakeProvider{err: errors.New("model timeout")}, 0)

	resp, err := svc.HandleTurn(context.Background(), "user-1", "hola", nil)
	require.NoError(t, err)

	assert.Equal(t, prompts.FallbackMessage, resp.AssistantResponse)
	require.Len(t, store.saved, 2)
	assert.Equal(t, prompts.FallbackMessage, store.saved[1].Body)
}
