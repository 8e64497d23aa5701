package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merval-inteligente/pfi-chat-service/internal/models"
)

type staticSource struct {
	messages []models.Message
}

func (s *staticSource) History(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	msgs := s.messages
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func TestBuildWindowKeepsNewestMessages(t *testing.T) {
	source := &staticSource{}
	for i := 0; i < 10; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		source.messages = append(source.messages, models.Message{
			Body: fmt.Sprintf("mensaje %d", i),
			Role: role,
		})
	}

	assembler := NewAssembler(source, 20)
	window, err := assembler.Build(context.Background(), "user-1", 3)
	require.NoError(t, err)

	require.Len(t, window, 3)
	assert.Equal(t, "mensaje 7", window[0].Content)
	assert.Equal(t, "mensaje 8", window[1].Content)
	assert.Equal(t, "mensaje 9", window[2].Content)
}

func TestBuildFiltersRoles(t *testing.T) {
	source := &staticSource{messages: []models.Message{
		{Body: "directiva inicial", Role: models.RoleSystem},
		{Body: "hola", Role: models.RoleUser},
		{Body: "nota interna", Role: "tool"},
		{Body: "ajuste tardío", Role: models.RoleSystem},
		{Body: "respuesta", Role: models.RoleAssistant},
	}}

	assembler := NewAssembler(source, 20)
	window, err := assembler.Build(context.Background(), "user-1", 0)
	require.NoError(t, err)

	require.Len(t, window, 3)
	assert.Equal(t, models.RoleSystem, window[0].Role)
	assert.Equal(t, "directiva inicial", window[0].Content)
	assert.Equal(t, "hola", window[1].Content)
	assert.Equal(t, "respuesta", window[2].Content)
}

func TestBuildEmptyHistoryIsNotAnError(t *testing.T) {
	assembler := NewAssembler(&staticSource{}, 20)
	window, err := assembler.Build(context.Background(), "new-user", 0)
	require.NoError(t, err)
	assert.Empty(t, window)
}

func TestBuildUsesConfiguredDefaultWindow(t *testing.T) {
	source := &staticSource{}
	for i := 0; i < 30; i++ {
		source.messages = append(source.messages, models.Message{
			Body: fmt.Sprintf("mensaje %d", i),
			Role: models.RoleUser,
		})
	}

	assembler := NewAssembler(source, 5)
	window, err := assembler.Build(context.Background(), "user-1", 0)
	require.NoError(t, err)

	require.Len(t, window, 5)
	assert.Equal(t, "mensaje 29", window[len(window)-1].Content)
}
