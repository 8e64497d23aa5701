package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merval-inteligente/pfi-chat-service/internal/models"
)

func TestLocalTierBoundsList(t *testing.T) {
	tier := NewLocalTier()
	ctx := context.Background()
	key := ConversationKey("user-1")

	for i := 0; i < 60; i++ {
		msg := models.Message{ID: fmt.Sprintf("m%d", i), Body: fmt.Sprintf("mensaje %d", i)}
		require.NoError(t, tier.AppendOrdered(ctx, key, msg, 100, time.Hour))
	}

	messages, err := tier.ReadRange(ctx, key, 100)
	require.NoError(t, err)
	require.Len(t, messages, localMaxEntries)
	assert.Equal(t, "mensaje 10", messages[0].Body)
	assert.Equal(t, "mensaje 59", messages[len(messages)-1].Body)
}

func TestLocalTierReadLimit(t *testing.T) {
	tier := NewLocalTier()
	ctx := context.Background()
	key := ConversationKey("user-1")

	for i := 0; i < 5; i++ {
		msg := models.Message{Body: fmt.Sprintf("mensaje %d", i)}
		require.NoError(t, tier.AppendOrdered(ctx, key, msg, 100, time.Hour))
	}

	messages, err := tier.ReadRange(ctx, key, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "mensaje 3", messages[0].Body)
	assert.Equal(t, "mensaje 4", messages[1].Body)
}

func TestLocalTierDeleteKey(t *testing.T) {
	tier := NewLocalTier()
	ctx := context.Background()
	key := ConversationKey("user-1")

	require.NoError(t, tier.AppendOrdered(ctx, key, models.Message{Body: "hola"}, 10, time.Hour))
	require.NoError(t, tier.DeleteKey(ctx, key))

	messages, err := tier.ReadRange(ctx, key, 10)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestLocalTierIsolatesKeys(t *testing.T) {
	tier := NewLocalTier()
	ctx := context.Background()

	require.NoError(t, tier.AppendOrdered(ctx, ConversationKey("user-1"), models.Message{Body: "de uno"}, 10, time.Hour))
	require.NoError(t, tier.AppendOrdered(ctx, ConversationKey("user-2"), models.Message{Body: "de dos"}, 10, time.Hour))

	messages, err := tier.ReadRange(ctx, ConversationKey("user-1"), 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "de uno", messages[0].Body)
}
