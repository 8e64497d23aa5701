package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merval-inteligente/pfi-chat-service/internal/models"
)

type fakeHistory struct {
	messages []models.Message
}

func (f *fakeHistory) History(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	return f.messages, nil
}

func TestGetApproximatesFromConversationWhenCacheMissing(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	history := &fakeHistory{messages: []models.Message{
		{Body: "hola", Role: models.RoleUser, CreatedAt: created},
	}}
	manager := NewManager(nil, time.Hour, history)

	sess, err := manager.Get(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "user-1", sess.UserID)
	assert.True(t, sess.IsActive)
	assert.Equal(t, created, sess.LastActivity)
	assert.Equal(t, 1, sess.MessageCount)
}

func TestGetReturnsNilForNewUserWithoutCache(t *testing.T) {
	manager := NewManager(nil, time.Hour, &fakeHistory{})

	sess, err := manager.Get(context.Background(), "new-user")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestTouchWithoutCacheIsNoOp(t *testing.T) {
	manager := NewManager(nil, time.Hour, &fakeHistory{})
	assert.NoError(t, manager.Touch(context.Background(), "user-1"))
}

func TestClearWithoutCacheIsNoOp(t *testing.T) {
	manager := NewManager(nil, time.Hour, &fakeHistory{})
	assert.NoError(t, manager.Clear(context.Background(), "user-1"))
}

func TestSessionKeyLayout(t *testing.T) {
	assert.Equal(t, "session:user-1", SessionKey("user-1"))
}
