package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/merval-inteligente/pfi-chat-service/internal/auth"
	"github.com/merval-inteligente/pfi-chat-service/internal/chat"
	"github.com/merval-inteligente/pfi-chat-service/internal/memory"
	"github.com/merval-inteligente/pfi-chat-service/internal/models"
)

const userIDKey = "userID"

// TurnRunner runs a complete chat turn.
type TurnRunner interface {
	HandleTurn(ctx context.Context, userID, text string, userContext map[string]string) (*models.ChatResponse, error)
}

// ConversationReader is the orchestrator surface the read endpoints use.
type ConversationReader interface {
	History(ctx context.Context, userID string, limit int) ([]models.Message, error)
	Clear(ctx context.Context, userID string) error
	Ping(ctx context.Context) map[string]bool
}

// SessionGetter exposes the current session for a user.
type SessionGetter interface {
	Get(ctx context.Context, userID string) (*models.Session, error)
}

// ChatHandler serves the REST chat API.
type ChatHandler struct {
	verifier     auth.Verifier
	chat         TurnRunner
	conversation ConversationReader
	sessions     SessionGetter
	modelName    string
}

func NewChatHandler(verifier auth.Verifier, turns TurnRunner, conversation ConversationReader, sessions SessionGetter, modelName string) *ChatHandler {
	return &ChatHandler{
		verifier:     verifier,
		chat:         turns,
		conversation: conversation,
		sessions:     sessions,
		modelName:    modelName,
	}
}

// RegisterRoutes wires the REST endpoints onto the router.
func (h *ChatHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)

	authed := router.Group("/chat", h.RequireAuth)
	authed.POST("/message", h.PostMessage)
	authed.GET("/history", h.GetHistory)
	authed.DELETE("/conversation", h.ClearConversation)
	authed.GET("/session", h.GetSession)
}

// RequireAuth resolves the bearer token to a user ID or aborts the
// request. An unreachable verifier is a 503, never a 401.
func (h *ChatHandler) RequireAuth(c *gin.Context) {
	token, ok := auth.ExtractBearer(c.GetHeader("Authorization"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
			Error: "missing bearer token", Code: models.ErrorAuthInvalid,
		})
		return
	}

	userID, err := h.verifier.Verify(c.Request.Context(), token)
	if err != nil {
		status, code := authFailure(err)
		c.AbortWithStatusJSON(status, models.ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	c.Set(userIDKey, userID)
	c.Next()
}

// PostMessage handles one chat turn.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "invalid request body", Code: models.ErrorBadRequest,
		})
		return
	}

	resp, err := h.chat.HandleTurn(c.Request.Context(), c.GetString(userIDKey), req.Message, req.Context)
	if err != nil {
		status, code := turnFailure(err)
		c.JSON(status, models.ErrorResponse{Error: err.Error(), Code: code})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetHistory returns the user's conversation in chronological order.
func (h *ChatHandler) GetHistory(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	userID := c.GetString(userIDKey)
	messages, err := h.conversation.History(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error: err.Error(), Code: models.ErrorStorageFailed,
		})
		return
	}

	c.JSON(http.StatusOK, models.HistoryResponse{
		UserID:        userID,
		Messages:      messages,
		TotalMessages: len(messages),
	})
}

// ClearConversation removes the conversation from every reachable tier.
func (h *ChatHandler) ClearConversation(c *gin.Context) {
	userID := c.GetString(userIDKey)
	if err := h.conversation.Clear(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error: err.Error(), Code: models.ErrorStorageFailed,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "cleared": true})
}

// GetSession returns the current session, or 404 when none exists.
func (h *ChatHandler) GetSession(c *gin.Context) {
	sess, err := h.sessions.Get(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error: err.Error(), Code: models.ErrorStorageFailed,
		})
		return
	}
	if sess == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "no active session"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Health reports per-tier connectivity, forcing a fresh re-check of
// tiers currently marked down.
func (h *ChatHandler) Health(c *gin.Context) {
	status := h.conversation.Ping(c.Request.Context())

	services := gin.H{}
	for name, up := range status {
		if up {
			services[name] = "connected"
		} else {
			services[name] = "disconnected"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"model":     h.modelName,
		"services":  services,
	})
}

func authFailure(err error) (int, string) {
	if errors.Is(err, auth.ErrUnavailable) {
		return http.StatusServiceUnavailable, models.ErrorAuthUnavailable
	}
	return http.StatusUnauthorized, models.ErrorAuthInvalid
}

func turnFailure(err error) (int, string) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMessageTooLong):
		return http.StatusBadRequest, models.ErrorBadRequest
	case errors.Is(err, memory.ErrAllTiersFailed):
		return http.StatusServiceUnavailable, models.ErrorStorageFailed
	default:
		return http.StatusInternalServerError, models.ErrorModelFailed
	}
}
