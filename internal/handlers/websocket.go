package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/merval-inteligente/pfi-chat-service/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// RegisterWebSocket wires the WebSocket chat endpoint. The token
// travels as a query parameter because browsers cannot set headers on
// WebSocket upgrades.
func (h *ChatHandler) RegisterWebSocket(router *gin.Engine) {
	router.GET("/ws/chat", h.ChatSocket)
}

// ChatSocket authenticates the connection and then serves chat turns
// as JSON frames until the client disconnects.
func (h *ChatHandler) ChatSocket(c *gin.Context) {
	userID, err := h.verifier.Verify(c.Request.Context(), c.Query("token"))
	if err != nil {
		status, code := authFailure(err)
		c.JSON(status, models.ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var req models.ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read error for %s: %v", userID, err)
			}
			return
		}

		resp, err := h.chat.HandleTurn(c.Request.Context(), userID, req.Message, req.Context)
		if err != nil {
			_, code := turnFailure(err)
			if werr := conn.WriteJSON(models.ErrorResponse{Error: err.Error(), Code: code}); werr != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}
