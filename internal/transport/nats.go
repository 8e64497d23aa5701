package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/merval-inteligente/pfi-chat-service/internal/auth"
	"github.com/merval-inteligente/pfi-chat-service/internal/models"
)

// TurnRunner runs a complete chat turn.
type TurnRunner interface {
	HandleTurn(ctx context.Context, userID, text string, userContext map[string]string) (*models.ChatResponse, error)
}

// NATSTransport serves chat turns over NATS request/reply for
// internal callers that do not speak HTTP.
type NATSTransport struct {
	conn     *nats.Conn
	subject  string
	timeout  time.Duration
	verifier auth.Verifier
	chat     TurnRunner
}

func NewNATSTransport(natsURL, subject, serviceName string, timeout time.Duration, verifier auth.Verifier, chat TurnRunner) (*NATSTransport, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name(serviceName),
		nats.Timeout(timeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Printf("Connected to NATS server: %s", natsURL)

	return &NATSTransport{
		conn:     conn,
		subject:  subject,
		timeout:  timeout,
		verifier: verifier,
		chat:     chat,
	}, nil
}

func (nt *NATSTransport) Start() error {
	if _, err := nt.conn.Subscribe(nt.subject, nt.handleChatRequest); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", nt.subject, err)
	}

	log.Printf("Subscribed to subject: %s", nt.subject)
	return nil
}

func (nt *NATSTransport) handleChatRequest(msg *nats.Msg) {
	var request models.ChatRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Printf("Error parsing chat request: %v", err)
		nt.respondError(msg, models.ErrorBadRequest, "invalid request format")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), nt.timeout)
	defer cancel()

	userID, err := nt.verifier.Verify(ctx, request.Token)
	if err != nil {
		code := models.ErrorAuthInvalid
		if errors.Is(err, auth.ErrUnavailable) {
			code = models.ErrorAuthUnavailable
		}
		nt.respondError(msg, code, err.Error())
		return
	}

	response, err := nt.chat.HandleTurn(ctx, userID, request.Message, request.Context)
	if err != nil {
		log.Printf("Error processing chat turn: %v", err)
		nt.respondError(msg, models.ErrorModelFailed, err.Error())
		return
	}

	nt.respond(msg, response)
}

func (nt *NATSTransport) respond(msg *nats.Msg, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

func (nt *NATSTransport) respondError(msg *nats.Msg, code, message string) {
	nt.respond(msg, models.ErrorResponse{Error: message, Code: code})
}

func (nt *NATSTransport) Close() error {
	if nt.conn != nil {
		nt.conn.Close()
		log.Println("NATS connection closed")
	}
	return nil
}
