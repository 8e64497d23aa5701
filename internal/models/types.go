package models

import "time"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// MaxMessageLength is the default upper bound for a single chat
// message body, counted in characters.
const MaxMessageLength = 2000

// Message is a single conversation entry. Messages are append-only:
// once stored they are never mutated, only cleared in bulk.
type Message struct {
	ID        string            `json:"id" bson:"message_id"`
	UserID    string            `json:"user_id" bson:"user_id"`
	Body      string            `json:"message" bson:"message"`
	Role      string            `json:"role" bson:"role"` // "user", "assistant" or "system"
	CreatedAt time.Time         `json:"timestamp" bson:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// Session tracks a user's conversational activity, independent of
// the message content itself.
type Session struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount int       `json:"messages_count"`
	IsActive     bool      `json:"is_active"`
}

// PromptMessage is a role-tagged entry of the context window sent to
// the model provider.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the inbound chat turn. REST, WebSocket and NATS
// clients all send this shape; REST carries the token in the
// Authorization header instead of the body.
type ChatRequest struct {
	Message string            `json:"message"`
	Token   string            `json:"token,omitempty"`
	Context map[string]string `json:"context,omitempty"`
}

// ChatResponse is the completed turn returned to the caller.
type ChatResponse struct {
	MessageID         string    `json:"message_id"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	Timestamp         time.Time `json:"timestamp"`
	Model             string    `json:"model,omitempty"`
}

// HistoryResponse wraps a conversation read.
type HistoryResponse struct {
	UserID        string    `json:"user_id"`
	Messages      []Message `json:"messages"`
	TotalMessages int       `json:"total_messages"`
}

// ErrorResponse is the error body for REST and WebSocket surfaces.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error codes
const (
	ErrorAuthInvalid     = "AUTH_INVALID"
	ErrorAuthUnavailable = "AUTH_UNAVAILABLE"
	ErrorStorageFailed   = "STORAGE_FAILED"
	ErrorModelFailed     = "MODEL_FAILED"
	ErrorBadRequest      = "BAD_REQUEST"
)
