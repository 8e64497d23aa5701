package llm

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/merval-inteligente/pfi-chat-service/internal/models"
)

// OpenAIProvider generates replies through the OpenAI chat API.
type OpenAIProvider struct {
	model string
	llm   *openai.LLM
}

func NewOpenAIProvider(apiKey, model string) (*OpenAIProvider, error) {
	client, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return &OpenAIProvider{model: model, llm: client}, nil
}

func (p *OpenAIProvider) Name() string { return p.model }

func (p *OpenAIProvider) GenerateReply(ctx context.Context, messages []models.PromptMessage) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		content = append(content, llms.TextParts(chatMessageType(msg.Role), msg.Content))
	}

	resp, err := p.llm.GenerateContent(ctx, content,
		llms.WithMaxTokens(2000),
		llms.WithTemperature(0.7),
	)
	if err != nil {
		return "", fmt.Errorf("OpenAI completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("OpenAI returned no choices")
	}

	choice := resp.Choices[0]
	if in, ok := choice.GenerationInfo["PromptTokens"]; ok {
		log.Printf("completion usage: prompt=%v output=%v", in, choice.GenerationInfo["CompletionTokens"])
	}
	return choice.Content, nil
}

func chatMessageType(role string) llms.ChatMessageType {
	switch role {
	case models.RoleAssistant:
		return llms.ChatMessageTypeAI
	case models.RoleSystem:
		return llms.ChatMessageTypeSystem
	default:
		return llms.ChatMessageTypeHuman
	}
}
