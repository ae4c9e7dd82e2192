package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/whatsapp-storefront/backend/internal/config"
)

// ErrEmptyCompletion is returned when the responder produced no usable text
var ErrEmptyCompletion = errors.New("empty completion")

// Completer answers a free-text question with a single free-text reply
type Completer interface {
	Complete(ctx context.Context, query string) (string, error)
}

const assistantPrompt = `You are the WhatsApp assistant of an online storefront where resellers list products by chat.
Answer buyer and seller questions briefly and politely in plain text suitable for WhatsApp.
Sellers add a product by sending a photo with the caption: /addproduct <currency><amount> <description>, for example /addproduct ₵50 Nice Shirt.`

// OpenAICompleter calls an OpenAI-compatible chat completion endpoint
type OpenAICompleter struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAICompleter creates a completer from the AI configuration
func NewOpenAICompleter(cfg config.AIConfig) *OpenAICompleter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &OpenAICompleter{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Complete sends query as the user turn and returns the first choice
func (o *OpenAICompleter) Complete(ctx context.Context, query string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: assistantPrompt},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	reply := resp.Choices[0].Message.Content
	if strings.TrimSpace(reply) == "" {
		return "", ErrEmptyCompletion
	}
	return reply, nil
}

// UnavailableCompleter is used when no AI key is configured
type UnavailableCompleter struct{}

func (UnavailableCompleter) Complete(ctx context.Context, query string) (string, error) {
	return "", errors.New("text completion is not configured")
}
