package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	domainllm "github.com/sterling9879/Sage-IA/internal/domain/services/llm"
)

// DefaultBaseURL points at OpenRouter, which serves the catalog's
// vendor-prefixed model ids.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Client talks to any OpenAI-compatible chat completions endpoint using the
// structured prompt.
type Client struct {
	client *openai.Client
}

var _ domainllm.Provider = (*Client)(nil)

// NewClient creates a client. httpClient may be nil.
func NewClient(apiKey, baseURL string, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}

	return &Client{client: openai.NewClientWithConfig(cfg)}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "openai"
}

// Send runs one non-streaming chat completion.
func (c *Client) Send(ctx context.Context, req *domainllm.InferenceRequest) (*domainllm.InferenceResponse, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    toOpenAIRole(m.Role),
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("openai (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, errors.New("openai returned no content")
	}

	choice := resp.Choices[0]
	return &domainllm.InferenceResponse{
		Content:          choice.Message.Content,
		FinishReason:     string(choice.FinishReason),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func toOpenAIRole(role domainllm.ChatRole) string {
	switch role {
	case domainllm.ChatRoleSystem:
		return openai.ChatMessageRoleSystem
	case domainllm.ChatRoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}
