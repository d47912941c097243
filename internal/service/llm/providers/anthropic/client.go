package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	domainllm "github.com/sterling9879/Sage-IA/internal/domain/services/llm"
)

// defaultMaxTokens is sent when the request carries no ceiling. The Messages
// API requires one.
const defaultMaxTokens = 4096

// Provider implements the Provider interface for Anthropic (Claude) models.
type Provider struct {
	client *anthropic.Client
}

// NewProvider creates a new Anthropic provider with the given API key.
// Extra options are passed to the SDK client (base URL, retries).
func NewProvider(apiKey string, opts ...option.RequestOption) (*Provider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)

	return &Provider{
		client: &client,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "anthropic"
}

// Send generates a response from Claude.
func (p *Provider) Send(ctx context.Context, req *domainllm.InferenceRequest) (*domainllm.InferenceResponse, error) {
	system, messages := toAnthropicMessages(req.Messages)
	if len(messages) == 0 {
		return nil, fmt.Errorf("anthropic: request has no messages")
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("anthropic (status %d): %w", apiErr.StatusCode, err)
		}
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	return fromAnthropicMessage(message)
}
