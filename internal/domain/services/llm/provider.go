package llm

import (
	"context"
)

// ChatRole is the structured-prompt role vocabulary shared by hosted APIs.
type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one entry of a structured prompt.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// InferenceRequest carries both prompt renderings; each provider uses the one
// its API accepts.
type InferenceRequest struct {
	Model     string
	Prompt    string        // flattened rendering
	Messages  []ChatMessage // structured rendering
	MaxTokens int           // output ceiling, 0 = provider default
}

// InferenceResponse is a completed model reply.
type InferenceResponse struct {
	Content      string
	FinishReason string

	// Usage as reported by the provider; zero when the API does not report it
	PromptTokens     int
	CompletionTokens int
}

// Provider is the outbound inference capability. Any returned error is a
// failed inference.
type Provider interface {
	Send(ctx context.Context, req *InferenceRequest) (*InferenceResponse, error)

	// Name returns the provider name (e.g., "wavespeed", "openai")
	Name() string
}
