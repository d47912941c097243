package wavespeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"resty.dev/v3"

	domainllm "github.com/sterling9879/Sage-IA/internal/domain/services/llm"
	"github.com/sterling9879/Sage-IA/internal/service/llm/providers"
)

const (
	DefaultBaseURL = "https://api.wavespeed.ai/api/v3"
	anyLLMPath     = "/wavespeed-ai/any-llm"
)

// ErrEmptyOutput is returned when the API answers 2xx without any text.
var ErrEmptyOutput = errors.New("wavespeed returned no output")

type anyLLMRequest struct {
	Prompt         string `json:"prompt"`
	Model          string `json:"model"`
	EnableSyncMode bool   `json:"enable_sync_mode"`
	Priority       string `json:"priority"`
	MaxTokens      int    `json:"max_tokens,omitempty"`
}

// The sync endpoint has answered both flat and enveloped bodies.
type anyLLMResponse struct {
	Output  string `json:"output"`
	Message string `json:"message"`
	Data    *struct {
		Status  string   `json:"status"`
		Outputs []string `json:"outputs"`
		Error   string   `json:"error"`
	} `json:"data"`
}

func (r *anyLLMResponse) text() string {
	if r.Output != "" {
		return r.Output
	}
	if r.Data != nil && len(r.Data.Outputs) > 0 {
		return r.Data.Outputs[0]
	}
	return ""
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Client calls the WaveSpeed any-llm gateway, which takes a single flattened
// prompt and does not report token usage.
type Client struct {
	http   *resty.Client
	apiKey string
}

var _ domainllm.Provider = (*Client)(nil)

// NewClient creates a WaveSpeed client. baseURL defaults to DefaultBaseURL.
func NewClient(apiKey, baseURL string, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("WAVESPEED_API_KEY environment variable not set")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:   providers.NewRestClient("wavespeed", strings.TrimRight(baseURL, "/"), logger),
		apiKey: apiKey,
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "wavespeed"
}

// Send runs one synchronous completion.
func (c *Client) Send(ctx context.Context, req *domainllm.InferenceRequest) (*domainllm.InferenceResponse, error) {
	var result anyLLMResponse
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(&anyLLMRequest{
			Prompt:         req.Prompt,
			Model:          req.Model,
			EnableSyncMode: true,
			Priority:       "latency",
			MaxTokens:      req.MaxTokens,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post(anyLLMPath)
	if err != nil {
		return nil, fmt.Errorf("wavespeed request failed: %w", err)
	}

	if resp.IsError() {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Error
		}
		if msg == "" {
			msg = fmt.Sprintf("WaveSpeed API error: %d", resp.StatusCode())
		}
		return nil, fmt.Errorf("wavespeed (status %d): %s", resp.StatusCode(), msg)
	}

	if result.Data != nil && result.Data.Error != "" {
		return nil, fmt.Errorf("wavespeed: %s", result.Data.Error)
	}

	text := result.text()
	if text == "" {
		return nil, ErrEmptyOutput
	}

	finish := "stop"
	if result.Data != nil && result.Data.Status != "" && result.Data.Status != "completed" {
		finish = result.Data.Status
	}

	return &domainllm.InferenceResponse{
		Content:      text,
		FinishReason: finish,
	}, nil
}
