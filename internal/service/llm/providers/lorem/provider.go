package lorem

import (
	"context"
	"strings"
	"sync"
	"time"

	loremgen "github.com/bozaro/golorem"

	domainllm "github.com/sterling9879/Sage-IA/internal/domain/services/llm"
)

// Provider is a mock provider that answers with lorem ipsum text.
// Used for development and tests without API keys.
type Provider struct {
	mu        sync.Mutex // golorem is not safe for concurrent use
	generator *loremgen.Lorem
	delay     time.Duration
}

var _ domainllm.Provider = (*Provider)(nil)

// NewProvider creates a lorem provider that waits delay before answering.
func NewProvider(delay time.Duration) *Provider {
	return &Provider{
		generator: loremgen.New(),
		delay:     delay,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "lorem"
}

// Send simulates a blocking API call. Models containing "fail" always error,
// which makes the failure path reachable from a dev setup.
func (p *Provider) Send(ctx context.Context, req *domainllm.InferenceRequest) (*domainllm.InferenceResponse, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	if strings.Contains(req.Model, "fail") {
		return nil, errMockFailure
	}

	// Stay well under the ceiling; 1 word is roughly 1.3 tokens
	targetWords := 40
	if req.MaxTokens > 0 && req.MaxTokens/2 < targetWords {
		targetWords = max(1, req.MaxTokens/2)
	}

	text := p.generateWords(targetWords)
	return &domainllm.InferenceResponse{
		Content:      text,
		FinishReason: "stop",
	}, nil
}

func (p *Provider) generateWords(targetWords int) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var sb strings.Builder
	words := 0
	for words < targetWords {
		sentence := p.generator.Sentence(5, 15)
		fields := strings.Fields(sentence)
		if words+len(fields) > targetWords {
			fields = fields[:targetWords-words]
			sentence = strings.Join(fields, " ")
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(sentence)
		words += len(fields)
	}
	return sb.String()
}

type mockError string

func (e mockError) Error() string { return string(e) }

const errMockFailure = mockError("lorem: simulated provider failure")
