package lorem

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainllm "github.com/sterling9879/Sage-IA/internal/domain/services/llm"
)

func TestSend_GeneratesText(t *testing.T) {
	p := NewProvider(0)

	resp, err := p.Send(context.Background(), &domainllm.InferenceRequest{Model: "lorem-fast", Prompt: "hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Content)
	assert.LessOrEqual(t, len(strings.Fields(resp.Content)), 40)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestSend_RespectsSmallCeiling(t *testing.T) {
	p := NewProvider(0)

	resp, err := p.Send(context.Background(), &domainllm.InferenceRequest{Model: "lorem", MaxTokens: 10})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(strings.Fields(resp.Content)), 5)
}

func TestSend_FailModel(t *testing.T) {
	p := NewProvider(0)

	_, err := p.Send(context.Background(), &domainllm.InferenceRequest{Model: "lorem-fail"})
	assert.ErrorIs(t, err, errMockFailure)
}

func TestSend_HonorsContext(t *testing.T) {
	p := NewProvider(time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Send(ctx, &domainllm.InferenceRequest{Model: "lorem"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
