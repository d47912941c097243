package anthropic

import (
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	domainllm "github.com/sterling9879/Sage-IA/internal/domain/services/llm"
)

// toAnthropicMessages splits the structured prompt into the top-level system
// text and the user/assistant turns. Consecutive turns with the same role are
// merged since the Messages API requires alternation.
func toAnthropicMessages(in []domainllm.ChatMessage) (string, []anthropic.MessageParam) {
	var system []string
	out := make([]anthropic.MessageParam, 0, len(in))
	var lastRole domainllm.ChatRole

	for _, msg := range in {
		switch msg.Role {
		case domainllm.ChatRoleSystem:
			system = append(system, msg.Content)
			continue
		case domainllm.ChatRoleUser, domainllm.ChatRoleAssistant:
		default:
			continue
		}

		block := anthropic.NewTextBlock(msg.Content)
		if len(out) > 0 && msg.Role == lastRole {
			out[len(out)-1].Content = append(out[len(out)-1].Content, block)
			continue
		}
		if msg.Role == domainllm.ChatRoleUser {
			out = append(out, anthropic.NewUserMessage(block))
		} else {
			out = append(out, anthropic.NewAssistantMessage(block))
		}
		lastRole = msg.Role
	}

	return strings.Join(system, "\n\n"), out
}

// fromAnthropicMessage concatenates the text blocks of a reply. Thinking and
// tool blocks are ignored.
func fromAnthropicMessage(msg *anthropic.Message) (*domainllm.InferenceResponse, error) {
	var sb strings.Builder
	for _, content := range msg.Content {
		if content.Type == "text" {
			sb.WriteString(content.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, fmt.Errorf("anthropic: response has no text content")
	}

	return &domainllm.InferenceResponse{
		Content:          text,
		FinishReason:     string(msg.StopReason),
		PromptTokens:     int(msg.Usage.InputTokens),
		CompletionTokens: int(msg.Usage.OutputTokens),
	}, nil
}
