package prompt

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/sterling9879/Sage-IA/internal/domain/models/llm"
	domainllm "github.com/sterling9879/Sage-IA/internal/domain/services/llm"
	"github.com/sterling9879/Sage-IA/internal/service/llm/tokens"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuilder() *Builder {
	return NewBuilder(tokens.NewEstimator(), 0, Labels{})
}

func msg(id string, role llm.Role, content string) llm.Message {
	return llm.Message{ID: id, Role: role, Content: content}
}

// exchanges returns n user/assistant pairs whose contents each estimate to
// tokensEach tokens.
func exchanges(n, tokensEach int) []llm.Message {
	out := make([]llm.Message, 0, n*2)
	for i := 0; i < n; i++ {
		body := strings.Repeat("u", tokensEach*4)
		out = append(out, msg(fmt.Sprintf("u%d", i+1), llm.RoleUser, body))
		body = strings.Repeat("a", tokensEach*4)
		out = append(out, msg(fmt.Sprintf("a%d", i+1), llm.RoleAssistant, body))
	}
	return out
}

func ids(messages []llm.Message) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.ID
	}
	return out
}

func TestBuild_EmptyHistoryWithSystemPrompt(t *testing.T) {
	p := newTestBuilder().Build(nil, "Be helpful", 100)

	assert.Empty(t, p.History)
	assert.Equal(t, "System: Be helpful\n\nAssistant:", p.Text())
	assert.Equal(t, []domainllm.ChatMessage{{Role: domainllm.ChatRoleSystem, Content: "Be helpful"}}, p.Messages())
}

func TestBuild_EmptyHistoryNoSystemPrompt(t *testing.T) {
	p := newTestBuilder().Build(nil, "", 100)

	assert.Equal(t, "Assistant:", p.Text())
	assert.Empty(t, p.Messages())
	assert.Zero(t, p.Tokens)
}

func TestBuild_SingleTurn(t *testing.T) {
	history := []llm.Message{msg("u1", llm.RoleUser, "Hi")}

	p := newTestBuilder().Build(history, "Be helpful", 100)

	assert.Equal(t, "System: Be helpful\n\nUser: Hi\n\nAssistant:", p.Text())
	assert.Equal(t, []domainllm.ChatMessage{
		{Role: domainllm.ChatRoleSystem, Content: "Be helpful"},
		{Role: domainllm.ChatRoleUser, Content: "Hi"},
	}, p.Messages())
	assert.True(t, p.Includes("u1"))
	assert.Zero(t, p.Dropped)
}

func TestBuild_BudgetKeepsMostRecentFour(t *testing.T) {
	history := exchanges(5, 50)

	p := newTestBuilder().Build(history, "", 220)

	assert.Equal(t, []string{"u4", "a4", "u5", "a5"}, ids(p.History))
	assert.Equal(t, 200, p.Tokens)
	assert.Equal(t, 6, p.Dropped)
}

func TestBuild_StopsAtFirstMessageThatDoesNotFit(t *testing.T) {
	history := []llm.Message{
		msg("tiny", llm.RoleUser, "ok"),                       // 1 token, would fit on its own
		msg("big", llm.RoleAssistant, strings.Repeat("x", 400)), // 100 tokens
		msg("recent", llm.RoleUser, strings.Repeat("y", 200)),   // 50 tokens
	}

	p := newTestBuilder().Build(history, "", 120)

	assert.Equal(t, []string{"recent"}, ids(p.History))
	assert.False(t, p.Includes("tiny"))
}

func TestBuild_OversizedCurrentMessageIsExcluded(t *testing.T) {
	history := []llm.Message{
		msg("u1", llm.RoleUser, "hello"),
		msg("a1", llm.RoleAssistant, "hi"),
		msg("u2", llm.RoleUser, strings.Repeat("z", 1000)), // 250 tokens
	}

	p := newTestBuilder().Build(history, "", 100)

	assert.Empty(t, p.History)
	assert.False(t, p.Includes("u2"))
	assert.Equal(t, 3, p.Dropped)
	assert.Equal(t, "Assistant:", p.Text())
}

func TestBuild_SystemPromptAtBudgetLeavesNoHistory(t *testing.T) {
	system := strings.Repeat("s", 40) // 10 tokens
	history := []llm.Message{
		msg("u1", llm.RoleUser, ""),
		msg("u2", llm.RoleUser, "hi"),
	}

	for _, budget := range []int{5, 10} {
		t.Run(fmt.Sprintf("budget %d", budget), func(t *testing.T) {
			p := newTestBuilder().Build(history, system, budget)

			assert.Empty(t, p.History)
			assert.True(t, strings.HasPrefix(p.Text(), "System: "+system))
			require.Len(t, p.Messages(), 1)
			assert.Equal(t, domainllm.ChatRoleSystem, p.Messages()[0].Role)
		})
	}
}

func TestBuild_SkipsSystemRoleMessages(t *testing.T) {
	history := []llm.Message{
		msg("u1", llm.RoleUser, "first"),
		msg("s1", llm.RoleSystem, strings.Repeat("n", 4000)),
		msg("a1", llm.RoleAssistant, "second"),
		msg("u2", llm.RoleUser, "third"),
	}

	p := newTestBuilder().Build(history, "", 100)

	assert.Equal(t, []string{"u1", "a1", "u2"}, ids(p.History))
	assert.Equal(t, "User: first\n\nAssistant: second\n\nUser: third\n\nAssistant:", p.Text())
}

func TestBuild_DefaultBudget(t *testing.T) {
	history := exchanges(40, 100) // 8000 tokens total

	p := NewBuilder(tokens.NewEstimator(), 0, Labels{}).Build(history, "", 0)
	assert.Equal(t, DefaultHistoryBudget, p.Budget)
	assert.Len(t, p.History, 60)

	p = NewBuilder(tokens.NewEstimator(), 1000, Labels{}).Build(history, "", 0)
	assert.Equal(t, 1000, p.Budget)
	assert.Len(t, p.History, 10)

	// caller override wins over the builder default
	p = NewBuilder(tokens.NewEstimator(), 1000, Labels{}).Build(history, "", 300)
	assert.Len(t, p.History, 3)
}

func TestBuild_CustomLabels(t *testing.T) {
	b := NewBuilder(tokens.NewEstimator(), 0, Labels{System: "Sistema", User: "Usuário", Assistant: "Assistente"})
	history := []llm.Message{
		msg("u1", llm.RoleUser, "Oi"),
		msg("a1", llm.RoleAssistant, "Olá!"),
		msg("u2", llm.RoleUser, "Tudo bem?"),
	}

	p := b.Build(history, "Seja útil", 100)

	assert.Equal(t, "Sistema: Seja útil\n\nUsuário: Oi\n\nAssistente: Olá!\n\nUsuário: Tudo bem?\n\nAssistente:", p.Text())
}

func TestBuild_RenderingsAgree(t *testing.T) {
	history := exchanges(3, 10)

	p := newTestBuilder().Build(history, "sys", 45)
	structured := p.Messages()

	require.Len(t, structured, len(p.History)+1)
	for i, m := range p.History {
		assert.Equal(t, m.Content, structured[i+1].Content)
		assert.Contains(t, p.Text(), m.Content)
	}
}

// Contiguity and budget hold for arbitrary histories and budgets.
func TestBuild_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	est := tokens.NewEstimator()
	b := NewBuilder(est, 0, Labels{})

	for iter := 0; iter < 500; iter++ {
		n := rng.Intn(20)
		history := make([]llm.Message, n)
		for i := range history {
			role := llm.RoleUser
			if i%2 == 1 {
				role = llm.RoleAssistant
			}
			history[i] = msg(fmt.Sprintf("m%d", i), role, strings.Repeat("w", rng.Intn(400)))
		}
		system := strings.Repeat("s", rng.Intn(120))
		budget := 1 + rng.Intn(400)

		p := b.Build(history, system, budget)

		// budget respected
		total := est.Estimate(strings.TrimSpace(system))
		for _, m := range p.History {
			total += est.Estimate(m.Content)
		}
		if len(p.History) > 0 {
			assert.LessOrEqual(t, total, budget)
		}
		assert.Equal(t, total, p.Tokens)

		// contiguous most-recent suffix, in chronological order
		if len(p.History) > 0 {
			start := n - len(p.History)
			assert.Equal(t, ids(history[start:]), ids(p.History))
		}

		// system prompt priority
		if system != "" && est.Estimate(system) >= budget {
			assert.Empty(t, p.History)
			assert.Contains(t, p.Text(), system)
		}
	}
}
