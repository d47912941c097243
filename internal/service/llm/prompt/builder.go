// Package prompt turns conversation history into a token-bounded prompt.
package prompt

import (
	"strings"

	"github.com/sterling9879/Sage-IA/internal/domain/models/llm"
	domainllm "github.com/sterling9879/Sage-IA/internal/domain/services/llm"
)

// DefaultHistoryBudget is the history token budget used when neither the
// builder nor the caller sets one.
const DefaultHistoryBudget = 6000

// TokenCounter estimates the token cost of a text span.
type TokenCounter interface {
	Estimate(text string) int
}

// Labels are the role prefixes of the flattened rendering.
type Labels struct {
	System    string
	User      string
	Assistant string
}

// DefaultLabels renders "System:", "User:" and "Assistant:".
var DefaultLabels = Labels{System: "System", User: "User", Assistant: "Assistant"}

// Builder selects the most recent history that fits a token budget.
// It holds no mutable state and is safe for concurrent use.
type Builder struct {
	counter       TokenCounter
	labels        Labels
	defaultBudget int
}

// NewBuilder creates a builder. A non-positive defaultBudget falls back to
// DefaultHistoryBudget; empty labels fall back to DefaultLabels.
func NewBuilder(counter TokenCounter, defaultBudget int, labels Labels) *Builder {
	if defaultBudget <= 0 {
		defaultBudget = DefaultHistoryBudget
	}
	if labels == (Labels{}) {
		labels = DefaultLabels
	}
	return &Builder{counter: counter, labels: labels, defaultBudget: defaultBudget}
}

// Build selects history for one turn. history must be in chronological order
// and include the newest user message. maxTokens <= 0 uses the default budget.
//
// The system prompt is charged first and always kept. History is walked from
// newest to oldest and the walk stops at the first message that does not fit,
// so the result is always a contiguous suffix. A message larger than the
// remaining budget is excluded whole, never truncated.
func (b *Builder) Build(history []llm.Message, systemPrompt string, maxTokens int) *Prompt {
	if maxTokens <= 0 {
		maxTokens = b.defaultBudget
	}

	p := &Prompt{
		System: strings.TrimSpace(systemPrompt),
		Budget: maxTokens,
		labels: b.labels,
	}
	if p.System != "" {
		p.SystemTokens = b.counter.Estimate(p.System)
	}

	eligible := 0
	for i := range history {
		if history[i].InPrompt() {
			eligible++
		}
	}

	used := p.SystemTokens
	var reversed []llm.Message
	if used < maxTokens {
		for i := len(history) - 1; i >= 0; i-- {
			msg := history[i]
			if !msg.InPrompt() {
				continue
			}
			cost := b.counter.Estimate(msg.Content)
			if used+cost > maxTokens {
				break
			}
			used += cost
			reversed = append(reversed, msg)
		}
	}

	p.History = make([]llm.Message, len(reversed))
	for i, msg := range reversed {
		p.History[len(reversed)-1-i] = msg
	}
	p.Tokens = used
	p.Dropped = eligible - len(p.History)
	return p
}

// Prompt is the accepted message set for one turn. Both renderings are
// derived from the same set.
type Prompt struct {
	System       string
	SystemTokens int
	History      []llm.Message // chronological
	Tokens       int           // estimated tokens of system prompt plus History
	Budget       int
	Dropped      int // eligible messages left out of History

	labels Labels
}

// Includes reports whether the message with id made it into the window.
func (p *Prompt) Includes(id string) bool {
	for i := range p.History {
		if p.History[i].ID == id {
			return true
		}
	}
	return false
}

// Text renders the flattened prompt: labelled blocks separated by blank
// lines, ending with an open assistant cue.
func (p *Prompt) Text() string {
	var sb strings.Builder
	if p.System != "" {
		sb.WriteString(p.labels.System)
		sb.WriteString(": ")
		sb.WriteString(p.System)
		sb.WriteString("\n\n")
	}
	for _, msg := range p.History {
		label := p.labels.User
		if msg.Role == llm.RoleAssistant {
			label = p.labels.Assistant
		}
		sb.WriteString(label)
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
	}
	sb.WriteString(p.labels.Assistant)
	sb.WriteString(":")
	return sb.String()
}

// Messages renders the structured prompt in chat-completion role vocabulary.
func (p *Prompt) Messages() []domainllm.ChatMessage {
	out := make([]domainllm.ChatMessage, 0, len(p.History)+1)
	if p.System != "" {
		out = append(out, domainllm.ChatMessage{Role: domainllm.ChatRoleSystem, Content: p.System})
	}
	for _, msg := range p.History {
		role := domainllm.ChatRoleUser
		if msg.Role == llm.RoleAssistant {
			role = domainllm.ChatRoleAssistant
		}
		out = append(out, domainllm.ChatMessage{Role: role, Content: msg.Content})
	}
	return out
}
