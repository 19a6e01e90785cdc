package llm

import (
	"context"
	"strings"
	"time"
)

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// AgentMeta holds operational metadata for an agent execution.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
}

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// CleanJSON strips the Markdown code fences models sometimes wrap JSON in.
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the info string, e.g. "json"
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
