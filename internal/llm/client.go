package llm

import (
	"context"
	"fmt"
)

// Role identifies the author of a message in a generation request.
type Role string

const (
	// RoleSystem frames the model's persona and task.
	RoleSystem Role = "system"
	// RoleUser carries the prompt.
	RoleUser Role = "user"
	// RoleAssistant carries prior model output.
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry of an instruction sequence.
type Message struct {
	Role    Role
	Content string
}

// Request describes a single generation call.
type Request struct {
	Messages    []Message
	Tier        ModelTier
	Temperature float64
	MaxTokens   int
	// JSON asks the provider to emit a bare JSON document.
	JSON bool
	// SchemaName and Schema optionally describe the expected JSON shape for
	// providers that support structured output.
	SchemaName string
	Schema     any
}

// SystemPrompt returns the concatenated system messages.
func (r Request) SystemPrompt() string {
	var out string
	for _, m := range r.Messages {
		if m.Role != RoleSystem {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += m.Content
	}
	return out
}

// Client is an abstraction over LLM providers
type Client interface {
	// Generate performs one generation call and returns the raw response text
	Generate(ctx context.Context, req Request) (string, error)
	// GetModel returns the provider model used for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}
