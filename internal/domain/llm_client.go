package domain

import "context"

// LLMClient defines the capability to send prompts to the generation backend
// and receive textual responses.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (*LLMResponse, error)
	Version() string
}

// LLMResponse carries the generated text and whether generation finished.
type LLMResponse struct {
	Text string
	Done bool
}
