package usecase

import (
	"strings"
)

// contextPreamble introduces the retrieved passages inside the prompt.
const contextPreamble = "Here is relevant information from the medical handbook:"

// noContextPlaceholder is injected when retrieval produced nothing. The
// prompt always carries a context section so the model's instructions stay
// stable.
const noContextPlaceholder = "No additional medical handbook context available."

// defaultSystemPrompt is the standing instruction set for the assistant.
const defaultSystemPrompt = `You are a careful medical information assistant for a pharmacy platform.
Answer using the handbook context when it is provided and say so when it is not.
Keep answers factual and concise, and always remind the user to consult a
healthcare professional for diagnosis and treatment decisions. Never invent
drug dosages or clinical facts that are not supported by the context.`

// PromptInput carries the pieces composed into a generation prompt.
type PromptInput struct {
	Question     string
	ContextBlock string // numbered citation block, may be empty
}

// PromptBuilder composes the final prompt string sent to the generation
// backend.
type PromptBuilder interface {
	Build(input PromptInput) string
}

type handbookPromptBuilder struct {
	systemPrompt string
}

// NewHandbookPromptBuilder creates a prompt builder. An empty systemPrompt
// selects the default instruction set.
func NewHandbookPromptBuilder(systemPrompt string) PromptBuilder {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = defaultSystemPrompt
	}
	return &handbookPromptBuilder{systemPrompt: systemPrompt}
}

// Build renders: system prompt, context section, user question.
func (b *handbookPromptBuilder) Build(input PromptInput) string {
	contextSection := noContextPlaceholder
	if input.ContextBlock != "" {
		contextSection = contextPreamble + "\n\n" + input.ContextBlock
	}

	var sb strings.Builder
	sb.WriteString(b.systemPrompt)
	sb.WriteString("\n\n")
	sb.WriteString(contextSection)
	sb.WriteString("\n\nUser question: ")
	sb.WriteString(input.Question)
	return sb.String()
}
