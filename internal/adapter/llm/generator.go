package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"handbook-rag/internal/domain"
)

const keepAliveSeconds = -1

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string                 `json:"model"`
	Messages  []chatMessage          `json:"messages"`
	Stream    bool                   `json:"stream"`
	KeepAlive int                    `json:"keep_alive"`
	Options   map[string]interface{} `json:"options,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Generator sends prompts to an Ollama-compatible chat endpoint and returns
// the assistant message as plain text.
type Generator struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

// NewGenerator constructs a generator using the provided endpoint and model
// name. The client timeout is intentionally generous; per-call deadlines are
// imposed by the caller's context.
func NewGenerator(baseURL, model string, client *http.Client) *Generator {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &Generator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Client:  client,
	}
}

// Generate sends the prompt and returns the assistant message.
func (g *Generator) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	reqBody := chatRequest{
		Model:     g.Model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		Stream:    false,
		KeepAlive: keepAliveSeconds,
		Options: map[string]interface{}{
			"temperature": 0.2,
		},
	}
	if maxTokens > 0 {
		reqBody.Options["num_predict"] = maxTokens
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", g.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call generation endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("generation endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode generation response: %w", err)
	}

	return &domain.LLMResponse{
		Text: strings.TrimSpace(chatResp.Message.Content),
		Done: chatResp.Done,
	}, nil
}

// Version returns the wrapped model name.
func (g *Generator) Version() string {
	return g.Model
}

var _ domain.LLMClient = (*Generator)(nil)
