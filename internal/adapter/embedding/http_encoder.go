package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"handbook-rag/internal/domain"
)

// HTTPEncoder calls a feature-extraction endpoint (HuggingFace Inference API
// or a compatible self-hosted service) and returns mean-pooled, normalized
// sentence vectors.
type HTTPEncoder struct {
	BaseURL string
	Model   string
	APIKey  string
	Client  *http.Client
}

// NewHTTPEncoder constructs an encoder for the given endpoint and model.
func NewHTTPEncoder(baseURL, model, apiKey string, client *http.Client) *HTTPEncoder {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPEncoder{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		APIKey:  apiKey,
		Client:  client,
	}
}

type encodeRequest struct {
	Inputs  string        `json:"inputs"`
	Options encodeOptions `json:"options"`
}

type encodeOptions struct {
	Pooling      string `json:"pooling"`
	Normalize    bool   `json:"normalize"`
	WaitForModel bool   `json:"wait_for_model"`
}

// Encode posts the text for feature extraction and validates the returned
// vector dimension.
func (e *HTTPEncoder) Encode(ctx context.Context, text string) (domain.Embedding, error) {
	start := time.Now()

	reqBody := encodeRequest{
		Inputs: text,
		Options: encodeOptions{
			Pooling:      "mean",
			Normalize:    true,
			WaitForModel: true,
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return domain.Embedding{}, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", e.BaseURL, e.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return domain.Embedding{}, fmt.Errorf("failed to create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.APIKey)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		slog.Error("embed_request_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)),
		)
		return domain.Embedding{}, fmt.Errorf("failed to call embedding endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		slog.Error("embed_bad_status",
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", time.Since(start)),
		)
		return domain.Embedding{}, fmt.Errorf("embedding endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var vector []float32
	if err := json.NewDecoder(resp.Body).Decode(&vector); err != nil {
		return domain.Embedding{}, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if len(vector) != domain.EmbeddingDim {
		return domain.Embedding{}, fmt.Errorf("embedding endpoint returned %d dimensions, want %d", len(vector), domain.EmbeddingDim)
	}

	return domain.Embedding{Vector: vector}, nil
}

// Version returns the wrapped model name.
func (e *HTTPEncoder) Version() string {
	return e.Model
}

var _ domain.VectorEncoder = (*HTTPEncoder)(nil)
