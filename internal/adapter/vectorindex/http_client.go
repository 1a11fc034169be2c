package vectorindex

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

// HTTPClient talks to a Pinecone-style vector index over its REST data
// plane: POST /query for nearest-neighbor search, POST /vectors/upsert for
// writes.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPClient constructs an index client for the given data-plane host.
func NewHTTPClient(baseURL, apiKey string, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  client,
	}
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string            `json:"id"`
		Score    float64           `json:"score"`
		Metadata map[string]string `json:"metadata"`
	} `json:"matches"`
}

// Query runs a nearest-neighbor search.
func (c *HTTPClient) Query(ctx context.Context, q domain.IndexQuery) ([]domain.IndexMatch, error) {
	start := time.Now()

	var respBody queryResponse
	if err := c.post(ctx, "/query", queryRequest{
		Vector:          q.Vector,
		TopK:            q.TopK,
		IncludeMetadata: q.IncludeMetadata,
	}, &respBody); err != nil {
		return nil, err
	}

	matches := make([]domain.IndexMatch, 0, len(respBody.Matches))
	for _, m := range respBody.Matches {
		matches = append(matches, domain.IndexMatch{
			ID:       m.ID,
			Score:    m.Score,
			Metadata: m.Metadata,
		})
	}

	slog.Info("vector_index_query_completed",
		slog.Int("top_k", q.TopK),
		slog.Int("match_count", len(matches)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return matches, nil
}

type upsertVector struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors []upsertVector `json:"vectors"`
}

type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

// Upsert writes vectors with their metadata into the index.
func (c *HTTPClient) Upsert(ctx context.Context, items []domain.IndexItem) error {
	if len(items) == 0 {
		return nil
	}

	vectors := make([]upsertVector, 0, len(items))
	for _, item := range items {
		vectors = append(vectors, upsertVector{
			ID:       item.ID,
			Values:   item.Vector,
			Metadata: item.Metadata,
		})
	}

	var respBody upsertResponse
	if err := c.post(ctx, "/vectors/upsert", upsertRequest{Vectors: vectors}, &respBody); err != nil {
		return err
	}

	slog.Info("vector_index_upsert_completed",
		slog.Int("vector_count", len(items)),
		slog.Int("upserted_count", respBody.UpsertedCount),
	)
	return nil
}

func (c *HTTPClient) post(ctx context.Context, path string, reqBody, respBody interface{}) error {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal index request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create index request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call vector index: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vector index returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("failed to decode index response: %w", err)
	}
	return nil
}

var _ domain.VectorIndex = (*HTTPClient)(nil)
