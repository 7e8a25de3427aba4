package openai_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lectern-ai/lectern/provider"
)

const defaultBaseURL = "https://api.openai.com/v1"

// client implements provider.Embedder using OpenAI's embeddings API
type client struct {
	apiKey     string
	model      string
	baseURL    string
	dimension  int
	httpClient *http.Client
}

// NewEmbedder creates a new OpenAI embeddings client
func NewEmbedder(apiKey, model, baseURL string, timeout time.Duration) provider.Embedder {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CreateEmbedding generates embeddings for the given texts in one batch
func (c *client) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	requestBody := map[string]interface{}{
		"model": c.model,
		"input": texts,
	}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &provider.APIError{Provider: string(provider.OpenAI), Kind: provider.KindConnection, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &provider.APIError{
			Provider: string(provider.OpenAI),
			Status:   resp.StatusCode,
			Kind:     provider.ClassifyStatus(resp.StatusCode),
			Message:  resp.Status,
		}
	}

	var openaiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&openaiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(openaiResp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(openaiResp.Data))
	}

	vecs := make([][]float32, len(openaiResp.Data))
	for _, d := range openaiResp.Data {
		vecs[d.Index] = d.Embedding
	}
	if c.dimension == 0 && len(vecs) > 0 {
		c.dimension = len(vecs[0])
	}
	return vecs, nil
}

// Dimension returns the vector size learned from the first embed call.
func (c *client) Dimension() int { return c.dimension }
