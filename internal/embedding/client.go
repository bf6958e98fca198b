package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/foodrec-backend/config"
	"github.com/dustin/foodrec-backend/internal/vectorindex"
)

// EmbeddingClient defines the interface for embedding operations
type EmbeddingClient interface {
	GetEmbedding(ctx context.Context, text string) ([]float64, error)
	GetBatchEmbeddings(ctx context.Context, texts []string) ([][]float64, error)
	HealthCheck(ctx context.Context) (*HealthResponse, error)
}

// Client handles communication with the embedding microservice
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a new embedding service client with validation and defaults
func NewClient(cfg *config.EmbeddingConfig) *Client {
	baseURL := cfg.URL
	if baseURL == "" {
		baseURL = "http://localhost:8001"
	}

	timeout := 30 * time.Second
	if cfg.RequestTimeout != "" {
		if duration, err := time.ParseDuration(cfg.RequestTimeout); err == nil {
			timeout = duration
		}
	}

	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// EmbedRequest represents a single text embedding request
type EmbedRequest struct {
	Text string `json:"text"`
}

// EmbedResponse represents the embedding response
type EmbedResponse struct {
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"`
	Dimension int       `json:"dimension"`
}

// BatchEmbedRequest represents multiple text embedding request
type BatchEmbedRequest struct {
	Texts []string `json:"texts"`
}

// BatchEmbedResponse represents the batch embedding response
type BatchEmbedResponse struct {
	Texts      []string    `json:"texts"`
	Embeddings [][]float64 `json:"embeddings"`
	Count      int         `json:"count"`
	Dimension  int         `json:"dimension"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string `json:"status"`
	Model       string `json:"embedding_model"`
	ModelLoaded bool   `json:"embedding_model_loaded"`
}

// GetEmbedding generates an embedding for a single text
func (c *Client) GetEmbedding(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text provided")
	}

	var embedResp EmbedResponse
	if err := c.post(ctx, "/embed", EmbedRequest{Text: text}, &embedResp); err != nil {
		return nil, err
	}

	return normalizeDimension(embedResp.Embedding), nil
}

// GetBatchEmbeddings generates embeddings for multiple texts
func (c *Client) GetBatchEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty texts list provided")
	}

	var embedResp BatchEmbedResponse
	if err := c.post(ctx, "/embed/batch", BatchEmbedRequest{Texts: texts}, &embedResp); err != nil {
		return nil, err
	}

	embeddings := make([][]float64, len(embedResp.Embeddings))
	for i, embedding := range embedResp.Embeddings {
		embeddings[i] = normalizeDimension(embedding)
	}
	return embeddings, nil
}

// HealthCheck checks if the embedding service is healthy
func (c *Client) HealthCheck(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build health check request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make health check request: %w", err)
	}
	defer resp.Body.Close()

	var healthResp HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}

	return &healthResp, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("embedding service error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// normalizeDimension forces an embedding to the shared index dimensionality,
// truncating or zero-padding when the sidecar model disagrees.
func normalizeDimension(embedding []float64) []float64 {
	if len(embedding) == vectorindex.Dimension {
		return embedding
	}
	if len(embedding) > vectorindex.Dimension {
		return embedding[:vectorindex.Dimension]
	}

	padded := make([]float64, vectorindex.Dimension)
	copy(padded, embedding)
	return padded
}
