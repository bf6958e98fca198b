package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/foodrec-backend/config"
	"github.com/dustin/foodrec-backend/pkg/logger"
)

// Client is an HTTP Gateway implementation speaking JSON to an external
// vector index service. Transport failures and non-2xx responses surface as
// ErrUnavailable so that callers take the degraded path instead of erroring.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *logger.Logger

	// Availability is probed at most once per healthInterval; concurrent
	// requests share the cached verdict and never wait on an in-flight probe.
	mu             sync.Mutex
	available      bool
	lastProbe      time.Time
	probing        bool
	healthInterval time.Duration
}

// NewClient creates a vector index client with validation and defaults.
func NewClient(cfg *config.VectorIndexConfig, log *logger.Logger) *Client {
	baseURL := cfg.URL
	if baseURL == "" {
		baseURL = "http://localhost:8002"
	}

	requestTimeout := 2 * time.Second
	if cfg.RequestTimeout != "" {
		if duration, err := time.ParseDuration(cfg.RequestTimeout); err == nil {
			requestTimeout = duration
		}
	}

	healthInterval := 15 * time.Second
	if cfg.HealthInterval != "" {
		if duration, err := time.ParseDuration(cfg.HealthInterval); err == nil {
			healthInterval = duration
		}
	}

	return &Client{
		baseURL:        baseURL,
		client:         &http.Client{Timeout: requestTimeout},
		logger:         log.WithComponent("vector-index-client"),
		healthInterval: healthInterval,
	}
}

type queryRequest struct {
	Embedding []float64 `json:"embedding"`
	K         int       `json:"k"`
}

type queryResponse struct {
	Neighbors []Neighbor `json:"neighbors"`
}

type countResponse struct {
	Count int `json:"count"`
}

type listResponse struct {
	Products []Attributes `json:"products"`
}

// IsAvailable probes the index health endpoint, caching the verdict for the
// configured interval. The probe itself runs outside the lock; callers that
// arrive while one is in flight get the cached verdict instead of queueing
// behind the network call. A failed probe is a normal branch, logged at
// warning level only when the state flips.
func (c *Client) IsAvailable(ctx context.Context) bool {
	c.mu.Lock()
	if time.Since(c.lastProbe) < c.healthInterval || c.probing {
		verdict := c.available
		c.mu.Unlock()
		return verdict
	}
	c.probing = true
	c.mu.Unlock()

	available := c.probe(ctx)

	c.mu.Lock()
	wasAvailable := c.available
	c.available = available
	c.lastProbe = time.Now()
	c.probing = false
	c.mu.Unlock()

	if wasAvailable && !available {
		c.logger.Warn("Vector index became unavailable")
	} else if !wasAvailable && available {
		c.logger.Info("Vector index is available")
	}

	return available
}

func (c *Client) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}

// GetByID fetches the stored record for a product.
func (c *Client) GetByID(ctx context.Context, productID int64) (*Record, error) {
	var record Record
	err := c.get(ctx, fmt.Sprintf("/products/%d", productID), &record)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Query runs a nearest-neighbor search for the given embedding.
func (c *Client) Query(ctx context.Context, embedding []float64, k int) ([]Neighbor, error) {
	if k <= 0 {
		k = 10
	}

	var result queryResponse
	if err := c.post(ctx, "/query", queryRequest{Embedding: embedding, K: k}, &result); err != nil {
		return nil, err
	}
	return result.Neighbors, nil
}

// Upsert stores or replaces the record keyed by its product ID.
func (c *Client) Upsert(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("nil record")
	}
	return c.put(ctx, fmt.Sprintf("/products/%d", record.ProductID), record)
}

// Delete removes a product from the index.
func (c *Client) Delete(ctx context.Context, productID int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+fmt.Sprintf("/products/%d", productID), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil // absent product is not an error
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: delete returned status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// List returns up to limit stored attributes ordered by ascending product ID.
func (c *Client) List(ctx context.Context, limit int) ([]Attributes, error) {
	var result listResponse
	if err := c.get(ctx, fmt.Sprintf("/products?limit=%d", limit), &result); err != nil {
		return nil, err
	}
	return result.Products, nil
}

// Count returns the number of stored products.
func (c *Client) Count(ctx context.Context) (int, error) {
	var result countResponse
	if err := c.get(ctx, "/count", &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) put(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
