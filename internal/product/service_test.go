package product

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dustin/foodrec-backend/config"
	"github.com/dustin/foodrec-backend/internal/embedding"
	"github.com/dustin/foodrec-backend/internal/vectorindex"
	"github.com/dustin/foodrec-backend/pkg/logger"
)

// mockRepository is an in-memory product.Repository for tests.
type mockRepository struct {
	mu       sync.Mutex
	products map[int64]*Product
}

func newMockRepository() *mockRepository {
	return &mockRepository{products: make(map[int64]*Product)}
}

func (m *mockRepository) Upsert(product *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *product
	m.products[product.ID] = &copied
	return nil
}

func (m *mockRepository) FindByID(id int64) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d not found", id)
	}
	copied := *product
	return &copied, nil
}

func (m *mockRepository) Update(product *Product) error {
	return m.Upsert(product)
}

func (m *mockRepository) Delete(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return fmt.Errorf("product %d not found", id)
	}
	delete(m.products, id)
	return nil
}

func (m *mockRepository) FindFailedIndexing(maxRetries int) ([]*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var failed []*Product
	for _, product := range m.products {
		if product.IndexStatus == IndexStatusFailed && product.RetryCount < maxRetries {
			copied := *product
			failed = append(failed, &copied)
		}
	}
	return failed, nil
}

// mockEmbedder returns a fixed embedding or an error.
type mockEmbedder struct {
	err   error
	calls int
	mu    sync.Mutex
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float64, error) {
	m.mu.Lock()
	m.calls++
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	vector := make([]float64, vectorindex.Dimension)
	vector[0] = 1.0
	return vector, nil
}

func (m *mockEmbedder) GetBatchEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	embeddings := make([][]float64, len(texts))
	for i := range texts {
		vector, err := m.GetEmbedding(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		embeddings[i] = vector
	}
	return embeddings, nil
}

func (m *mockEmbedder) HealthCheck(ctx context.Context) (*embedding.HealthResponse, error) {
	return &embedding.HealthResponse{Status: "healthy"}, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(&config.LoggingConfig{Level: "error", Format: "console"})
	require.NoError(t, err)
	return log
}

func waitForStatus(t *testing.T, repo *mockRepository, id int64, status string) *Product {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		product, err := repo.FindByID(id)
		if err == nil && product.IndexStatus == status {
			return product
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("product %d never reached status %s", id, status)
	return nil
}

func registerRequest() *RegisterRequest {
	return &RegisterRequest{
		ProductID: 1,
		Name:      "protein bar",
		Nutrition: map[string]any{
			"energy":       200,
			"carbohydrate": 30,
			"protein":      10,
			"fat":          5,
		},
		Ingredients: []string{"oats", "whey protein", "honey", "oats", "almonds", "salt", "cocoa"},
	}
}

func TestRegister(t *testing.T) {
	t.Run("normalizes and indexes the product", func(t *testing.T) {
		repo := newMockRepository()
		index := vectorindex.NewMemory()
		svc := NewService(repo, &mockEmbedder{}, index, testLogger(t))

		product, err := svc.Register(context.Background(), registerRequest())

		require.NoError(t, err)
		assert.Equal(t, int64(1), product.ID)
		assert.True(t, product.HasNutrition)
		assert.InDelta(t, 60.0, product.CarbRatio, 1e-9)
		assert.InDelta(t, 20.0, product.ProteinRatio, 1e-9)
		assert.InDelta(t, 22.5, product.FatRatio, 1e-9)

		// Duplicate dropped, list truncated to five
		assert.Equal(t, []string{"oats", "whey protein", "honey", "almonds", "salt"},
			product.IngredientList())

		stored := waitForStatus(t, repo, 1, IndexStatusIndexed)
		assert.Equal(t, 0, stored.RetryCount)

		record, err := index.GetByID(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, "protein bar", record.Name)
		assert.True(t, record.HasNutrition)
		assert.Len(t, record.Embedding, vectorindex.Dimension)
	})

	t.Run("embedding failure marks the row failed, not the request", func(t *testing.T) {
		repo := newMockRepository()
		embedder := &mockEmbedder{err: fmt.Errorf("model not loaded")}
		svc := NewService(repo, embedder, vectorindex.NewMemory(), testLogger(t))

		product, err := svc.Register(context.Background(), registerRequest())

		require.NoError(t, err, "registration must not fail on indexing errors")
		require.NotNil(t, product)

		stored := waitForStatus(t, repo, 1, IndexStatusFailed)
		assert.Equal(t, 1, stored.RetryCount)
	})

	t.Run("malformed nutrition degrades to unavailable", func(t *testing.T) {
		repo := newMockRepository()
		svc := NewService(repo, &mockEmbedder{}, vectorindex.NewMemory(), testLogger(t))

		product, err := svc.Register(context.Background(), &RegisterRequest{
			ProductID:   2,
			Name:        "mystery snack",
			Nutrition:   map[string]any{"energy": "not-a-number"},
			Ingredients: []string{"flour"},
		})

		require.NoError(t, err)
		assert.False(t, product.HasNutrition)
		assert.Zero(t, product.CarbRatio)
	})
}

func TestRetryFailedIndexing(t *testing.T) {
	repo := newMockRepository()
	embedder := &mockEmbedder{err: fmt.Errorf("model not loaded")}
	index := vectorindex.NewMemory()
	svc := NewService(repo, embedder, index, testLogger(t))

	_, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	waitForStatus(t, repo, 1, IndexStatusFailed)

	// Sidecar recovers; the worker pass should index the row.
	embedder.mu.Lock()
	embedder.err = nil
	embedder.mu.Unlock()

	require.NoError(t, svc.RetryFailedIndexing())

	stored := waitForStatus(t, repo, 1, IndexStatusIndexed)
	assert.Equal(t, IndexStatusIndexed, stored.IndexStatus)

	_, err = index.GetByID(context.Background(), 1)
	assert.NoError(t, err)
}

func TestRetryBudgetExhausted(t *testing.T) {
	repo := newMockRepository()
	product := &Product{ID: 9, Name: "stale", IndexStatus: IndexStatusFailed, RetryCount: MaxIndexRetries}
	require.NoError(t, repo.Upsert(product))

	embedder := &mockEmbedder{err: fmt.Errorf("still down")}
	svc := NewService(repo, embedder, vectorindex.NewMemory(), testLogger(t))

	require.NoError(t, svc.RetryFailedIndexing())
	assert.Zero(t, embedder.calls, "exhausted rows must not be retried")
}

func TestDelete(t *testing.T) {
	repo := newMockRepository()
	index := vectorindex.NewMemory()
	svc := NewService(repo, &mockEmbedder{}, index, testLogger(t))

	_, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	waitForStatus(t, repo, 1, IndexStatusIndexed)

	require.NoError(t, svc.Delete(context.Background(), 1))

	_, err = repo.FindByID(1)
	assert.Error(t, err)
	_, err = index.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, vectorindex.ErrNotFound)
}

func TestEmbeddingText(t *testing.T) {
	product := &Product{
		Name:         "protein bar",
		CarbRatio:    60,
		ProteinRatio: 20,
		FatRatio:     22.5,
		HasNutrition: true,
	}
	product.SetIngredients([]string{"oats", "whey protein"})

	text := embeddingText(product)

	assert.Equal(t, "protein bar. carbohydrate 60.0%, protein 20.0%, fat 22.5%. ingredients: oats, whey protein", text)

	bare := &Product{Name: "water"}
	assert.Equal(t, "water", embeddingText(bare))
}
