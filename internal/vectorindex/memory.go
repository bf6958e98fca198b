package vectorindex

import (
	"context"
	"math"
	"sort"
	"sync"
)

// Memory is an in-process Gateway used by tests and local development. It
// computes exact cosine distances over all stored records, which is fine at
// prototype scale. Thread safe.
type Memory struct {
	mu      sync.RWMutex
	records map[int64]*Record
}

// NewMemory creates an empty in-memory vector index.
func NewMemory() *Memory {
	return &Memory{records: make(map[int64]*Record)}
}

// IsAvailable always reports true for the in-memory index.
func (m *Memory) IsAvailable(ctx context.Context) bool {
	return true
}

// GetByID returns a copy of the stored record, or ErrNotFound.
func (m *Memory) GetByID(ctx context.Context, productID int64) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[productID]
	if !ok {
		return nil, ErrNotFound
	}

	clone := *record
	clone.Embedding = append([]float64(nil), record.Embedding...)
	clone.Ingredients = append([]string(nil), record.Ingredients...)
	return &clone, nil
}

// Query returns up to k neighbors ordered by ascending cosine distance,
// ties broken by ascending product ID for determinism.
func (m *Memory) Query(ctx context.Context, embedding []float64, k int) ([]Neighbor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = 10
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	neighbors := make([]Neighbor, 0, len(m.records))
	for _, record := range m.records {
		neighbors = append(neighbors, Neighbor{
			Attributes: record.Attributes,
			Distance:   cosineDistance(embedding, record.Embedding),
		})
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Distance != neighbors[j].Distance {
			return neighbors[i].Distance < neighbors[j].Distance
		}
		return neighbors[i].ProductID < neighbors[j].ProductID
	})

	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

// Upsert stores or replaces the record keyed by its product ID.
func (m *Memory) Upsert(ctx context.Context, record *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	clone := *record
	clone.Embedding = append([]float64(nil), record.Embedding...)
	clone.Ingredients = append([]string(nil), record.Ingredients...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ProductID] = &clone
	return nil
}

// Delete removes a product; deleting an absent product is a no-op.
func (m *Memory) Delete(ctx context.Context, productID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, productID)
	return nil
}

// List returns up to limit attributes ordered by ascending product ID.
func (m *Memory) List(ctx context.Context, limit int) ([]Attributes, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int64, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	attributes := make([]Attributes, 0, len(ids))
	for _, id := range ids {
		attributes = append(attributes, m.records[id].Attributes)
	}
	return attributes, nil
}

// Count returns the number of stored products.
func (m *Memory) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// cosineDistance is 1 - cosine similarity. Degenerate vectors land at the
// maximum distance so they sort last.
func cosineDistance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
