package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(id int64, embedding []float64) *Record {
	return &Record{
		Attributes: Attributes{ProductID: id, Name: "product"},
		Embedding:  embedding,
	}
}

func TestMemoryGateway(t *testing.T) {
	ctx := context.Background()

	t.Run("Upsert replaces by ID", func(t *testing.T) {
		index := NewMemory()

		require.NoError(t, index.Upsert(ctx, testRecord(1, []float64{1, 0})))
		require.NoError(t, index.Upsert(ctx, testRecord(1, []float64{0, 1})))

		count, err := index.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		record, err := index.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 1}, record.Embedding)
	})

	t.Run("GetByID not found", func(t *testing.T) {
		index := NewMemory()
		_, err := index.GetByID(ctx, 42)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Query orders by distance then ID", func(t *testing.T) {
		index := NewMemory()
		require.NoError(t, index.Upsert(ctx, testRecord(3, []float64{1, 0})))
		require.NoError(t, index.Upsert(ctx, testRecord(1, []float64{1, 0})))
		require.NoError(t, index.Upsert(ctx, testRecord(2, []float64{0, 1})))

		neighbors, err := index.Query(ctx, []float64{1, 0}, 3)
		require.NoError(t, err)
		require.Len(t, neighbors, 3)

		// The two exact matches come first, tie broken by ascending ID
		assert.Equal(t, int64(1), neighbors[0].ProductID)
		assert.Equal(t, int64(3), neighbors[1].ProductID)
		assert.Equal(t, int64(2), neighbors[2].ProductID)
		assert.InDelta(t, 1.0, neighbors[0].Similarity(), 1e-9)
	})

	t.Run("Query truncates to k", func(t *testing.T) {
		index := NewMemory()
		for id := int64(1); id <= 5; id++ {
			require.NoError(t, index.Upsert(ctx, testRecord(id, []float64{float64(id), 1})))
		}

		neighbors, err := index.Query(ctx, []float64{1, 1}, 2)
		require.NoError(t, err)
		assert.Len(t, neighbors, 2)
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		index := NewMemory()
		require.NoError(t, index.Upsert(ctx, testRecord(1, []float64{1})))
		require.NoError(t, index.Delete(ctx, 1))
		require.NoError(t, index.Delete(ctx, 1))

		count, err := index.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("List is ordered by ascending ID", func(t *testing.T) {
		index := NewMemory()
		for _, id := range []int64{5, 2, 9, 1} {
			require.NoError(t, index.Upsert(ctx, testRecord(id, []float64{1})))
		}

		attributes, err := index.List(ctx, 3)
		require.NoError(t, err)
		require.Len(t, attributes, 3)
		assert.Equal(t, int64(1), attributes[0].ProductID)
		assert.Equal(t, int64(2), attributes[1].ProductID)
		assert.Equal(t, int64(5), attributes[2].ProductID)
	})

	t.Run("Cancelled context stops calls", func(t *testing.T) {
		index := NewMemory()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := index.Query(cancelled, []float64{1}, 1)
		assert.Error(t, err)
	})
}

func TestNeighborSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Neighbor{Distance: 0}.Similarity(), 1e-9)
	assert.InDelta(t, 0.25, Neighbor{Distance: 0.75}.Similarity(), 1e-9)
	// Distances beyond 1 clamp to zero similarity
	assert.Zero(t, Neighbor{Distance: 1.8}.Similarity())
}
