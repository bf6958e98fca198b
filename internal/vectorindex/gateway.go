package vectorindex

import (
	"context"
	"errors"
)

// Dimension is the embedding dimensionality shared with the embedding
// sidecar. Producer and index must agree on this constant.
const Dimension = 384

// Sentinel errors returned by Gateway implementations. Callers branch with
// errors.Is; unavailability is an expected condition that triggers the
// degraded path, never a request failure.
var (
	ErrNotFound    = errors.New("vector index: product not found")
	ErrUnavailable = errors.New("vector index: unavailable")
)

// Attributes is the product metadata stored alongside each embedding.
type Attributes struct {
	ProductID     int64    `json:"product_id"`
	Name          string   `json:"name"`
	CarbRatio     float64  `json:"carbohydrate_ratio"`
	ProteinRatio  float64  `json:"protein_ratio"`
	FatRatio      float64  `json:"fat_ratio"`
	HasNutrition  bool     `json:"has_nutrition"`
	TotalCalories float64  `json:"total_calories"`
	Ingredients   []string `json:"main_ingredients"`
}

// Record is a stored product: attributes plus its embedding vector.
type Record struct {
	Attributes
	Embedding []float64 `json:"embedding"`
}

// Neighbor is one nearest-neighbor query hit. Distance is the index's raw
// distance; Similarity converts it to [0,1].
type Neighbor struct {
	Attributes
	Distance float64 `json:"distance"`
}

// Similarity converts the raw index distance to a [0,1] similarity score.
func (n Neighbor) Similarity() float64 {
	sim := 1 - n.Distance
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// Gateway is the capability interface over the external nearest-neighbor
// store. IsAvailable must be checked before any other call; all methods
// honor context cancellation and deadlines.
type Gateway interface {
	// IsAvailable reports whether the index can currently serve requests.
	IsAvailable(ctx context.Context) bool

	// GetByID returns the stored record for a product, or ErrNotFound.
	GetByID(ctx context.Context, productID int64) (*Record, error)

	// Query returns up to k nearest neighbors of the given embedding,
	// ordered by ascending distance.
	Query(ctx context.Context, embedding []float64, k int) ([]Neighbor, error)

	// Upsert stores or atomically replaces the record for its product ID.
	Upsert(ctx context.Context, record *Record) error

	// Delete removes a product from the index. Deleting an absent product
	// is not an error.
	Delete(ctx context.Context, productID int64) error

	// List returns up to limit stored attributes ordered by ascending
	// product ID. Used by the popularity fallback for a stable listing.
	List(ctx context.Context, limit int) ([]Attributes, error)

	// Count returns the number of stored products.
	Count(ctx context.Context) (int, error)
}
