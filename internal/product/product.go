package product

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dustin/foodrec-backend/internal/nutrition"
)

// Product represents a catalog food product with its derived nutrition
// profile and index bookkeeping.
type Product struct {
	ID           int64   `json:"id" gorm:"primaryKey"`
	Name         string  `json:"name" gorm:"not null;size:500"`
	Energy       float64 `json:"energy" gorm:"default:0"`
	Carbohydrate float64 `json:"carbohydrate" gorm:"default:0"`
	Protein      float64 `json:"protein" gorm:"default:0"`
	Fat          float64 `json:"fat" gorm:"default:0"`

	// Derived at ingestion, denormalized for the index payload
	CarbRatio    float64 `json:"carbohydrate_ratio" gorm:"default:0"`
	ProteinRatio float64 `json:"protein_ratio" gorm:"default:0"`
	FatRatio     float64 `json:"fat_ratio" gorm:"default:0"`
	HasNutrition bool    `json:"has_nutrition" gorm:"default:false"`

	// Principal ingredients serialized as a JSON array
	Ingredients string `json:"-" gorm:"type:text"`

	IndexStatus string `json:"index_status" gorm:"size:20;default:'pending';index"`
	RetryCount  int    `json:"retry_count" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Index status constants
const (
	IndexStatusPending = "pending"
	IndexStatusIndexed = "indexed"
	IndexStatusFailed  = "failed"
)

// MaxIndexRetries bounds how often the worker re-attempts a failed upsert.
const MaxIndexRetries = 3

// SetIngredients serializes the principal-ingredient list onto the row.
func (p *Product) SetIngredients(list []string) {
	encoded, err := json.Marshal(list)
	if err != nil {
		p.Ingredients = "[]"
		return
	}
	p.Ingredients = string(encoded)
}

// IngredientList deserializes the stored principal-ingredient list.
func (p *Product) IngredientList() []string {
	if p.Ingredients == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(p.Ingredients), &list); err != nil {
		return nil
	}
	return list
}

// Ratios lifts the stored ratio columns into the normalizer's type.
func (p *Product) Ratios() nutrition.Ratios {
	return nutrition.Ratios{
		Carbohydrate: p.CarbRatio,
		Protein:      p.ProteinRatio,
		Fat:          p.FatRatio,
		Available:    p.HasNutrition,
	}
}

// Repository defines the interface for product data access
type Repository interface {
	Upsert(product *Product) error
	FindByID(id int64) (*Product, error)
	Update(product *Product) error
	Delete(id int64) error
	FindFailedIndexing(maxRetries int) ([]*Product, error)
}

// Service defines the interface for product ingestion business logic
type Service interface {
	Register(ctx context.Context, req *RegisterRequest) (*Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
	Delete(ctx context.Context, id int64) error

	// Background processing
	IndexProduct(ctx context.Context, id int64) error
	RetryFailedIndexing() error
}

// RegisterRequest is the ingestion payload. Nutrition facts arrive as a
// loosely-typed map; malformed fields degrade to zero instead of failing
// registration.
type RegisterRequest struct {
	ProductID   int64          `json:"product_id" binding:"required"`
	Name        string         `json:"name" binding:"required"`
	Nutrition   map[string]any `json:"nutrition"`
	Ingredients []string       `json:"ingredients"`
}

// RegisterResponse is the ingestion response with the analysis trace ID.
type RegisterResponse struct {
	AnalysisID string   `json:"analysis_id"`
	Product    *Product `json:"product"`
	Message    string   `json:"message"`
}
