package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	productPkg "github.com/dustin/foodrec-backend/internal/product"
	"github.com/dustin/foodrec-backend/pkg/logger"
)

// gormProductRepository implements the product.Repository interface with GORM
type gormProductRepository struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewGORMProductRepository creates a new GORM-based product repository
func NewGORMProductRepository(db *gorm.DB, log *logger.Logger) productPkg.Repository {
	return &gormProductRepository{
		db:     db,
		logger: log.WithComponent("gorm-product-repository"),
	}
}

// Upsert creates the product row or atomically replaces an existing one with
// the same external ID.
func (r *gormProductRepository) Upsert(product *productPkg.Product) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(product).Error
	if err != nil {
		r.logger.Error(fmt.Sprintf("Failed to upsert product %d: %s", product.ID, err.Error()))
		return fmt.Errorf("failed to upsert product: %w", err)
	}
	return nil
}

func (r *gormProductRepository) FindByID(id int64) (*productPkg.Product, error) {
	var product productPkg.Product

	err := r.db.First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d not found", id)
		}
		r.logger.Error(fmt.Sprintf("Database error finding product %d: %s", id, err.Error()))
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &product, nil
}

func (r *gormProductRepository) Update(product *productPkg.Product) error {
	if err := r.db.Save(product).Error; err != nil {
		r.logger.Error(fmt.Sprintf("Failed to update product %d: %s", product.ID, err.Error()))
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

func (r *gormProductRepository) Delete(id int64) error {
	result := r.db.Delete(&productPkg.Product{}, id)
	if result.Error != nil {
		r.logger.Error(fmt.Sprintf("Failed to delete product %d: %s", id, result.Error.Error()))
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("product %d not found", id)
	}
	return nil
}

// FindFailedIndexing returns products whose index write failed and still
// have retry budget, oldest first.
func (r *gormProductRepository) FindFailedIndexing(maxRetries int) ([]*productPkg.Product, error) {
	var products []*productPkg.Product

	err := r.db.Where("index_status = ? AND retry_count < ?", productPkg.IndexStatusFailed, maxRetries).
		Order("updated_at ASC").
		Find(&products).Error
	if err != nil {
		r.logger.Error("Database error finding failed products: " + err.Error())
		return nil, fmt.Errorf("database error: %w", err)
	}

	return products, nil
}
