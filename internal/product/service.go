package product

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/foodrec-backend/internal/embedding"
	"github.com/dustin/foodrec-backend/internal/nutrition"
	"github.com/dustin/foodrec-backend/internal/vectorindex"
	"github.com/dustin/foodrec-backend/pkg/logger"
)

// indexTimeout bounds the background embedding and index write per product.
const indexTimeout = 30 * time.Second

// service implements the Service interface
type service struct {
	repo     Repository
	embedder embedding.EmbeddingClient
	gateway  vectorindex.Gateway
	logger   *logger.Logger
}

// NewService creates a new product ingestion service
func NewService(repo Repository, embedder embedding.EmbeddingClient, gateway vectorindex.Gateway, log *logger.Logger) Service {
	return &service{
		repo:     repo,
		embedder: embedder,
		gateway:  gateway,
		logger:   log.WithComponent("product-service"),
	}
}

// Register normalizes and stores the product, then indexes it in the
// background. Indexing failure marks the row failed for the retry worker;
// registration itself still succeeds.
func (s *service) Register(ctx context.Context, req *RegisterRequest) (*Product, error) {
	s.logger.Info(fmt.Sprintf("Registering product %d: %s", req.ProductID, req.Name))

	facts := nutrition.ParseFacts(req.Nutrition)
	ratios := nutrition.ComputeRatios(facts)
	principal := nutrition.PrincipalIngredients(req.Ingredients, nutrition.MaxPrincipalIngredients)

	product := &Product{
		ID:           req.ProductID,
		Name:         req.Name,
		Energy:       facts.Energy,
		Carbohydrate: facts.Carbohydrate,
		Protein:      facts.Protein,
		Fat:          facts.Fat,
		CarbRatio:    ratios.Carbohydrate,
		ProteinRatio: ratios.Protein,
		FatRatio:     ratios.Fat,
		HasNutrition: ratios.Available,
		IndexStatus:  IndexStatusPending,
		RetryCount:   0,
	}
	product.SetIngredients(principal)

	if err := s.repo.Upsert(product); err != nil {
		s.logger.Error(fmt.Sprintf("Failed to register product %d: %s", req.ProductID, err.Error()))
		return nil, err
	}

	// Index asynchronously; the registration response does not wait for
	// the embedding sidecar.
	go func() {
		indexCtx, cancel := context.WithTimeout(context.Background(), indexTimeout)
		defer cancel()
		if err := s.IndexProduct(indexCtx, product.ID); err != nil {
			s.logger.Error(fmt.Sprintf("Failed to index product %d: %s", product.ID, err.Error()))
		}
	}()

	s.logger.Info(fmt.Sprintf("Product registered successfully: %d", product.ID))
	return product, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.FindByID(id)
}

// Delete removes the catalog row and the index entry. A missing index entry
// is not an error.
func (s *service) Delete(ctx context.Context, id int64) error {
	s.logger.Info(fmt.Sprintf("Deleting product %d", id))

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error(fmt.Sprintf("Failed to delete product %d: %s", id, err.Error()))
		return err
	}

	if err := s.gateway.Delete(ctx, id); err != nil {
		s.logger.Warn(fmt.Sprintf("Failed to remove product %d from index: %s", id, err.Error()))
	}
	return nil
}

// IndexProduct embeds the product and upserts it into the vector index,
// updating the row's index status either way.
func (s *service) IndexProduct(ctx context.Context, id int64) error {
	product, err := s.repo.FindByID(id)
	if err != nil {
		return err
	}

	vector, err := s.embedder.GetEmbedding(ctx, embeddingText(product))
	if err != nil {
		s.markFailed(product)
		return fmt.Errorf("failed to embed product %d: %w", id, err)
	}

	record := &vectorindex.Record{
		Attributes: vectorindex.Attributes{
			ProductID:     product.ID,
			Name:          product.Name,
			CarbRatio:     product.CarbRatio,
			ProteinRatio:  product.ProteinRatio,
			FatRatio:      product.FatRatio,
			HasNutrition:  product.HasNutrition,
			TotalCalories: product.Energy,
			Ingredients:   product.IngredientList(),
		},
		Embedding: vector,
	}

	if err := s.gateway.Upsert(ctx, record); err != nil {
		s.markFailed(product)
		return fmt.Errorf("failed to index product %d: %w", id, err)
	}

	product.IndexStatus = IndexStatusIndexed
	if err := s.repo.Update(product); err != nil {
		s.logger.Warn(fmt.Sprintf("Failed to mark product %d indexed: %s", id, err.Error()))
	}
	return nil
}

// RetryFailedIndexing re-attempts indexing for failed rows, bounded by
// MaxIndexRetries. Worker callback.
func (s *service) RetryFailedIndexing() error {
	failed, err := s.repo.FindFailedIndexing(MaxIndexRetries)
	if err != nil {
		return fmt.Errorf("failed to load products pending retry: %w", err)
	}
	if len(failed) == 0 {
		return nil
	}

	s.logger.Info(fmt.Sprintf("Retrying indexing for %d products", len(failed)))

	for _, product := range failed {
		ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
		err := s.IndexProduct(ctx, product.ID)
		cancel()
		if err != nil {
			s.logger.Warn(fmt.Sprintf("Retry failed for product %d: %s", product.ID, err.Error()))
		}
	}
	return nil
}

func (s *service) markFailed(product *Product) {
	product.IndexStatus = IndexStatusFailed
	product.RetryCount++
	if err := s.repo.Update(product); err != nil {
		s.logger.Warn(fmt.Sprintf("Failed to mark product %d failed: %s", product.ID, err.Error()))
	}
}

// embeddingText builds the text embedded for a product: name, macronutrient
// profile and principal ingredients in a stable order.
func embeddingText(product *Product) string {
	var b strings.Builder
	b.WriteString(product.Name)

	if product.HasNutrition {
		b.WriteString(fmt.Sprintf(". carbohydrate %.1f%%, protein %.1f%%, fat %.1f%%",
			product.CarbRatio, product.ProteinRatio, product.FatRatio))
	}

	if ingredients := product.IngredientList(); len(ingredients) > 0 {
		b.WriteString(". ingredients: ")
		b.WriteString(strings.Join(ingredients, ", "))
	}
	return b.String()
}
