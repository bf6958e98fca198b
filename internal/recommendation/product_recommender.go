package recommendation

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/dustin/foodrec-backend/config"
	"github.com/dustin/foodrec-backend/internal/cache"
	"github.com/dustin/foodrec-backend/internal/nutrition"
	"github.com/dustin/foodrec-backend/internal/similarity"
	"github.com/dustin/foodrec-backend/internal/vectorindex"
	"github.com/dustin/foodrec-backend/pkg/logger"
)

// ProductRecommender produces "similar to this product" recommendations by
// re-scoring nearest neighbors with the hybrid similarity engine.
type ProductRecommender struct {
	gateway vectorindex.Gateway
	engine  *similarity.Engine
	cache   cache.Store
	limits  limits
	logger  *logger.Logger
}

// NewProductRecommender creates a product-based recommender. A nil config
// uses the default limit policy.
func NewProductRecommender(cfg *config.RecommenderConfig, gateway vectorindex.Gateway, engine *similarity.Engine, store cache.Store, log *logger.Logger) *ProductRecommender {
	return &ProductRecommender{
		gateway: gateway,
		engine:  engine,
		cache:   store,
		limits:  parseLimits(cfg),
		logger:  log.WithComponent("product-recommender"),
	}
}

// Recommend returns up to limit products similar to the reference product.
// Every degradation (index down, unknown reference) yields a fallback
// outcome, never an error.
func (r *ProductRecommender) Recommend(ctx context.Context, productID int64, limit int) Outcome {
	limit = r.limits.clamp(limit, r.limits.product)

	key := cache.ProductKey(productID, limit)
	if cached, ok := r.cache.Get(ctx, key); ok {
		var outcome Outcome
		if err := json.Unmarshal(cached, &outcome); err == nil {
			r.logger.Debug("cache hit for " + key)
			return outcome
		}
	}

	if !r.gateway.IsAvailable(ctx) {
		r.logger.Warn("vector index unavailable, serving fallback")
		return popularityFallback(ctx, r.gateway, limit, r.logger)
	}

	reference, err := r.gateway.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, vectorindex.ErrNotFound) {
			r.logger.Info("reference product not indexed, serving fallback")
		} else {
			r.logger.Warn("reference lookup failed: " + err.Error())
		}
		return popularityFallback(ctx, r.gateway, limit, r.logger)
	}

	// Overfetch by one so the reference itself never crowds out a slot.
	neighbors, err := r.gateway.Query(ctx, reference.Embedding, limit+1)
	if err != nil {
		r.logger.Warn("neighbor query failed: " + err.Error())
		return popularityFallback(ctx, r.gateway, limit, r.logger)
	}

	results := make([]Result, 0, len(neighbors))
	for _, neighbor := range neighbors {
		if neighbor.ProductID == productID {
			continue
		}
		results = append(results, r.score(reference.Attributes, neighbor))
	}

	// Nothing left after excluding the reference means there is nothing to
	// personalize against; serve the fallback and surface the degradation.
	if len(results) == 0 {
		r.logger.Info("no candidates besides the reference product, serving fallback")
		return popularityFallback(ctx, r.gateway, limit, r.logger)
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}

	outcome := Outcome{Results: results, Degraded: false, Type: TypeProductBased}
	if encoded, err := json.Marshal(outcome); err == nil {
		r.cache.Set(ctx, key, encoded)
	}
	return outcome
}

// score re-scores one neighbor against the reference attributes. When neither
// nutrition nor ingredient data is usable the index similarity stands in.
func (r *ProductRecommender) score(reference vectorindex.Attributes, neighbor vectorindex.Neighbor) Result {
	nutritionSim, hasNutrition := r.engine.NutritionSimilarity(ratiosOf(reference), ratiosOf(neighbor.Attributes))
	ingredientSim, hasIngredients := r.engine.IngredientSimilarity(reference.Ingredients, neighbor.Ingredients)

	result := Result{
		ProductID: neighbor.ProductID,
		Name:      neighbor.Name,
	}

	if !hasNutrition && !hasIngredients {
		result.Score = neighbor.Similarity()
		result.Reason = "related product"
		return result
	}

	result.Score = r.engine.FinalScore(nutritionSim, ingredientSim, hasNutrition, hasIngredients)
	result.Reason = r.engine.Reason(nutritionSim, ingredientSim, result.Score)
	if hasNutrition {
		result.NutritionSimilarity = &nutritionSim
	}
	if hasIngredients {
		result.IngredientSimilarity = &ingredientSim
	}
	return result
}

// ratiosOf lifts stored index attributes back into the normalizer's type.
func ratiosOf(a vectorindex.Attributes) nutrition.Ratios {
	return nutrition.Ratios{
		Carbohydrate: a.CarbRatio,
		Protein:      a.ProteinRatio,
		Fat:          a.FatRatio,
		Available:    a.HasNutrition,
	}
}

// sortResults orders by score descending with product ID ascending as the
// deterministic tie-break.
func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ProductID < results[j].ProductID
	})
}
