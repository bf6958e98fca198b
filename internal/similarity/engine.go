package similarity

import (
	"math"
	"strings"

	"github.com/dustin/foodrec-backend/internal/nutrition"
)

// Weights holds the scoring policy for the hybrid engine. The default
// values are fixed product decisions; they are configurable so that the
// policy lives in one place, not scattered literals.
type Weights struct {
	// Fusion weights for the final score
	Nutrition  float64
	Ingredient float64
	// Position weights for the ingredient Jaccard
	LeadIngredient  float64
	MinorIngredient float64
	// Margin by which one sub-score must exceed the other before the
	// recommendation reason names a single dominant factor
	DominantMargin float64
}

// DefaultWeights returns the nominal scoring policy: 0.6/0.4 nutrition vs
// ingredient fusion, 2.0/1.0 lead vs minor ingredient weighting, 0.15
// dominance margin.
func DefaultWeights() Weights {
	return Weights{
		Nutrition:       0.6,
		Ingredient:      0.4,
		LeadIngredient:  2.0,
		MinorIngredient: 1.0,
		DominantMargin:  0.15,
	}
}

// Number of leading list positions that receive LeadIngredient weight.
const leadPositions = 3

// Engine computes nutrition and ingredient similarity between two products
// and fuses them into a single ranked score.
type Engine struct {
	weights Weights
}

// NewEngine creates a similarity engine with the given weights. Zero fusion
// weights fall back to the defaults.
func NewEngine(w Weights) *Engine {
	if w.Nutrition <= 0 && w.Ingredient <= 0 {
		w = DefaultWeights()
	}
	if w.LeadIngredient <= 0 {
		w.LeadIngredient = DefaultWeights().LeadIngredient
	}
	if w.MinorIngredient <= 0 {
		w.MinorIngredient = DefaultWeights().MinorIngredient
	}
	if w.DominantMargin <= 0 {
		w.DominantMargin = DefaultWeights().DominantMargin
	}
	return &Engine{weights: w}
}

// NutritionSimilarity returns the cosine similarity of the two ratio triples
// in [0,1]. The boolean reports whether nutrition data was available on both
// sides; when it is false the similarity value is 0.0 and must not be
// trusted as a sub-score.
func (e *Engine) NutritionSimilarity(a, b nutrition.Ratios) (float64, bool) {
	if !a.Available || !b.Available {
		return 0, false
	}

	dot := a.Carbohydrate*b.Carbohydrate + a.Protein*b.Protein + a.Fat*b.Fat
	normA := math.Sqrt(a.Carbohydrate*a.Carbohydrate + a.Protein*a.Protein + a.Fat*a.Fat)
	normB := math.Sqrt(b.Carbohydrate*b.Carbohydrate + b.Protein*b.Protein + b.Fat*b.Fat)

	if normA == 0 || normB == 0 {
		return 0, false
	}

	// Ratios are non-negative, so cosine already lands in [0,1]
	return clamp01(dot / (normA * normB)), true
}

// IngredientSimilarity returns the weighted Jaccard similarity of the two
// principal-ingredient lists in [0,1]. Ingredients among the first three
// positions of either list carry the lead weight; the rest carry the minor
// weight, so agreement on dominant ingredients counts more. The boolean
// reports whether both lists contributed data.
func (e *Engine) IngredientSimilarity(a, b []string) (float64, bool) {
	setA := normalizeIngredients(a)
	setB := normalizeIngredients(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0, false
	}

	weightOf := func(ingredient string) float64 {
		if pos, ok := setA[ingredient]; ok && pos < leadPositions {
			return e.weights.LeadIngredient
		}
		if pos, ok := setB[ingredient]; ok && pos < leadPositions {
			return e.weights.LeadIngredient
		}
		return e.weights.MinorIngredient
	}

	var intersectionWeight, unionWeight float64
	for ingredient := range setA {
		w := weightOf(ingredient)
		unionWeight += w
		if _, ok := setB[ingredient]; ok {
			intersectionWeight += w
		}
	}
	for ingredient := range setB {
		if _, ok := setA[ingredient]; ok {
			continue // already counted through setA
		}
		unionWeight += weightOf(ingredient)
	}

	if unionWeight == 0 {
		return 0, false
	}
	return clamp01(intersectionWeight / unionWeight), true
}

// FinalScore fuses the two sub-scores using the configured weights. A
// missing signal hands its weight to the other one. Callers must not invoke
// FinalScore when both signals are unavailable; that case falls back to
// embedding similarity from the index instead.
func (e *Engine) FinalScore(nutritionSim, ingredientSim float64, hasNutrition, hasIngredients bool) float64 {
	switch {
	case hasNutrition && hasIngredients:
		total := e.weights.Nutrition + e.weights.Ingredient
		return clamp01((nutritionSim*e.weights.Nutrition + ingredientSim*e.weights.Ingredient) / total)
	case hasNutrition:
		return clamp01(nutritionSim)
	case hasIngredients:
		return clamp01(ingredientSim)
	default:
		return 0
	}
}

// Reason produces the human-readable justification for a hybrid score.
// The text is informational only and never participates in ranking.
func (e *Engine) Reason(nutritionSim, ingredientSim, finalScore float64) string {
	switch {
	case finalScore >= 0.9:
		return "nutrition and ingredients are very similar"
	case finalScore >= 0.8:
		return "very similar nutrition composition"
	case nutritionSim-ingredientSim >= e.weights.DominantMargin:
		return "similar macronutrient ratio"
	case ingredientSim-nutritionSim >= e.weights.DominantMargin:
		return "similar principal ingredients"
	default:
		return "related product"
	}
}

// normalizeIngredients maps each lowercased ingredient of the top-5 list to
// its first position.
func normalizeIngredients(list []string) map[string]int {
	normalized := make(map[string]int, nutrition.MaxPrincipalIngredients)
	position := 0
	for _, ingredient := range list {
		if position >= nutrition.MaxPrincipalIngredients {
			break
		}
		key := strings.ToLower(strings.TrimSpace(ingredient))
		if key == "" {
			continue
		}
		if _, ok := normalized[key]; !ok {
			normalized[key] = position
		}
		position++
	}
	return normalized
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
