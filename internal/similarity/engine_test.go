package similarity

import (
	"testing"

	"github.com/dustin/foodrec-backend/internal/nutrition"
	"github.com/stretchr/testify/assert"
)

func TestNutritionSimilarity(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	snack := nutrition.Ratios{Carbohydrate: 60, Protein: 20, Fat: 22.5, Available: true}
	shake := nutrition.Ratios{Carbohydrate: 20, Protein: 65, Fat: 15, Available: true}

	t.Run("Reflexive", func(t *testing.T) {
		sim, ok := engine.NutritionSimilarity(snack, snack)
		assert.True(t, ok)
		assert.InDelta(t, 1.0, sim, 1e-9)
	})

	t.Run("Symmetric", func(t *testing.T) {
		simAB, _ := engine.NutritionSimilarity(snack, shake)
		simBA, _ := engine.NutritionSimilarity(shake, snack)
		assert.InDelta(t, simAB, simBA, 1e-12)
	})

	t.Run("Bounded", func(t *testing.T) {
		sim, ok := engine.NutritionSimilarity(snack, shake)
		assert.True(t, ok)
		assert.GreaterOrEqual(t, sim, 0.0)
		assert.LessOrEqual(t, sim, 1.0)
	})

	t.Run("Unavailable data flagged, never divides by zero", func(t *testing.T) {
		sim, ok := engine.NutritionSimilarity(nutrition.Ratios{}, snack)
		assert.False(t, ok)
		assert.Zero(t, sim)

		sim, ok = engine.NutritionSimilarity(snack, nutrition.Ratios{Available: true})
		assert.False(t, ok)
		assert.Zero(t, sim)
	})
}

func TestIngredientSimilarity(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	t.Run("Empty list yields zero and unavailable", func(t *testing.T) {
		sim, ok := engine.IngredientSimilarity(nil, []string{"flour"})
		assert.False(t, ok)
		assert.Zero(t, sim)
	})

	t.Run("Identical lists yield one", func(t *testing.T) {
		list := []string{"flour", "sugar", "butter"}
		sim, ok := engine.IngredientSimilarity(list, list)
		assert.True(t, ok)
		assert.InDelta(t, 1.0, sim, 1e-9)
	})

	t.Run("Lead positions weigh more", func(t *testing.T) {
		// flour/sugar/egg shared; butter,oil lead-weighted; milk,salt minor.
		// Intersection 2+2+1=5, union 2+2+2+2+1+1+1=11.
		a := []string{"flour", "sugar", "butter", "egg", "milk"}
		b := []string{"flour", "sugar", "oil", "egg", "salt"}

		sim, ok := engine.IngredientSimilarity(a, b)
		assert.True(t, ok)
		assert.InDelta(t, 5.0/11.0, sim, 1e-9)
		assert.Greater(t, sim, 0.4)
		assert.Less(t, sim, 0.8)
	})

	t.Run("Case insensitive", func(t *testing.T) {
		sim, ok := engine.IngredientSimilarity([]string{"Flour", "SUGAR"}, []string{"flour", "sugar"})
		assert.True(t, ok)
		assert.InDelta(t, 1.0, sim, 1e-9)
	})

	t.Run("Only the top five positions are compared", func(t *testing.T) {
		a := []string{"a", "b", "c", "d", "e", "shared"}
		b := []string{"shared", "x", "y", "z", "w"}

		sim, _ := engine.IngredientSimilarity(a, b)
		assert.Zero(t, sim)
	})
}

func TestFinalScore(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	t.Run("Nominal fusion", func(t *testing.T) {
		score := engine.FinalScore(1.0, 0.5, true, true)
		assert.InDelta(t, 0.8, score, 1e-9) // 1.0*0.6 + 0.5*0.4
	})

	t.Run("Missing nutrition hands full weight to ingredients", func(t *testing.T) {
		assert.InDelta(t, 0.5, engine.FinalScore(0, 0.5, false, true), 1e-9)
	})

	t.Run("Missing ingredients hands full weight to nutrition", func(t *testing.T) {
		assert.InDelta(t, 0.7, engine.FinalScore(0.7, 0, true, false), 1e-9)
	})

	t.Run("Always bounded", func(t *testing.T) {
		for _, nut := range []float64{0, 0.25, 0.5, 1} {
			for _, ing := range []float64{0, 0.3, 0.9, 1} {
				score := engine.FinalScore(nut, ing, true, true)
				assert.GreaterOrEqual(t, score, 0.0)
				assert.LessOrEqual(t, score, 1.0)
			}
		}
	})
}

func TestReason(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	cases := []struct {
		name      string
		nutrition float64
		ingredient float64
		final     float64
		want      string
	}{
		{"Very high score", 0.95, 0.9, 0.93, "nutrition and ingredients are very similar"},
		{"High score", 0.85, 0.75, 0.81, "very similar nutrition composition"},
		{"Nutrition dominant", 0.7, 0.4, 0.58, "similar macronutrient ratio"},
		{"Ingredient dominant", 0.4, 0.7, 0.52, "similar principal ingredients"},
		{"Generic", 0.5, 0.5, 0.5, "related product"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, engine.Reason(tc.nutrition, tc.ingredient, tc.final))
		})
	}
}
