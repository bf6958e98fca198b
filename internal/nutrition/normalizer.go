package nutrition

import (
	"strconv"
	"strings"
)

// Calories contributed by one gram of each macronutrient.
const (
	CaloriesPerGramCarbohydrate = 4.0
	CaloriesPerGramProtein      = 4.0
	CaloriesPerGramFat          = 9.0
)

// MaxPrincipalIngredients is the number of leading ingredients kept per product.
const MaxPrincipalIngredients = 5

// Facts holds raw nutrition values as reported on a label.
// Macronutrients are grams, Energy is kcal.
type Facts struct {
	Energy       float64 `json:"energy"`
	Carbohydrate float64 `json:"carbohydrate"`
	Protein      float64 `json:"protein"`
	Fat          float64 `json:"fat"`
}

// Ratios is the calorie-relative macronutrient composition of a product.
// Each ratio is the percent of total calories contributed by that
// macronutrient, in [0,100]. Available is false when total calories were
// zero or unknown; consumers must branch on it and never read an all-zero
// triple as "zero-fat product".
type Ratios struct {
	Carbohydrate float64 `json:"carbohydrate_ratio"`
	Protein      float64 `json:"protein_ratio"`
	Fat          float64 `json:"fat_ratio"`
	Available    bool    `json:"-"`
}

// ComputeRatios converts raw nutrition facts into a macronutrient ratio
// triple. Negative macro values count as zero. When total calories is zero
// or negative the result is all-zero with Available=false; the computation
// never fails.
func ComputeRatios(f Facts) Ratios {
	if f.Energy <= 0 {
		return Ratios{}
	}

	carb := clampNonNegative(f.Carbohydrate) * CaloriesPerGramCarbohydrate
	protein := clampNonNegative(f.Protein) * CaloriesPerGramProtein
	fat := clampNonNegative(f.Fat) * CaloriesPerGramFat

	return Ratios{
		Carbohydrate: clampRatio(carb / f.Energy * 100),
		Protein:      clampRatio(protein / f.Energy * 100),
		Fat:          clampRatio(fat / f.Energy * 100),
		Available:    true,
	}
}

// ParseFacts builds Facts from loosely typed label data as delivered by the
// analysis pipeline. Individual malformed fields become zero for that field
// only; parsing never fails.
func ParseFacts(raw map[string]any) Facts {
	return Facts{
		Energy:       toFloat(raw["energy"]),
		Carbohydrate: toFloat(raw["carbohydrate"]),
		Protein:      toFloat(raw["protein"]),
		Fat:          toFloat(raw["fat"]),
	}
}

// PrincipalIngredients trims whitespace, drops empty entries, removes
// duplicates case-insensitively while preserving first-seen order and
// casing, and truncates to max. An empty input yields an empty output.
func PrincipalIngredients(list []string, max int) []string {
	if max <= 0 {
		max = MaxPrincipalIngredients
	}

	cleaned := make([]string, 0, max)
	seen := make(map[string]struct{}, len(list))

	for _, ingredient := range list {
		trimmed := strings.TrimSpace(ingredient)
		if trimmed == "" {
			continue
		}

		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		cleaned = append(cleaned, trimmed)
		if len(cleaned) >= max {
			break
		}
	}

	return cleaned
}

func toFloat(v any) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case float32:
		return float64(value)
	case int:
		return float64(value)
	case int64:
		return float64(value)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func clampRatio(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
