package recommendation

import (
	"strconv"

	"github.com/dustin/foodrec-backend/config"
	"github.com/dustin/foodrec-backend/internal/profile"
)

// Recommendation types reported in responses.
const (
	TypeProductBased = "product-based"
	TypeUserBased    = "user-based"
	TypeFallback     = "fallback"
	TypeNone         = "none"
)

// Limit policy shared by both recommenders.
const (
	MaxLimit            = 50
	DefaultProductLimit = 15
	DefaultUserLimit    = 20
)

// FallbackScore is the neutral score attached to popularity fallback results.
const FallbackScore = 0.5

// Result is a single recommended product. The sub-scores are populated only
// on the hybrid product-based path.
type Result struct {
	ProductID            int64    `json:"product_id"`
	Name                 string   `json:"name,omitempty"`
	Score                float64  `json:"score"`
	Reason               string   `json:"reason"`
	NutritionSimilarity  *float64 `json:"nutrition_similarity,omitempty"`
	IngredientSimilarity *float64 `json:"ingredient_similarity,omitempty"`
}

// Outcome is the internal output of a recommender run.
type Outcome struct {
	Results  []Result `json:"results"`
	Degraded bool     `json:"degraded"`
	Type     string   `json:"type"`
}

// ProductBasedRequest is the payload for product-based recommendations.
type ProductBasedRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Limit     int   `json:"limit" binding:"omitempty,min=1,max=50"`
}

// UserBasedRequest is the payload for user-based recommendations. At least
// one behavior event is required; an empty history has nothing to personalize.
type UserBasedRequest struct {
	UserID int64           `json:"user_id" binding:"required"`
	Events []profile.Event `json:"events" binding:"required,min=1,dive"`
	Limit  int             `json:"limit" binding:"omitempty,min=1,max=50"`
}

// ProductBasedResponse is the product-based recommendation response body.
type ProductBasedResponse struct {
	ReferenceProductID int64    `json:"reference_product_id"`
	Results            []Result `json:"results"`
	Total              int      `json:"total"`
	Degraded           bool     `json:"degraded"`
	RecommendationType string   `json:"recommendation_type"`
	Message            string   `json:"message"`
}

// UserBasedResponse is the user-based recommendation response body.
type UserBasedResponse struct {
	UserID             int64    `json:"user_id"`
	Results            []Result `json:"results"`
	Total              int      `json:"total"`
	Degraded           bool     `json:"degraded"`
	RecommendationType string   `json:"recommendation_type"`
	Message            string   `json:"message"`
	ProfileStrength    string   `json:"profile_strength"`
	EngagementLevel    string   `json:"engagement_level"`
}

// limits is the per-operation result size policy, parsed from config with
// the package defaults as fallback.
type limits struct {
	product int
	user    int
	max     int
}

// parseLimits reads the limit knobs from config. A nil or empty config
// yields the defaults.
func parseLimits(cfg *config.RecommenderConfig) limits {
	parsed := limits{
		product: DefaultProductLimit,
		user:    DefaultUserLimit,
		max:     MaxLimit,
	}
	if cfg == nil {
		return parsed
	}
	if value, err := strconv.Atoi(cfg.DefaultLimit); err == nil && value > 0 {
		parsed.product = value
	}
	if value, err := strconv.Atoi(cfg.UserDefaultLimit); err == nil && value > 0 {
		parsed.user = value
	}
	if value, err := strconv.Atoi(cfg.MaxLimit); err == nil && value > 0 {
		parsed.max = value
	}
	return parsed
}

// clamp forces a requested limit into [1, max], applying the operation
// default when the request omitted it.
func (l limits) clamp(limit, fallback int) int {
	if limit <= 0 {
		limit = fallback
	}
	if limit > l.max {
		return l.max
	}
	return limit
}

// normalizeLimit clamps a requested limit into [1, MaxLimit], applying the
// operation default when the request omitted it.
func normalizeLimit(limit, fallback int) int {
	return limits{max: MaxLimit}.clamp(limit, fallback)
}
