package recommendation

import (
	"context"
	"encoding/json"

	"github.com/dustin/foodrec-backend/config"
	"github.com/dustin/foodrec-backend/internal/cache"
	"github.com/dustin/foodrec-backend/internal/profile"
	"github.com/dustin/foodrec-backend/internal/vectorindex"
	"github.com/dustin/foodrec-backend/pkg/logger"
)

// UserRecommender produces personalized recommendations from a user's
// behavior history via the aggregated preference vector.
type UserRecommender struct {
	gateway    vectorindex.Gateway
	aggregator *profile.Aggregator
	cache      cache.Store
	limits     limits
	logger     *logger.Logger
}

// NewUserRecommender creates a user-based recommender. A nil config uses the
// default limit policy.
func NewUserRecommender(cfg *config.RecommenderConfig, gateway vectorindex.Gateway, aggregator *profile.Aggregator, store cache.Store, log *logger.Logger) *UserRecommender {
	return &UserRecommender{
		gateway:    gateway,
		aggregator: aggregator,
		cache:      store,
		limits:     parseLimits(cfg),
		logger:     log.WithComponent("user-recommender"),
	}
}

// UserOutcome couples the recommendation outcome with the profile summary
// surfaced in the response.
type UserOutcome struct {
	Outcome
	ProfileStrength string `json:"profile_strength"`
	EngagementLevel string `json:"engagement_level"`
}

// Recommend returns up to limit products matching the taste profile derived
// from the behavior history. Interacted products are excluded; profile or
// index insufficiency degrades to the popularity fallback.
func (r *UserRecommender) Recommend(ctx context.Context, events []profile.Event, limit int) UserOutcome {
	limit = r.limits.clamp(limit, r.limits.user)

	key := cache.UserKey(events, limit)
	if cached, ok := r.cache.Get(ctx, key); ok {
		var outcome UserOutcome
		if err := json.Unmarshal(cached, &outcome); err == nil {
			r.logger.Debug("cache hit for " + key)
			return outcome
		}
	}

	userProfile := r.aggregator.BuildProfile(ctx, events)
	summary := UserOutcome{
		ProfileStrength: userProfile.Strength,
		EngagementLevel: userProfile.Analysis.EngagementLevel,
	}

	if userProfile.PreferenceVector == nil || !r.gateway.IsAvailable(ctx) {
		if userProfile.PreferenceVector == nil {
			r.logger.Info("no preference vector could be built, serving fallback")
		} else {
			r.logger.Warn("vector index unavailable, serving fallback")
		}
		summary.Outcome = popularityFallback(ctx, r.gateway, limit, r.logger)
		return summary
	}

	// Overfetch so interacted products can be dropped without starving
	// the result list.
	neighbors, err := r.gateway.Query(ctx, userProfile.PreferenceVector, 2*limit)
	if err != nil {
		r.logger.Warn("neighbor query failed: " + err.Error())
		summary.Outcome = popularityFallback(ctx, r.gateway, limit, r.logger)
		return summary
	}

	interacted := make(map[int64]bool, len(userProfile.Analysis.ProductIDs))
	for _, productID := range userProfile.Analysis.ProductIDs {
		interacted[productID] = true
	}

	results := make([]Result, 0, limit)
	for _, neighbor := range neighbors {
		if interacted[neighbor.ProductID] {
			continue
		}
		sim := neighbor.Similarity()
		results = append(results, Result{
			ProductID: neighbor.ProductID,
			Name:      neighbor.Name,
			Score:     sim,
			Reason:    personalizedReason(userProfile.Analysis, sim),
		})
	}

	if len(results) == 0 {
		r.logger.Info("every neighbor was already interacted with, serving fallback")
		summary.Outcome = popularityFallback(ctx, r.gateway, limit, r.logger)
		return summary
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}

	summary.Outcome = Outcome{Results: results, Degraded: false, Type: TypeUserBased}
	if encoded, err := json.Marshal(summary); err == nil {
		r.cache.Set(ctx, key, encoded)
	}
	return summary
}

// personalizedReason phrases the recommendation reason from the similarity
// bucket, the user's engagement level, and the behavior kind that dominates
// their history. Informational only.
func personalizedReason(analysis profile.Analysis, sim float64) string {
	var match string
	switch {
	case sim > 0.9:
		match = "a near-perfect match for"
	case sim > 0.8:
		match = "a strong match for"
	case sim > 0.7:
		match = "a good match for"
	case sim > 0.6:
		match = "a close match for"
	default:
		return "related to products you interacted with"
	}

	switch analysis.EngagementLevel {
	case profile.EngagementVeryHigh, profile.EngagementHigh:
		// Engaged users get phrasing anchored on their dominant behavior.
		switch analysis.MostCommonKind {
		case profile.KindRegister:
			return match + " products you registered"
		case profile.KindLike:
			return match + " products you liked"
		case profile.KindSearch:
			return match + " products you searched for"
		default:
			return match + " products you viewed often"
		}
	case profile.EngagementMedium:
		return match + " your recent activity"
	default:
		return match + " products you viewed"
	}
}
