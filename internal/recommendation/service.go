package recommendation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/foodrec-backend/internal/profile"
	"github.com/dustin/foodrec-backend/internal/vectorindex"
	"github.com/dustin/foodrec-backend/pkg/logger"
)

// ErrSystemFailure reports that the recommender failed and the fallback
// could not produce results either.
var ErrSystemFailure = errors.New("recommendation system failure")

// Service exposes the two public recommendation operations.
type Service interface {
	RecommendByProduct(ctx context.Context, productID int64, limit int) (*ProductBasedResponse, error)
	RecommendByUser(ctx context.Context, userID int64, events []profile.Event, limit int) (*UserBasedResponse, error)
}

// service implements Service with panic containment around the recommenders.
type service struct {
	products *ProductRecommender
	users    *UserRecommender
	gateway  vectorindex.Gateway
	logger   *logger.Logger
}

// NewService creates a recommendation service
func NewService(products *ProductRecommender, users *UserRecommender, gateway vectorindex.Gateway, log *logger.Logger) Service {
	return &service{
		products: products,
		users:    users,
		gateway:  gateway,
		logger:   log.WithComponent("recommendation-service"),
	}
}

func (s *service) RecommendByProduct(ctx context.Context, productID int64, limit int) (response *ProductBasedResponse, err error) {
	start := time.Now()
	defer func() {
		s.logger.WithDuration("product-based recommendation", time.Since(start))
	}()
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Error(fmt.Sprintf("product recommender panic: %v", recovered))
			response, err = s.recoverProduct(ctx, productID, limit)
		}
	}()

	outcome := s.products.Recommend(ctx, productID, limit)
	return &ProductBasedResponse{
		ReferenceProductID: productID,
		Results:            outcome.Results,
		Total:              len(outcome.Results),
		Degraded:           outcome.Degraded,
		RecommendationType: outcome.Type,
		Message:            outcomeMessage(outcome),
	}, nil
}

func (s *service) RecommendByUser(ctx context.Context, userID int64, events []profile.Event, limit int) (response *UserBasedResponse, err error) {
	start := time.Now()
	defer func() {
		s.logger.WithDuration("user-based recommendation", time.Since(start))
	}()
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Error(fmt.Sprintf("user recommender panic: %v", recovered))
			response, err = s.recoverUser(ctx, userID, events, limit)
		}
	}()

	outcome := s.users.Recommend(ctx, events, limit)
	return &UserBasedResponse{
		UserID:             userID,
		Results:            outcome.Results,
		Total:              len(outcome.Results),
		Degraded:           outcome.Degraded,
		RecommendationType: outcome.Type,
		Message:            outcomeMessage(outcome.Outcome),
		ProfileStrength:    outcome.ProfileStrength,
		EngagementLevel:    outcome.EngagementLevel,
	}, nil
}

// recoverProduct makes the single post-panic fallback attempt. An empty
// fallback means the whole pipeline is down and the caller gets an error.
func (s *service) recoverProduct(ctx context.Context, productID int64, limit int) (*ProductBasedResponse, error) {
	outcome := s.safeFallback(ctx, normalizeLimit(limit, DefaultProductLimit))
	if len(outcome.Results) == 0 {
		return nil, fmt.Errorf("product-based recommendation for %d: %w", productID, ErrSystemFailure)
	}
	return &ProductBasedResponse{
		ReferenceProductID: productID,
		Results:            outcome.Results,
		Total:              len(outcome.Results),
		Degraded:           true,
		RecommendationType: outcome.Type,
		Message:            outcomeMessage(outcome),
	}, nil
}

func (s *service) recoverUser(ctx context.Context, userID int64, events []profile.Event, limit int) (*UserBasedResponse, error) {
	outcome := s.safeFallback(ctx, normalizeLimit(limit, DefaultUserLimit))
	if len(outcome.Results) == 0 {
		return nil, fmt.Errorf("user-based recommendation for %d: %w", userID, ErrSystemFailure)
	}
	analysis := profile.Analyze(events)
	return &UserBasedResponse{
		UserID:             userID,
		Results:            outcome.Results,
		Total:              len(outcome.Results),
		Degraded:           true,
		RecommendationType: outcome.Type,
		Message:            outcomeMessage(outcome),
		ProfileStrength:    profile.StrengthWeak,
		EngagementLevel:    analysis.EngagementLevel,
	}, nil
}

// safeFallback runs the popularity fallback with its own panic containment
// so a second failure cannot escape the recovery path.
func (s *service) safeFallback(ctx context.Context, limit int) (outcome Outcome) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Error(fmt.Sprintf("fallback panic: %v", recovered))
			outcome = Outcome{Results: []Result{}, Degraded: true, Type: TypeNone}
		}
	}()
	return popularityFallback(ctx, s.gateway, limit, s.logger)
}

func outcomeMessage(outcome Outcome) string {
	switch outcome.Type {
	case TypeFallback:
		return "serving popular products while personalization is unavailable"
	case TypeNone:
		return "no recommendations available"
	default:
		return "recommendations generated successfully"
	}
}
