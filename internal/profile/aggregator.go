package profile

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dustin/foodrec-backend/internal/vectorindex"
	"github.com/dustin/foodrec-backend/pkg/logger"
)

// maxConcurrentFetches bounds parallel lookups against the vector index.
const maxConcurrentFetches = 10

// VectorSource resolves product embeddings for profile aggregation.
type VectorSource interface {
	GetByID(ctx context.Context, productID int64) (*vectorindex.Record, error)
}

// Profile is the derived taste profile used for personalized queries.
type Profile struct {
	Analysis         Analysis
	PreferenceVector []float64
	Strength         string
}

// Aggregator builds user taste profiles from behavior histories.
type Aggregator struct {
	source VectorSource
	logger *logger.Logger
}

// NewAggregator creates a profile aggregator backed by the given vector source
func NewAggregator(source VectorSource, log *logger.Logger) *Aggregator {
	return &Aggregator{
		source: source,
		logger: log.WithComponent("profile-aggregator"),
	}
}

// BuildProfile analyzes the history and derives a preference vector.
// Products missing from the index are skipped; the vector is nil when
// no product resolves.
func (a *Aggregator) BuildProfile(ctx context.Context, events []Event) Profile {
	analysis := Analyze(events)
	vector := a.PreferenceVector(ctx, events, analysis)

	return Profile{
		Analysis:         analysis,
		PreferenceVector: vector,
		Strength:         strength(analysis, vector != nil),
	}
}

// PreferenceVector computes the behavior-weighted mean of the embeddings of
// interacted products. Per-product weights sum across repeat interactions.
func (a *Aggregator) PreferenceVector(ctx context.Context, events []Event, analysis Analysis) []float64 {
	if len(events) == 0 || a.source == nil {
		return nil
	}

	weights := make(map[int64]float64)
	for _, event := range events {
		weights[event.ProductID] += event.Kind.Weight()
	}

	var mu sync.Mutex
	sum := make([]float64, vectorindex.Dimension)
	totalWeight := 0.0

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxConcurrentFetches)

	for _, productID := range analysis.ProductIDs {
		productID := productID
		group.Go(func() error {
			record, err := a.source.GetByID(groupCtx, productID)
			if err != nil {
				a.logger.Warn("skipping product missing from index: " + err.Error())
				return nil
			}
			if len(record.Embedding) == 0 {
				return nil
			}

			weight := weights[productID]
			mu.Lock()
			defer mu.Unlock()
			for i, value := range record.Embedding {
				if i >= len(sum) {
					break
				}
				sum[i] += value * weight
			}
			totalWeight += weight
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		a.logger.Error("preference vector aggregation aborted: " + err.Error())
		return nil
	}
	if totalWeight == 0 {
		return nil
	}

	for i := range sum {
		sum[i] /= totalWeight
	}
	return sum
}

func strength(analysis Analysis, hasVector bool) string {
	highEngagement := analysis.EngagementLevel == EngagementVeryHigh || analysis.EngagementLevel == EngagementHigh
	mediumEngagement := highEngagement || analysis.EngagementLevel == EngagementMedium

	switch {
	case analysis.EventCount >= 10 && highEngagement && hasVector:
		return StrengthStrong
	case analysis.EventCount >= 5 && mediumEngagement && hasVector:
		return StrengthMedium
	default:
		return StrengthWeak
	}
}
