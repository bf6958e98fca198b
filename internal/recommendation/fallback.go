package recommendation

import (
	"context"

	"github.com/dustin/foodrec-backend/internal/vectorindex"
	"github.com/dustin/foodrec-backend/pkg/logger"
)

// popularityFallback serves a stable product listing when personalization is
// impossible. With the index down it returns an empty degraded outcome; the
// caller reports the condition instead of failing the request.
func popularityFallback(ctx context.Context, gateway vectorindex.Gateway, limit int, log *logger.Logger) Outcome {
	if !gateway.IsAvailable(ctx) {
		return Outcome{Results: []Result{}, Degraded: true, Type: TypeNone}
	}

	listed, err := gateway.List(ctx, limit)
	if err != nil {
		log.Warn("popularity fallback listing failed: " + err.Error())
		return Outcome{Results: []Result{}, Degraded: true, Type: TypeNone}
	}

	results := make([]Result, 0, len(listed))
	for _, attributes := range listed {
		results = append(results, Result{
			ProductID: attributes.ProductID,
			Name:      attributes.Name,
			Score:     FallbackScore,
			Reason:    "popular product",
		})
	}
	return Outcome{Results: results, Degraded: true, Type: TypeFallback}
}
