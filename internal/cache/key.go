package cache

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/dustin/foodrec-backend/internal/profile"
)

// ProductKey builds a deterministic cache key for product-based
// recommendation results.
func ProductKey(productID int64, limit int) string {
	return fmt.Sprintf("product:%d:%d", productID, limit)
}

// UserKey builds a deterministic cache key for user-based recommendation
// results. The behavior history is digested so that identical histories map
// to the same key regardless of event order.
func UserKey(events []profile.Event, limit int) string {
	pairs := make([]string, 0, len(events))
	for _, event := range events {
		pairs = append(pairs, fmt.Sprintf("%d:%s", event.ProductID, event.Kind))
	}
	sort.Strings(pairs)

	digest := fnv.New64a()
	digest.Write([]byte(strings.Join(pairs, ",")))

	return fmt.Sprintf("user:%x:%d", digest.Sum64(), limit)
}
