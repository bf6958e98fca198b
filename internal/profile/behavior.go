package profile

import "sort"

// Kind identifies a tracked user behavior.
type Kind string

const (
	KindView     Kind = "VIEW"
	KindSearch   Kind = "SEARCH"
	KindLike     Kind = "LIKE"
	KindRegister Kind = "REGISTER"
)

// Weight returns the interest score carried by a behavior kind.
// Unknown kinds count as a plain view.
func (k Kind) Weight() float64 {
	switch k {
	case KindView:
		return 1
	case KindSearch:
		return 2
	case KindLike:
		return 3
	case KindRegister:
		return 5
	default:
		return 1
	}
}

// Event is a single recorded interaction between a user and a product.
type Event struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Kind      Kind  `json:"kind" binding:"required"`
}

// Engagement levels derived from the average behavior weight.
const (
	EngagementVeryHigh = "very_high"
	EngagementHigh     = "high"
	EngagementMedium   = "medium"
	EngagementLow      = "low"
	EngagementNone     = "none"
)

// Profile strength classifications.
const (
	StrengthStrong = "strong"
	StrengthMedium = "medium"
	StrengthWeak   = "weak"
)

// Analysis summarizes a user's interaction history.
type Analysis struct {
	EventCount      int
	ProductIDs      []int64
	KindCounts      map[Kind]int
	TotalScore      float64
	AverageScore    float64
	EngagementLevel string
	MostCommonKind  Kind
}

// kindPriority breaks ties between equally frequent kinds in favor of
// the stronger signal.
var kindPriority = []Kind{KindRegister, KindLike, KindSearch, KindView}

// Analyze computes interaction statistics over a behavior history.
// The returned ProductIDs preserve first-seen order with duplicates removed.
func Analyze(events []Event) Analysis {
	analysis := Analysis{
		EventCount: len(events),
		KindCounts: make(map[Kind]int),
	}
	if len(events) == 0 {
		analysis.EngagementLevel = EngagementNone
		return analysis
	}

	seen := make(map[int64]bool)
	for _, event := range events {
		analysis.KindCounts[event.Kind]++
		analysis.TotalScore += event.Kind.Weight()
		if !seen[event.ProductID] {
			seen[event.ProductID] = true
			analysis.ProductIDs = append(analysis.ProductIDs, event.ProductID)
		}
	}

	analysis.AverageScore = analysis.TotalScore / float64(len(events))
	analysis.EngagementLevel = engagementLevel(analysis.AverageScore)
	analysis.MostCommonKind = mostCommonKind(analysis.KindCounts)
	return analysis
}

func engagementLevel(average float64) string {
	switch {
	case average >= 4:
		return EngagementVeryHigh
	case average >= 3:
		return EngagementHigh
	case average >= 2:
		return EngagementMedium
	case average >= 1:
		return EngagementLow
	default:
		return EngagementNone
	}
}

func mostCommonKind(counts map[Kind]int) Kind {
	best := Kind("")
	bestCount := -1
	for _, kind := range kindPriority {
		if counts[kind] > bestCount {
			best = kind
			bestCount = counts[kind]
		}
	}
	// Unrecognized kinds only win with a strictly higher count; sorting the
	// keys keeps ties between them deterministic.
	extras := make([]Kind, 0, len(counts))
	for kind := range counts {
		extras = append(extras, kind)
	}
	sort.Slice(extras, func(i, j int) bool { return extras[i] < extras[j] })
	for _, kind := range extras {
		if counts[kind] > bestCount {
			best = kind
			bestCount = counts[kind]
		}
	}
	return best
}
