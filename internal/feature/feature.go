// Package feature derives the categorical and boolean signals used by the
// scorer.
package feature

import (
	"slices"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// Engineer computes FeatureSets. It holds only read-only state derived from
// the model and is safe for concurrent use.
type Engineer struct {
	classifier    *Classifier
	highDemand    []string
	urban         map[string]struct{}
	reviewEdges   []int
	highRatingMin float64
	presence      PresenceProvider
}

// NewEngineer prepares an Engineer for one model. A nil provider reports
// no competitor presence.
func NewEngineer(m config.ModelConfig, presence PresenceProvider) *Engineer {
	if presence == nil {
		presence = StaticProvider{}
	}
	urban := make(map[string]struct{}, len(m.UrbanCities))
	for _, c := range m.UrbanCities {
		urban[c] = struct{}{}
	}
	return &Engineer{
		classifier:    NewClassifier(m.Classifier),
		highDemand:    lowerAll(m.HighDemandKeywords),
		urban:         urban,
		reviewEdges:   slices.Clone(m.ReviewEdges),
		highRatingMin: m.HighRatingMin,
		presence:      presence,
	}
}

// Derive computes the features of a single record.
func (e *Engineer) Derive(rec model.CleanedRecord) model.Featured {
	joined := joinTags(rec.CategoryTags)
	presence := e.presence.Presence(rec)
	_, urban := e.urban[rec.City]

	return model.Featured{
		Record: rec,
		Features: model.FeatureSet{
			HighDemandCategory: containsAny(joined, e.highDemand),
			ReviewVolume:       Bucket(rec.ReviewCount, e.reviewEdges),
			IsAffordable:       rec.PriceLevel >= 0 && rec.PriceLevel <= 2,
			HighRating:         rec.Rating >= e.highRatingMin,
			UrbanLocation:      urban,
			OnPlatformA:        presence.PlatformA,
			OnPlatformB:        presence.PlatformB,
			Vertical:           e.classifier.classifyJoined(joined),
		},
	}
}

// Run derives features for every record, preserving order.
func (e *Engineer) Run(records []model.CleanedRecord) []model.Featured {
	out := make([]model.Featured, len(records))
	for i, r := range records {
		out[i] = e.Derive(r)
	}
	return out
}

// Bucket places a review count into a volume bucket. edges are the lower
// bounds of Low, Medium and High; intervals are left-closed.
func Bucket(count int, edges []int) model.ReviewBucket {
	b := model.ReviewVeryLow
	for i, edge := range edges {
		if i+1 >= len(model.ReviewBuckets) {
			break
		}
		if count >= edge {
			b = model.ReviewBuckets[i+1]
		}
	}
	return b
}

func joinTags(tags []string) string {
	return strings.ToLower(strings.Join(tags, ","))
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
