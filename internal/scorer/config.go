// Package scorer computes bounded lead scores, priority tiers, and contact
// deadlines from engineered features.
package scorer

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// DefaultModelConfig returns the production scoring model.
// Weights reach exactly 100 on a lead that satisfies every factor.
func DefaultModelConfig() config.ModelConfig {
	return config.ModelConfig{
		Weights: config.Weights{
			CompetitorPlatform: 25,
			ReviewCountHigh:    20,
			ReviewCountMedium:  15,
			ReviewCountLow:     10,
			ReviewCountBase:    5,
			HighDemandCategory: 20,
			UrbanLocation:      15,
			HighRating:         10,
			AffordablePrice:    10,
		},

		Verticals: map[model.Vertical]config.VerticalRule{
			model.VerticalRestaurants: {
				MinScore:           50,
				TargetCount:        200,
				SLADays:            7,
				PriorityCategories: []string{"pizza", "chinese", "mexican"},
			},
			model.VerticalGrocery: {
				MinScore:           60,
				TargetCount:        100,
				SLADays:            14,
				PriorityCategories: []string{"grocery", "supermarket"},
			},
			model.VerticalRetail: {
				MinScore:           55,
				TargetCount:        150,
				SLADays:            10,
				PriorityCategories: []string{"retail", "shopping", "convenience"},
			},
			// Unclassified businesses are scored but never exported.
			model.VerticalOther: {
				MinScore:    0,
				TargetCount: 0,
				SLADays:     30,
			},
		},

		// "store" appears in both Grocery and Retail; order decides.
		Classifier: []config.ClassifierRule{
			{Vertical: model.VerticalRestaurants, Keywords: []string{"restaurant", "food", "meal_takeaway", "meal_delivery", "cafe"}},
			{Vertical: model.VerticalGrocery, Keywords: []string{"grocery", "supermarket", "store"}},
			{Vertical: model.VerticalRetail, Keywords: []string{"shopping", "store", "clothing_store", "convenience_store"}},
		},

		HighDemandKeywords: []string{
			"pizza", "chinese", "mexican", "sushi", "thai", "indian",
			"italian", "japanese", "korean", "vietnamese",
			"grocery", "supermarket", "convenience",
		},
		UrbanCities: []string{"San Francisco", "New York", "Chicago", "Los Angeles", "Seattle"},

		ReviewEdges:   []int{50, 200, 500},
		HighRatingMin: 4.0,
		PriorityEdges: []int{0, 50, 70, 85, 100},
		SLADays: map[model.Priority]int{
			model.PriorityCritical: 3,
			model.PriorityHigh:     7,
			model.PriorityMedium:   14,
			model.PriorityLow:      30,
		},

		Validation: config.ValidationConfig{
			CorrelationThreshold: 0.7,
			TopN:                 10,
		},
	}
}

// MaxScore returns the highest score the model can award.
func MaxScore(m config.ModelConfig) int {
	w := m.Weights
	review := max(w.ReviewCountHigh, w.ReviewCountMedium, w.ReviewCountLow, w.ReviewCountBase)
	return w.CompetitorPlatform + review + w.HighDemandCategory + w.UrbanLocation + w.HighRating + w.AffordablePrice
}

// ValidateModel checks that a ModelConfig is complete and internally
// consistent. It does not reject models whose MaxScore exceeds 100; callers
// surface that as a warning.
func ValidateModel(m config.ModelConfig) error {
	var errs []string

	// All weights must be non-negative.
	weights := []struct {
		name string
		v    int
	}{
		{"competitor_platform", m.Weights.CompetitorPlatform},
		{"review_count_high", m.Weights.ReviewCountHigh},
		{"review_count_medium", m.Weights.ReviewCountMedium},
		{"review_count_low", m.Weights.ReviewCountLow},
		{"review_count_base", m.Weights.ReviewCountBase},
		{"high_demand_category", m.Weights.HighDemandCategory},
		{"urban_location", m.Weights.UrbanLocation},
		{"high_rating", m.Weights.HighRating},
		{"affordable_price", m.Weights.AffordablePrice},
	}
	for _, w := range weights {
		if w.v < 0 {
			errs = append(errs, fmt.Sprintf("weight %s must be >= 0", w.name))
		}
	}

	// Every vertical the classifier can produce needs a rule.
	for _, v := range model.Verticals {
		rule, ok := m.Verticals[v]
		if !ok {
			errs = append(errs, fmt.Sprintf("vertical %s has no rule", v))
			continue
		}
		if rule.MinScore < 0 {
			errs = append(errs, fmt.Sprintf("vertical %s: min_score must be >= 0", v))
		}
		if rule.TargetCount < 0 {
			errs = append(errs, fmt.Sprintf("vertical %s: target_count must be >= 0", v))
		}
		if rule.SLADays < 0 {
			errs = append(errs, fmt.Sprintf("vertical %s: sla_days must be >= 0", v))
		}
	}
	for v := range m.Verticals {
		if _, err := model.ParseVertical(string(v)); err != nil || model.Vertical(strings.ToLower(string(v))) != v {
			errs = append(errs, fmt.Sprintf("unknown vertical %q in rules", v))
		}
	}

	// Classifier.
	if len(m.Classifier) == 0 {
		errs = append(errs, "classifier must have at least one rule")
	}
	seen := map[model.Vertical]bool{}
	for i, r := range m.Classifier {
		switch r.Vertical {
		case model.VerticalRestaurants, model.VerticalGrocery, model.VerticalRetail:
		default:
			errs = append(errs, fmt.Sprintf("classifier rule %d: vertical %q cannot be classified into", i, r.Vertical))
		}
		if seen[r.Vertical] {
			errs = append(errs, fmt.Sprintf("classifier rule %d: duplicate vertical %s", i, r.Vertical))
		}
		seen[r.Vertical] = true
		if len(r.Keywords) == 0 {
			errs = append(errs, fmt.Sprintf("classifier rule %d: keywords must not be empty", i))
		}
		for _, kw := range r.Keywords {
			if strings.TrimSpace(kw) == "" {
				errs = append(errs, fmt.Sprintf("classifier rule %d: blank keyword", i))
			}
		}
	}

	// Keyword and city lists.
	if len(m.HighDemandKeywords) == 0 {
		errs = append(errs, "high_demand_keywords must not be empty")
	}
	for _, kw := range m.HighDemandKeywords {
		if strings.TrimSpace(kw) == "" {
			errs = append(errs, "high_demand_keywords contains a blank keyword")
			break
		}
	}
	if len(m.UrbanCities) == 0 {
		errs = append(errs, "urban_cities must not be empty")
	}

	// Review volume edges: VeryLow | Low | Medium | High.
	if len(m.ReviewEdges) != len(model.ReviewBuckets)-1 {
		errs = append(errs, fmt.Sprintf("review_edges must have %d values, got %d", len(model.ReviewBuckets)-1, len(m.ReviewEdges)))
	} else if !strictlyIncreasing(m.ReviewEdges) || m.ReviewEdges[0] <= 0 {
		errs = append(errs, "review_edges must be positive and strictly increasing")
	}

	if m.HighRatingMin <= 0 || m.HighRatingMin > 5 {
		errs = append(errs, "high_rating_min must be in (0, 5]")
	}

	// Priority bins: one more edge than tiers, lowest bin closed at 0.
	if len(m.PriorityEdges) != len(model.Priorities)+1 {
		errs = append(errs, fmt.Sprintf("priority_edges must have %d values, got %d", len(model.Priorities)+1, len(m.PriorityEdges)))
	} else {
		if m.PriorityEdges[0] != 0 {
			errs = append(errs, "priority_edges must start at 0")
		}
		if !strictlyIncreasing(m.PriorityEdges) {
			errs = append(errs, "priority_edges must be strictly increasing")
		}
	}

	for _, p := range model.Priorities {
		days, ok := m.SLADays[p]
		if !ok {
			errs = append(errs, fmt.Sprintf("sla_days missing priority %s", p))
			continue
		}
		if days < 0 {
			errs = append(errs, fmt.Sprintf("sla_days for %s must be >= 0", p))
		}
	}

	if m.Validation.CorrelationThreshold < -1 || m.Validation.CorrelationThreshold > 1 {
		errs = append(errs, "validation.correlation_threshold must be between -1 and 1")
	}
	if m.Validation.TopN < 0 {
		errs = append(errs, "validation.top_n must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: model validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadModel reads a complete scoring model from a YAML file. Unknown keys
// are rejected and the result must pass ValidateModel; there is no merging
// with the built-in defaults.
func LoadModel(path string) (config.ModelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config.ModelConfig{}, eris.Wrapf(err, "scorer: read model %s", path)
	}

	var m config.ModelConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return config.ModelConfig{}, eris.Wrapf(err, "scorer: parse model %s", path)
	}

	if err := ValidateModel(m); err != nil {
		return config.ModelConfig{}, err
	}
	return m, nil
}

// MarshalModel renders a model as YAML in the format LoadModel accepts.
func MarshalModel(m config.ModelConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, eris.Wrap(err, "scorer: marshal model")
	}
	if err := enc.Close(); err != nil {
		return nil, eris.Wrap(err, "scorer: marshal model")
	}
	return buf.Bytes(), nil
}

func strictlyIncreasing(xs []int) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return false
		}
	}
	return true
}
