package config

import "github.com/sells-group/leadgen-cli/internal/model"

// ModelConfig is the complete scoring model for one pipeline run. It is
// loaded once and shared read-only by every stage.
type ModelConfig struct {
	Weights            Weights                         `yaml:"weights"`
	Verticals          map[model.Vertical]VerticalRule `yaml:"verticals"`
	Classifier         []ClassifierRule                `yaml:"classifier"`
	HighDemandKeywords []string                        `yaml:"high_demand_keywords"`
	UrbanCities        []string                        `yaml:"urban_cities"`
	ReviewEdges        []int                           `yaml:"review_edges"`
	HighRatingMin      float64                         `yaml:"high_rating_min"`
	PriorityEdges      []int                           `yaml:"priority_edges"`
	SLADays            map[model.Priority]int          `yaml:"sla_days"`
	Validation         ValidationConfig                `yaml:"validation"`
}

// Weights holds the points awarded by each score factor. All values are
// non-negative integers.
type Weights struct {
	CompetitorPlatform int `yaml:"competitor_platform"`
	ReviewCountHigh    int `yaml:"review_count_high"`
	ReviewCountMedium  int `yaml:"review_count_medium"`
	ReviewCountLow     int `yaml:"review_count_low"`
	ReviewCountBase    int `yaml:"review_count_base"`
	HighDemandCategory int `yaml:"high_demand_category"`
	UrbanLocation      int `yaml:"urban_location"`
	HighRating         int `yaml:"high_rating"`
	AffordablePrice    int `yaml:"affordable_price"`
}

// VerticalRule holds per-vertical segmentation settings.
type VerticalRule struct {
	MinScore           int      `yaml:"min_score"`
	TargetCount        int      `yaml:"target_count"`
	SLADays            int      `yaml:"sla_days"`
	PriorityCategories []string `yaml:"priority_categories,omitempty"`
}

// ClassifierRule maps category keywords to a vertical. Rules are evaluated
// in list order and the first match wins.
type ClassifierRule struct {
	Vertical model.Vertical `yaml:"vertical"`
	Keywords []string       `yaml:"keywords"`
}

// ValidationConfig tunes the model-health diagnostics.
type ValidationConfig struct {
	CorrelationThreshold float64 `yaml:"correlation_threshold"`
	TopN                 int     `yaml:"top_n"`
}
