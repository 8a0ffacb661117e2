package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Score factor names as they appear in a score breakdown.
const (
	FactorCompetitorPlatform = "Competitor Platform"
	FactorReviewVolume       = "Review Volume"
	FactorHighDemandCategory = "High Demand Category"
	FactorUrbanLocation      = "Urban Location"
	FactorHighRating         = "High Rating"
	FactorAffordablePrice    = "Affordable Price"
)

// FactorOrder is the fixed evaluation order of score factors.
var FactorOrder = []string{
	FactorCompetitorPlatform,
	FactorReviewVolume,
	FactorHighDemandCategory,
	FactorUrbanLocation,
	FactorHighRating,
	FactorAffordablePrice,
}

// Breakdown maps a factor name to the points it contributed. Only factors
// whose condition held are present.
type Breakdown map[string]int

// Sum returns the total points across all factors.
func (b Breakdown) Sum() int {
	total := 0
	for _, pts := range b {
		total += pts
	}
	return total
}

// String renders the breakdown as a flat "Factor:points;Factor:points" blob
// in factor evaluation order.
func (b Breakdown) String() string {
	parts := make([]string, 0, len(b))
	for _, f := range FactorOrder {
		if pts, ok := b[f]; ok {
			parts = append(parts, f+":"+strconv.Itoa(pts))
		}
	}
	return strings.Join(parts, ";")
}

// ParseBreakdown reads a blob produced by Breakdown.String.
func ParseBreakdown(s string) (Breakdown, error) {
	b := Breakdown{}
	s = strings.TrimSpace(s)
	if s == "" {
		return b, nil
	}
	known := make(map[string]bool, len(FactorOrder))
	for _, f := range FactorOrder {
		known[f] = true
	}
	for _, part := range strings.Split(s, ";") {
		name, pts, ok := strings.Cut(part, ":")
		if !ok {
			return nil, eris.Errorf("model: malformed breakdown entry %q", part)
		}
		name = strings.TrimSpace(name)
		if !known[name] {
			return nil, eris.Errorf("model: unknown score factor %q", name)
		}
		n, err := strconv.Atoi(strings.TrimSpace(pts))
		if err != nil {
			return nil, eris.Wrapf(err, "model: breakdown points for %q", name)
		}
		b[name] = n
	}
	return b, nil
}

// ScoredLead is a featured record with its score, priority, and contact
// deadline.
type ScoredLead struct {
	Record    CleanedRecord `json:"record"`
	Features  FeatureSet    `json:"features"`
	Score     int           `json:"score"`
	Breakdown Breakdown     `json:"score_breakdown"`
	Priority  Priority      `json:"priority"`
	ContactBy time.Time     `json:"contact_by"`

	// ExpectedConversion is a validation-only diagnostic. It never feeds
	// back into Score or Priority.
	ExpectedConversion float64 `json:"expected_conversion_prob"`
}

// ID returns the lead's record identifier.
func (l ScoredLead) ID() string {
	return l.Record.ID
}

// Vertical returns the lead's classified vertical.
func (l ScoredLead) Vertical() Vertical {
	return l.Features.Vertical
}

// CompareLeads orders leads by score descending, then identifier
// ascending. It is the ranking order used everywhere leads are sorted.
func CompareLeads(a, b ScoredLead) int {
	if a.Score != b.Score {
		if a.Score > b.Score {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Record.ID, b.Record.ID)
}
