package scorer

import (
	"time"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// Score computes the additive lead score for one featured record. Factors
// are evaluated in model.FactorOrder and only contributing factors appear
// in the breakdown. No clamping is applied.
func Score(rec model.Featured, m config.ModelConfig) model.ScoredLead {
	f := rec.Features
	w := m.Weights
	b := model.Breakdown{}

	if f.OnPlatformA || f.OnPlatformB {
		b[model.FactorCompetitorPlatform] = w.CompetitorPlatform
	}

	// Review volume always contributes exactly one branch.
	b[model.FactorReviewVolume] = reviewPoints(rec.Record.ReviewCount, m)

	if f.HighDemandCategory {
		b[model.FactorHighDemandCategory] = w.HighDemandCategory
	}
	if f.UrbanLocation {
		b[model.FactorUrbanLocation] = w.UrbanLocation
	}
	if f.HighRating {
		b[model.FactorHighRating] = w.HighRating
	}
	if f.IsAffordable {
		b[model.FactorAffordablePrice] = w.AffordablePrice
	}

	total := b.Sum()
	priority := PriorityFor(total, m.PriorityEdges)

	return model.ScoredLead{
		Record:             rec.Record,
		Features:           f,
		Score:              total,
		Breakdown:          b,
		Priority:           priority,
		ContactBy:          ContactBy(rec.Record.CollectedAt, priority, m.SLADays),
		ExpectedConversion: ConversionProbability(rec),
	}
}

// reviewPoints uses strict greater-than against the review edges, so a
// count sitting exactly on an edge earns the lower tier.
func reviewPoints(count int, m config.ModelConfig) int {
	w := m.Weights
	edges := m.ReviewEdges
	switch {
	case count > edges[2]:
		return w.ReviewCountHigh
	case count > edges[1]:
		return w.ReviewCountMedium
	case count > edges[0]:
		return w.ReviewCountLow
	default:
		return w.ReviewCountBase
	}
}

// PriorityFor maps a score to its tier. edges holds len(model.Priorities)+1
// ascending values; tier i covers (edges[i], edges[i+1]] except the lowest,
// which is closed at edges[0]. Scores above the top edge are Critical.
func PriorityFor(score int, edges []int) model.Priority {
	for i := 1; i < len(edges) && i <= len(model.Priorities); i++ {
		if score <= edges[i] {
			return model.Priorities[i-1]
		}
	}
	return model.PriorityCritical
}

// ContactBy returns the contact deadline: the collection date in UTC,
// truncated to midnight, plus the SLA offset for the priority.
func ContactBy(collected time.Time, p model.Priority, sla map[model.Priority]int) time.Time {
	c := collected.UTC()
	day := time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, sla[p])
}

// ConversionProbability is a validation-only estimate of how likely a lead
// is to convert. It is never used to compute Score or Priority.
func ConversionProbability(rec model.Featured) float64 {
	p := 0.12
	if rec.Features.OnPlatformA {
		p += 0.15
	}
	if rec.Features.HighDemandCategory {
		p += 0.10
	}
	if rec.Record.ReviewCount > 200 {
		p += 0.08
	}
	if rec.Features.HighRating {
		p += 0.05
	}
	return min(max(p, 0), 1)
}
