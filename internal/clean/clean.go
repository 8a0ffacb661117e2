// Package clean normalizes raw business records into CleanedRecords.
package clean

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Numeric domains. Values outside are clamped, never rejected.
const (
	maxRating     = 5.0
	maxPriceLevel = 4
)

// Clean normalizes raw records. Only records without a usable identifier
// are dropped: a blank identifier, or one already seen earlier in the
// batch. Everything else degrades to defaults. Input order is preserved.
func Clean(records []model.BusinessRecord) []model.CleanedRecord {
	log := zap.L().With(zap.String("stage", "clean"))

	out := make([]model.CleanedRecord, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for i, r := range records {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			log.Debug("dropping record without identifier", zap.Int("row", i))
			continue
		}
		if _, dup := seen[id]; dup {
			log.Debug("dropping duplicate identifier", zap.Int("row", i), zap.String("id", id))
			continue
		}
		seen[id] = struct{}{}

		city, region := SplitLocation(r.SourceLocation)

		out = append(out, model.CleanedRecord{
			ID:           id,
			Name:         strings.TrimSpace(r.Name),
			Address:      strings.TrimSpace(r.Address),
			Phone:        strings.TrimSpace(r.Phone),
			Website:      strings.TrimSpace(r.Website),
			Rating:       rating(r.Rating),
			ReviewCount:  reviewCount(r.ReviewCount),
			PriceLevel:   priceLevel(r.PriceLevel),
			CategoryTags: tags(r.CategoryTags),
			City:         city,
			Region:       region,
			Latitude:     coord(r.Latitude),
			Longitude:    coord(r.Longitude),
			CollectedAt:  r.CollectedAt,
		})
	}

	if dropped := len(records) - len(out); dropped > 0 {
		log.Info("cleaned records", zap.Int("kept", len(out)), zap.Int("dropped", dropped))
	}
	return out
}

// SplitLocation splits "City, Region" on the first comma. Without a comma
// the region is empty.
func SplitLocation(loc string) (city, region string) {
	before, after, found := strings.Cut(loc, ",")
	if !found {
		return strings.TrimSpace(loc), ""
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}

func rating(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return 0
	}
	return math.Min(math.Max(*v, 0), maxRating)
}

func reviewCount(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

func priceLevel(v *int) int {
	if v == nil {
		return 0
	}
	return min(max(*v, 0), maxPriceLevel)
}

func coord(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	c := *v
	return &c
}

func tags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
