package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Vertical is a business-type segment with its own thresholds and quotas.
type Vertical string

const (
	VerticalRestaurants Vertical = "restaurants"
	VerticalGrocery     Vertical = "grocery"
	VerticalRetail      Vertical = "retail"
	VerticalOther       Vertical = "other"
)

// Verticals lists every vertical in classification priority order, with
// Other last.
var Verticals = []Vertical{VerticalRestaurants, VerticalGrocery, VerticalRetail, VerticalOther}

// ParseVertical converts a case-insensitive name to a Vertical.
func ParseVertical(s string) (Vertical, error) {
	v := Vertical(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Verticals {
		if v == known {
			return v, nil
		}
	}
	return "", eris.Errorf("model: unknown vertical %q", s)
}

// ReviewBucket classifies review volume.
type ReviewBucket string

const (
	ReviewVeryLow ReviewBucket = "Very Low"
	ReviewLow     ReviewBucket = "Low"
	ReviewMedium  ReviewBucket = "Medium"
	ReviewHigh    ReviewBucket = "High"
)

// ReviewBuckets lists buckets from lowest to highest volume.
var ReviewBuckets = []ReviewBucket{ReviewVeryLow, ReviewLow, ReviewMedium, ReviewHigh}

// ParseReviewBucket converts a bucket label back to a ReviewBucket.
func ParseReviewBucket(s string) (ReviewBucket, error) {
	for _, b := range ReviewBuckets {
		if strings.EqualFold(string(b), strings.TrimSpace(s)) {
			return b, nil
		}
	}
	return "", eris.Errorf("model: unknown review bucket %q", s)
}

// Priority is the contact urgency tier derived from the score.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// Priorities lists tiers from lowest to highest. Priority bin edges are
// indexed in the same order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// ParsePriority converts a tier label back to a Priority.
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return "", eris.Errorf("model: unknown priority %q", s)
}

// Urgent reports whether the tier is High or Critical.
func (p Priority) Urgent() bool {
	return p == PriorityHigh || p == PriorityCritical
}
