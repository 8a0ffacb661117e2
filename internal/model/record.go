// Package model defines the typed records that flow through the lead pipeline.
package model

import "time"

// BusinessRecord is a raw business listing as delivered by the acquisition
// collaborator. Optional numeric fields are nil when the source had no value.
type BusinessRecord struct {
	ID             string    `json:"identifier"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	Phone          string    `json:"phone"`
	Website        string    `json:"website"`
	Rating         *float64  `json:"rating,omitempty"`
	ReviewCount    *int      `json:"review_count,omitempty"`
	PriceLevel     *int      `json:"price_level,omitempty"`
	CategoryTags   []string  `json:"category_tags"`
	SourceLocation string    `json:"source_location"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	CollectedAt    time.Time `json:"collected_at"`
}

// CleanedRecord is a BusinessRecord with every numeric field defaulted and
// the source location split into city and region.
type CleanedRecord struct {
	ID           string    `json:"identifier"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`
	Website      string    `json:"website"`
	Rating       float64   `json:"rating"`
	ReviewCount  int       `json:"review_count"`
	PriceLevel   int       `json:"price_level"`
	CategoryTags []string  `json:"category_tags"`
	City         string    `json:"city"`
	Region       string    `json:"region"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	CollectedAt  time.Time `json:"collected_at"`
}

// Presence reports whether a business is listed on the two tracked
// competitor delivery platforms.
type Presence struct {
	PlatformA bool `json:"on_platform_a"`
	PlatformB bool `json:"on_platform_b"`
}

// Any reports whether the business is on at least one platform.
func (p Presence) Any() bool {
	return p.PlatformA || p.PlatformB
}

// FeatureSet holds the derived signals used by scoring.
type FeatureSet struct {
	HighDemandCategory bool         `json:"high_demand_category"`
	ReviewVolume       ReviewBucket `json:"review_volume_bucket"`
	IsAffordable       bool         `json:"is_affordable"`
	HighRating         bool         `json:"high_rating"`
	UrbanLocation      bool         `json:"urban_location"`
	OnPlatformA        bool         `json:"on_competitor_platform_a"`
	OnPlatformB        bool         `json:"on_competitor_platform_b"`
	Vertical           Vertical     `json:"vertical"`
}

// Featured pairs a cleaned record with its derived features.
type Featured struct {
	Record   CleanedRecord `json:"record"`
	Features FeatureSet    `json:"features"`
}
