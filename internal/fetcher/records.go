package fetcher

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Canonical raw input columns.
const (
	ColIdentifier     = "identifier"
	ColName           = "name"
	ColAddress        = "address"
	ColPhone          = "phone"
	ColRating         = "rating"
	ColReviewCount    = "review_count"
	ColPriceLevel     = "price_level"
	ColCategoryTags   = "category_tags"
	ColWebsite        = "website"
	ColSourceLocation = "source_location"
	ColLatitude       = "latitude"
	ColLongitude      = "longitude"
	ColCollectedAt    = "collected_at"
)

// columnAliases maps accepted header spellings to canonical columns.
var columnAliases = map[string]string{
	"place_id":             ColIdentifier,
	"id":                   ColIdentifier,
	"user_ratings_total":   ColReviewCount,
	"types":                ColCategoryTags,
	"lat":                  ColLatitude,
	"lng":                  ColLongitude,
	"fetched_at":           ColCollectedAt,
	"collection_timestamp": ColCollectedAt,
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ReadRecords loads raw business records from a .csv or .xlsx file.
func ReadRecords(ctx context.Context, path string) ([]model.BusinessRecord, error) {
	var (
		header []string
		rows   [][]string
		err    error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		header, rows, err = ReadXLSXTable(path, XLSXOptions{})
	case ".csv", "":
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, eris.Wrapf(openErr, "fetcher: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		header, rows, err = ReadCSVTable(ctx, f)
	default:
		return nil, eris.Errorf("fetcher: unsupported input format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return ParseRecords(header, rows)
}

// ParseRecords maps a header and data rows to BusinessRecords. The
// identifier column is required; every other column is optional. Cell
// values that fail to parse degrade to "absent".
func ParseRecords(header []string, rows [][]string) ([]model.BusinessRecord, error) {
	idx := indexHeader(header)
	if _, ok := idx[ColIdentifier]; !ok {
		return nil, eris.Errorf("fetcher: input has no %s column (header: %s)", ColIdentifier, strings.Join(header, ","))
	}

	log := zap.L().With(zap.String("stage", "fetch"))
	out := make([]model.BusinessRecord, 0, len(rows))
	for i, row := range rows {
		get := func(col string) string {
			j, ok := idx[col]
			if !ok || j >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[j])
		}

		rec := model.BusinessRecord{
			ID:             get(ColIdentifier),
			Name:           get(ColName),
			Address:        get(ColAddress),
			Phone:          get(ColPhone),
			Website:        get(ColWebsite),
			Rating:         parseFloat(get(ColRating)),
			ReviewCount:    parseInt(get(ColReviewCount)),
			PriceLevel:     parseInt(get(ColPriceLevel)),
			CategoryTags:   SplitTags(get(ColCategoryTags)),
			SourceLocation: get(ColSourceLocation),
			Latitude:       parseFloat(get(ColLatitude)),
			Longitude:      parseFloat(get(ColLongitude)),
			CollectedAt:    ParseTimestamp(get(ColCollectedAt)),
		}
		if raw := get(ColCollectedAt); raw != "" && rec.CollectedAt.IsZero() {
			log.Debug("unparseable collection timestamp", zap.Int("row", i+2), zap.String("value", raw))
		}
		out = append(out, rec)
	}
	return out, nil
}

// SplitTags splits a category cell on "|" when present, otherwise on ",".
func SplitTags(s string) []string {
	if s == "" {
		return nil
	}
	sep := ","
	if strings.Contains(s, "|") {
		sep = "|"
	}
	var tags []string
	for _, t := range strings.Split(s, sep) {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// ParseTimestamp accepts RFC 3339, zone-less ISO 8601, and plain dates.
// Zone-less values are read as UTC. Unparseable input yields the zero time.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func indexHeader(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if canon, ok := columnAliases[key]; ok {
			key = canon
		}
		// First occurrence wins when a file carries both a column and its alias.
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	return &v
}

// parseInt also accepts integral floats like "600.0". Values beyond the
// int range saturate at its bounds.
func parseInt(s string) *int {
	f := parseFloat(s)
	if f == nil || math.IsInf(*f, 0) {
		return nil
	}
	var v int
	switch r := math.Round(*f); {
	case r >= math.MaxInt:
		v = math.MaxInt
	case r <= math.MinInt:
		v = math.MinInt
	default:
		v = int(r)
	}
	return &v
}
