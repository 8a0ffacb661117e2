package fetcher

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/clean"
)

const placesCSV = `place_id,name,address,phone,rating,user_ratings_total,price_level,types,website,source_location,lat,lng,fetched_at
p1,Tony's Pizza,"1 Main St",555-0100,4.6,612,1,"pizza_restaurant,restaurant,food",https://tonys.example,"San Francisco, CA",37.8,-122.4,2024-06-01T18:45:00.123456
p2,Corner Mart,,,,,,convenience_store|store,,Chicago,,,2024-06-02
p3,Bad Numbers,,,five,lots,?,,,"Austin, TX",,,not a date
`

func TestParseRecords_Aliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.csv")
	require.NoError(t, os.WriteFile(path, []byte(placesCSV), 0o644))

	recs, err := ReadRecords(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	r := recs[0]
	assert.Equal(t, "p1", r.ID)
	assert.Equal(t, "Tony's Pizza", r.Name)
	assert.Equal(t, "1 Main St", r.Address)
	require.NotNil(t, r.Rating)
	assert.InDelta(t, 4.6, *r.Rating, 1e-9)
	require.NotNil(t, r.ReviewCount)
	assert.Equal(t, 612, *r.ReviewCount)
	assert.Equal(t, 1, *r.PriceLevel)
	assert.Equal(t, []string{"pizza_restaurant", "restaurant", "food"}, r.CategoryTags)
	assert.Equal(t, "San Francisco, CA", r.SourceLocation)
	assert.InDelta(t, -122.4, *r.Longitude, 1e-9)
	assert.Equal(t, time.Date(2024, 6, 1, 18, 45, 0, 123456000, time.UTC), r.CollectedAt)

	r = recs[1]
	assert.Nil(t, r.Rating)
	assert.Nil(t, r.ReviewCount)
	assert.Nil(t, r.PriceLevel)
	assert.Equal(t, []string{"convenience_store", "store"}, r.CategoryTags)
	assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), r.CollectedAt)

	r = recs[2]
	assert.Nil(t, r.Rating, "unparseable values degrade to absent")
	assert.Nil(t, r.ReviewCount)
	assert.Nil(t, r.PriceLevel)
	assert.True(t, r.CollectedAt.IsZero())
}

func TestParseRecords_CanonicalHeaderAndShortRows(t *testing.T) {
	header := []string{"Identifier", "Review_Count", "category_tags", "collected_at"}
	rows := [][]string{
		{"a", "600.0", "grocery", "2024-01-02T03:04:05Z"},
		{"b"},
	}

	recs, err := ParseRecords(header, rows)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 600, *recs[0].ReviewCount)
	assert.Equal(t, []string{"grocery"}, recs[0].CategoryTags)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), recs[0].CollectedAt.UTC())
	assert.Equal(t, "b", recs[1].ID)
	assert.Nil(t, recs[1].ReviewCount)
	assert.Empty(t, recs[1].CategoryTags)
}

func TestParseRecords_OverflowingNumbersClamp(t *testing.T) {
	tests := []struct {
		name        string
		price       string
		reviews     string
		wantPrice   int
		wantReviews int
	}{
		{"huge", "1e20", "1e20", 4, math.MaxInt},
		{"huge negative", "-1e20", "-1e20", 0, 0},
		{"in range", "2", "15", 2, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := ParseRecords(
				[]string{"identifier", "price_level", "review_count"},
				[][]string{{"a", tt.price, tt.reviews}},
			)
			require.NoError(t, err)
			require.Len(t, recs, 1)

			cleaned := clean.Clean(recs)
			require.Len(t, cleaned, 1)
			assert.Equal(t, tt.wantPrice, cleaned[0].PriceLevel)
			assert.Equal(t, tt.wantReviews, cleaned[0].ReviewCount)
		})
	}
}

func TestParseInt_Saturates(t *testing.T) {
	assert.Equal(t, math.MaxInt, *parseInt("1e20"))
	assert.Equal(t, math.MinInt, *parseInt("-1e20"))
	assert.Equal(t, 3, *parseInt("2.6"))
	assert.Nil(t, parseInt("1e400"))
}

func TestParseRecords_MissingIdentifierColumn(t *testing.T) {
	_, err := ParseRecords([]string{"name", "rating"}, [][]string{{"x", "4"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no identifier column")
}

func TestReadRecords_XLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"id", "name", "rating", "types", "source_location"},
			{"x1", "Sushi Go", "4.2", "sushi|restaurant", "Seattle, WA"},
		},
	})

	recs, err := ReadRecords(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "x1", recs[0].ID)
	assert.Equal(t, []string{"sushi", "restaurant"}, recs[0].CategoryTags)
	assert.InDelta(t, 4.2, *recs[0].Rating, 1e-9)
}

func TestReadRecords_Errors(t *testing.T) {
	_, err := ReadRecords(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetcher: open")

	_, err = ReadRecords(context.Background(), "leads.parquet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported input format")
}

func TestSplitTags(t *testing.T) {
	assert.Nil(t, SplitTags(""))
	assert.Equal(t, []string{"a", "b"}, SplitTags(" a , b ,"))
	assert.Equal(t, []string{"a,b", "c"}, SplitTags("a,b|c"))
}

func TestParseTimestamp(t *testing.T) {
	assert.Equal(t, time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC), ParseTimestamp("2024-03-04 05:06:07"))
	assert.Equal(t, time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC), ParseTimestamp("2024-03-04T05:06:07"))
	assert.True(t, ParseTimestamp("").IsZero())
	assert.True(t, ParseTimestamp("yesterday").IsZero())
}
