// Package export writes segmented leads to the files consumed by sales:
// per-vertical and combined CSVs, an XLSX workbook, a sales summary, and
// JSONL documents for an external search index.
package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// LeadColumns is the ordered lead table header.
var LeadColumns = []string{
	"identifier",
	"name",
	"address",
	"phone",
	"website",
	"rating",
	"review_count",
	"price_level",
	"category_tags",
	"city",
	"region",
	"latitude",
	"longitude",
	"collected_at",
	"high_demand_category",
	"review_volume_bucket",
	"is_affordable",
	"high_rating",
	"urban_location",
	"on_competitor_platform_a",
	"on_competitor_platform_b",
	"vertical",
	"lead_score",
	"score_breakdown",
	"priority",
	"contact_by",
	"expected_conversion_prob",
}

const (
	tagSeparator = '|'
	tagEscape    = '\\'
	dateLayout   = "2006-01-02"
)

// leadRow renders a lead in LeadColumns order.
func leadRow(l model.ScoredLead) []string {
	r, f := l.Record, l.Features
	return []string{
		r.ID,
		r.Name,
		r.Address,
		r.Phone,
		r.Website,
		formatFloat(r.Rating),
		strconv.Itoa(r.ReviewCount),
		strconv.Itoa(r.PriceLevel),
		joinTags(r.CategoryTags),
		r.City,
		r.Region,
		formatOptional(r.Latitude),
		formatOptional(r.Longitude),
		r.CollectedAt.UTC().Format(time.RFC3339Nano),
		strconv.FormatBool(f.HighDemandCategory),
		string(f.ReviewVolume),
		strconv.FormatBool(f.IsAffordable),
		strconv.FormatBool(f.HighRating),
		strconv.FormatBool(f.UrbanLocation),
		strconv.FormatBool(f.OnPlatformA),
		strconv.FormatBool(f.OnPlatformB),
		string(f.Vertical),
		strconv.Itoa(l.Score),
		l.Breakdown.String(),
		string(l.Priority),
		l.ContactBy.UTC().Format(dateLayout),
		formatFloat(l.ExpectedConversion),
	}
}

// parseLeadRow is the inverse of leadRow. idx maps column name to index.
func parseLeadRow(idx map[string]int, row []string) (model.ScoredLead, error) {
	p := rowParser{idx: idx, row: row}

	l := model.ScoredLead{
		Record: model.CleanedRecord{
			ID:           p.str("identifier"),
			Name:         p.str("name"),
			Address:      p.str("address"),
			Phone:        p.str("phone"),
			Website:      p.str("website"),
			Rating:       p.decimal("rating"),
			ReviewCount:  p.integer("review_count"),
			PriceLevel:   p.integer("price_level"),
			CategoryTags: p.tags("category_tags"),
			City:         p.str("city"),
			Region:       p.str("region"),
			Latitude:     p.optional("latitude"),
			Longitude:    p.optional("longitude"),
			CollectedAt:  p.timestamp("collected_at", time.RFC3339Nano),
		},
		Features: model.FeatureSet{
			HighDemandCategory: p.flag("high_demand_category"),
			IsAffordable:       p.flag("is_affordable"),
			HighRating:         p.flag("high_rating"),
			UrbanLocation:      p.flag("urban_location"),
			OnPlatformA:        p.flag("on_competitor_platform_a"),
			OnPlatformB:        p.flag("on_competitor_platform_b"),
		},
		Score:              p.integer("lead_score"),
		ContactBy:          p.timestamp("contact_by", dateLayout),
		ExpectedConversion: p.decimal("expected_conversion_prob"),
	}

	if s := p.str("review_volume_bucket"); s != "" {
		b, err := model.ParseReviewBucket(s)
		p.note(err)
		l.Features.ReviewVolume = b
	}
	v, err := model.ParseVertical(p.str("vertical"))
	p.note(err)
	l.Features.Vertical = v

	pr, err := model.ParsePriority(p.str("priority"))
	p.note(err)
	l.Priority = pr

	bd, err := model.ParseBreakdown(p.str("score_breakdown"))
	p.note(err)
	l.Breakdown = bd

	if p.err != nil {
		return model.ScoredLead{}, p.err
	}
	return l, nil
}

// rowParser keeps the first error so a row can be decoded in one pass.
type rowParser struct {
	idx map[string]int
	row []string
	err error
}

func (p *rowParser) note(err error) {
	if p.err == nil && err != nil {
		p.err = err
	}
}

func (p *rowParser) str(col string) string {
	j, ok := p.idx[col]
	if !ok || j >= len(p.row) {
		return ""
	}
	return p.row[j]
}

func (p *rowParser) integer(col string) int {
	s := p.str(col)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		p.note(eris.Wrapf(err, "export: column %s", col))
	}
	return n
}

func (p *rowParser) decimal(col string) float64 {
	s := p.str(col)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.note(eris.Wrapf(err, "export: column %s", col))
	}
	return f
}

func (p *rowParser) optional(col string) *float64 {
	if p.str(col) == "" {
		return nil
	}
	f := p.decimal(col)
	return &f
}

func (p *rowParser) flag(col string) bool {
	s := p.str(col)
	if s == "" {
		return false
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		p.note(eris.Wrapf(err, "export: column %s", col))
	}
	return b
}

func (p *rowParser) timestamp(col, layout string) time.Time {
	s := p.str(col)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		p.note(eris.Wrapf(err, "export: column %s", col))
	}
	return t
}

func (p *rowParser) tags(col string) []string {
	out := []string{}
	s := p.str(col)
	if s == "" {
		return out
	}
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
		}
		cur.Reset()
	}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == tagEscape && i+1 < len(s):
			i++
			cur.WriteByte(s[i])
		case c == tagSeparator:
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return out
}

// joinTags joins tags with "|", escaping "|" and backslash inside a tag with a
// backslash.
func joinTags(tags []string) string {
	var b strings.Builder
	for i, t := range tags {
		if i > 0 {
			b.WriteByte(tagSeparator)
		}
		for j := 0; j < len(t); j++ {
			if t[j] == tagSeparator || t[j] == tagEscape {
				b.WriteByte(tagEscape)
			}
			b.WriteByte(t[j])
		}
	}
	return b.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatOptional(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}
