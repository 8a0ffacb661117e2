package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Document is one lead rendered for an external semantic index builder.
// No embedding is computed here.
type Document struct {
	ID       string           `json:"id"`
	Text     string           `json:"text"`
	Metadata DocumentMetadata `json:"metadata"`
}

// DocumentMetadata mirrors the lead's typed fields for index filtering.
type DocumentMetadata struct {
	Identifier  string         `json:"identifier"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	City        string         `json:"city"`
	Region      string         `json:"region"`
	LeadScore   int            `json:"lead_score"`
	Priority    model.Priority `json:"priority"`
	ReviewCount int            `json:"review_count"`
	Rating      float64        `json:"rating"`
	OnPlatformA bool           `json:"on_competitor_platform_a"`
	OnPlatformB bool           `json:"on_competitor_platform_b"`
	Vertical    model.Vertical `json:"vertical"`
	ContactBy   string         `json:"contact_by"`
}

// RenderDocument builds the fixed-format text and metadata for a lead.
func RenderDocument(l model.ScoredLead) Document {
	r := l.Record
	category := orNA(strings.Join(r.CategoryTags, ","))
	contact := l.ContactBy.UTC().Format(dateLayout)

	var b strings.Builder
	fmt.Fprintf(&b, "Business Name: %s\n", r.Name)
	fmt.Fprintf(&b, "Category: %s\n", category)
	fmt.Fprintf(&b, "Location: %s, %s\n", r.City, r.Region)
	fmt.Fprintf(&b, "Address: %s\n", orNA(r.Address))
	fmt.Fprintf(&b, "Phone: %s\n", orNA(r.Phone))
	fmt.Fprintf(&b, "Website: %s\n", orNA(r.Website))
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Lead Score: %d/100\n", l.Score)
	fmt.Fprintf(&b, "Priority: %s\n", l.Priority)
	fmt.Fprintf(&b, "Score Breakdown: %s\n", l.Breakdown)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Review Count: %d\n", r.ReviewCount)
	fmt.Fprintf(&b, "Average Rating: %.1f/5.0\n", r.Rating)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "Competitor Platform Status:")
	fmt.Fprintf(&b, "- On Platform A: %s\n", yesNo(l.Features.OnPlatformA))
	fmt.Fprintf(&b, "- On Platform B: %s\n", yesNo(l.Features.OnPlatformB))
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Contact By Date: %s\n", contact)
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "This is a %s priority lead in the %s vertical (%s) located in %s. ",
		strings.ToLower(string(l.Priority)), l.Vertical(), category, r.City)
	fmt.Fprintf(&b, "The business has %d reviews with an average rating of %.1f stars.\n", r.ReviewCount, r.Rating)

	return Document{
		ID:   r.ID,
		Text: b.String(),
		Metadata: DocumentMetadata{
			Identifier:  r.ID,
			Name:        r.Name,
			Category:    category,
			City:        r.City,
			Region:      r.Region,
			LeadScore:   l.Score,
			Priority:    l.Priority,
			ReviewCount: r.ReviewCount,
			Rating:      r.Rating,
			OnPlatformA: l.Features.OnPlatformA,
			OnPlatformB: l.Features.OnPlatformB,
			Vertical:    l.Vertical(),
			ContactBy:   contact,
		},
	}
}

// WriteDocuments writes one JSON document per line.
func WriteDocuments(w io.Writer, leads []model.ScoredLead) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, l := range leads {
		if err := enc.Encode(RenderDocument(l)); err != nil {
			return eris.Wrapf(err, "export: encode document %s", l.ID())
		}
	}
	return nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
