package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// VerticalSummary aggregates the exported leads of one vertical.
type VerticalSummary struct {
	Vertical       model.Vertical
	Leads          int
	AvgScore       float64
	Urgent         int // High or Critical
	OnCompetitor   int
	AvgRating      float64
	TotalReviews   int
	SLADays        int
	PriorityCats   []string
	PriorityCatHit int // leads whose tags mention a priority category
}

// Summarize computes per-vertical summaries in vertical order. Verticals
// without leads are skipped.
func Summarize(segments map[model.Vertical][]model.ScoredLead, rules map[model.Vertical]config.VerticalRule) []VerticalSummary {
	var out []VerticalSummary
	for _, v := range model.Verticals {
		leads := segments[v]
		if len(leads) == 0 {
			continue
		}
		rule := rules[v]
		s := VerticalSummary{
			Vertical:     v,
			Leads:        len(leads),
			SLADays:      rule.SLADays,
			PriorityCats: rule.PriorityCategories,
		}
		var scoreSum, ratingSum float64
		for _, l := range leads {
			scoreSum += float64(l.Score)
			ratingSum += l.Record.Rating
			s.TotalReviews += l.Record.ReviewCount
			if l.Priority.Urgent() {
				s.Urgent++
			}
			if l.Features.OnPlatformA || l.Features.OnPlatformB {
				s.OnCompetitor++
			}
			if mentionsAny(l.Record.CategoryTags, rule.PriorityCategories) {
				s.PriorityCatHit++
			}
		}
		s.AvgScore = scoreSum / float64(len(leads))
		s.AvgRating = ratingSum / float64(len(leads))
		out = append(out, s)
	}
	return out
}

// WriteSummary writes the weekly sales summary text.
func WriteSummary(w io.Writer, summaries []VerticalSummary, generated time.Time) error {
	p := message.NewPrinter(language.English)
	upper := cases.Upper(language.English)
	rule := strings.Repeat("=", 70)
	year, week := generated.ISOWeek()

	total := 0
	for _, s := range summaries {
		total += s.Leads
	}

	var b strings.Builder
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "WEEKLY LEADS GENERATION SUMMARY")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Generated: %s\n", generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Week: %d, %d\n", week, year)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b)
	p.Fprintf(&b, "Total Leads: %d\n\n", total)

	for _, s := range summaries {
		fmt.Fprintln(&b, upper.String(string(s.Vertical)))
		p.Fprintf(&b, "  Leads: %d\n", s.Leads)
		fmt.Fprintf(&b, "  Avg Score: %.1f\n", s.AvgScore)
		fmt.Fprintf(&b, "  High/Critical Priority: %d (%.1f%%)\n", s.Urgent, pct(s.Urgent, s.Leads))
		fmt.Fprintf(&b, "  On Competitor Platform: %d (%.1f%%)\n", s.OnCompetitor, pct(s.OnCompetitor, s.Leads))
		fmt.Fprintf(&b, "  Average Rating: %.2f\n", s.AvgRating)
		p.Fprintf(&b, "  Total Reviews: %d\n", s.TotalReviews)
		fmt.Fprintf(&b, "  Contact SLA: %d days\n", s.SLADays)
		if len(s.PriorityCats) > 0 {
			fmt.Fprintf(&b, "  Priority Categories (%s): %d\n", strings.Join(s.PriorityCats, ", "), s.PriorityCatHit)
		}
		fmt.Fprintln(&b)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return eris.Wrap(err, "export: write summary")
	}
	return nil
}

func pct(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return 100 * float64(n) / float64(of)
}

func mentionsAny(tags, cats []string) bool {
	if len(cats) == 0 {
		return false
	}
	joined := strings.ToLower(strings.Join(tags, ","))
	for _, c := range cats {
		if c != "" && strings.Contains(joined, strings.ToLower(c)) {
			return true
		}
	}
	return false
}
