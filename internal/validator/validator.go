// Package validator computes distribution diagnostics for a scored lead
// set and flags statistical weaknesses in the scoring model. It never
// mutates leads and never fails on data quality.
package validator

import (
	"fmt"
	"math"
	"slices"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// Warning codes.
const (
	WarnLowCorrelation = "low_correlation"
	WarnDegenerate     = "degenerate_distribution"
	WarnOutOfRange     = "score_out_of_range"
)

// maxScore is the nominal upper bound of a well-configured model.
const maxScore = 100

// Warning is a non-fatal model-health finding.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return w.Code + ": " + w.Message
}

// VerticalStats summarizes the leads of one vertical.
type VerticalStats struct {
	Vertical  model.Vertical `json:"vertical"`
	Count     int            `json:"count"`
	MeanScore float64        `json:"mean_score"`
	// PriorityPct holds the share of each tier in percent. Tiers with no
	// leads are present with 0.
	PriorityPct map[model.Priority]float64 `json:"priority_pct"`
}

// Report is the outcome of Validate.
type Report struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`

	Top []model.ScoredLead `json:"top"`

	// Correlation is Pearson's r between score and the conversion
	// diagnostic. It is only meaningful when CorrelationDefined is true.
	Correlation          float64 `json:"correlation"`
	CorrelationDefined   bool    `json:"correlation_defined"`
	CorrelationThreshold float64 `json:"correlation_threshold"`

	Verticals []VerticalStats `json:"verticals"`
	Warnings  []Warning       `json:"warnings,omitempty"`
}

// HasWarning reports whether the report carries a warning with code.
func (r *Report) HasWarning(code string) bool {
	for _, w := range r.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// Validate computes the report for leads using the model's validation
// options. leads is not modified.
func Validate(leads []model.ScoredLead, opts config.ValidationConfig) *Report {
	r := &Report{Count: len(leads), CorrelationThreshold: opts.CorrelationThreshold}

	if len(leads) == 0 {
		r.warn(WarnDegenerate, "no leads to validate")
		return r
	}

	scores := make([]float64, len(leads))
	conv := make([]float64, len(leads))
	r.Min, r.Max = leads[0].Score, leads[0].Score
	for i, l := range leads {
		scores[i] = float64(l.Score)
		conv[i] = l.ExpectedConversion
		r.Min = min(r.Min, l.Score)
		r.Max = max(r.Max, l.Score)
	}

	r.Mean = mean(scores)
	r.Median = median(scores)
	r.StdDev = stdDev(scores, r.Mean)
	r.Top = TopN(leads, opts.TopN)
	r.Verticals = byVertical(leads)

	if r.Max > maxScore || r.Min < 0 {
		n := 0
		for _, l := range leads {
			if l.Score > maxScore || l.Score < 0 {
				n++
			}
		}
		r.warn(WarnOutOfRange, fmt.Sprintf("%d lead(s) scored outside [0, %d]; max=%d", n, maxScore, r.Max))
	}

	if len(leads) < 2 {
		r.warn(WarnDegenerate, "fewer than two leads")
		return r
	}
	if r.StdDev == 0 {
		r.warn(WarnDegenerate, fmt.Sprintf("all leads scored %d", r.Min))
		return r
	}

	corr, ok := pearson(scores, conv)
	if !ok {
		r.warn(WarnDegenerate, "score/conversion correlation is undefined")
		return r
	}
	r.Correlation = corr
	r.CorrelationDefined = true
	if corr < opts.CorrelationThreshold {
		r.warn(WarnLowCorrelation, fmt.Sprintf("correlation %.3f below threshold %.2f", corr, opts.CorrelationThreshold))
	}
	return r
}

func (r *Report) warn(code, msg string) {
	r.Warnings = append(r.Warnings, Warning{Code: code, Message: msg})
}

// TopN returns up to n leads ordered by score descending, identifier
// ascending. leads is not reordered.
func TopN(leads []model.ScoredLead, n int) []model.ScoredLead {
	sorted := slices.Clone(leads)
	slices.SortFunc(sorted, model.CompareLeads)
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

func byVertical(leads []model.ScoredLead) []VerticalStats {
	type acc struct {
		n     int
		sum   int
		tiers map[model.Priority]int
	}
	groups := map[model.Vertical]*acc{}
	for _, l := range leads {
		g, ok := groups[l.Vertical()]
		if !ok {
			g = &acc{tiers: map[model.Priority]int{}}
			groups[l.Vertical()] = g
		}
		g.n++
		g.sum += l.Score
		g.tiers[l.Priority]++
	}

	var out []VerticalStats
	for _, v := range model.Verticals {
		g, ok := groups[v]
		if !ok {
			continue
		}
		pct := make(map[model.Priority]float64, len(model.Priorities))
		for _, p := range model.Priorities {
			pct[p] = 100 * float64(g.tiers[p]) / float64(g.n)
		}
		out = append(out, VerticalStats{
			Vertical:    v,
			Count:       g.n,
			MeanScore:   float64(g.sum) / float64(g.n),
			PriorityPct: pct,
		})
	}
	return out
}

func mean(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

func median(xs []float64) float64 {
	s := slices.Clone(xs)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// stdDev is the sample standard deviation (n-1 denominator).
func stdDev(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// pearson returns false when either series has zero variance.
func pearson(xs, ys []float64) (float64, bool) {
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	return sxy / math.Sqrt(sxx*syy), true
}
