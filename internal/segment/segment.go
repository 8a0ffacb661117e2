// Package segment partitions scored leads by vertical, filters them by the
// vertical's minimum score, ranks them, and caps each vertical at its
// target count.
package segment

import (
	"slices"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// MissingRuleError is returned when a lead's vertical has no rule.
type MissingRuleError struct {
	Vertical model.Vertical
}

func (e *MissingRuleError) Error() string {
	return "segment: no rule for vertical " + string(e.Vertical)
}

// Segment applies the vertical rules to leads. Leads are ranked by score
// descending with identifier ascending as the tie-break, then truncated to
// the rule's target count. Verticals with no surviving leads are omitted.
// leads is not modified.
//
// Segment is idempotent: segmenting Flatten of its own output with the same
// rules returns the same result.
func Segment(leads []model.ScoredLead, rules map[model.Vertical]config.VerticalRule) (map[model.Vertical][]model.ScoredLead, error) {
	groups := map[model.Vertical][]model.ScoredLead{}
	for _, l := range leads {
		v := l.Vertical()
		rule, ok := rules[v]
		if !ok {
			return nil, eris.Wrap(&MissingRuleError{Vertical: v}, "segment: partition")
		}
		if l.Score >= rule.MinScore {
			groups[v] = append(groups[v], l)
		}
	}

	out := make(map[model.Vertical][]model.ScoredLead, len(groups))
	for v, g := range groups {
		slices.SortFunc(g, model.CompareLeads)
		if n := rules[v].TargetCount; len(g) > n {
			g = g[:n]
		}
		if len(g) > 0 {
			out[v] = g
		}
	}
	return out, nil
}

// Flatten concatenates segmented leads in global rank order.
func Flatten(segments map[model.Vertical][]model.ScoredLead) []model.ScoredLead {
	var n int
	for _, g := range segments {
		n += len(g)
	}
	out := make([]model.ScoredLead, 0, n)
	for _, v := range model.Verticals {
		out = append(out, segments[v]...)
	}
	slices.SortFunc(out, model.CompareLeads)
	return out
}

// Counts returns the number of leads per vertical.
func Counts(segments map[model.Vertical][]model.ScoredLead) map[model.Vertical]int {
	out := make(map[model.Vertical]int, len(segments))
	for v, g := range segments {
		out[v] = len(g)
	}
	return out
}
