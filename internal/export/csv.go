package export

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/fetcher"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// WriteLeadsCSV writes leads with a LeadColumns header, in the order given.
func WriteLeadsCSV(w io.Writer, leads []model.ScoredLead) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(LeadColumns); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, l := range leads {
		if err := cw.Write(leadRow(l)); err != nil {
			return eris.Wrapf(err, "export: write lead %s", l.ID())
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// ParseLeadsCSV reads a file produced by WriteLeadsCSV. Columns may appear
// in any order; identifier, lead_score and score_breakdown are required.
func ParseLeadsCSV(ctx context.Context, r io.Reader) ([]model.ScoredLead, error) {
	header, rows, err := fetcher.ReadCSVTable(ctx, r)
	if err != nil {
		return nil, eris.Wrap(err, "export: read leads csv")
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	for _, col := range []string{"identifier", "lead_score", "score_breakdown"} {
		if _, ok := idx[col]; !ok {
			return nil, eris.Errorf("export: leads csv missing column %s", col)
		}
	}

	leads := make([]model.ScoredLead, 0, len(rows))
	for i, row := range rows {
		l, err := parseLeadRow(idx, row)
		if err != nil {
			return nil, eris.Wrapf(err, "export: leads csv row %d", i+2)
		}
		leads = append(leads, l)
	}
	return leads, nil
}
