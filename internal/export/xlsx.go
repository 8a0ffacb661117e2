package export

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// AllLeadsSheet is the name of the combined worksheet.
const AllLeadsSheet = "All Leads"

// WriteWorkbook saves an XLSX workbook with one sheet per non-empty
// vertical, in vertical order, followed by the combined sheet.
func WriteWorkbook(path string, segments map[model.Vertical][]model.ScoredLead, combined []model.ScoredLead) error {
	f := xlsx.NewFile()
	title := cases.Title(language.English)

	for _, v := range model.Verticals {
		leads := segments[v]
		if len(leads) == 0 {
			continue
		}
		if err := addLeadSheet(f, title.String(string(v)), leads); err != nil {
			return err
		}
	}
	if err := addLeadSheet(f, AllLeadsSheet, combined); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}
	return nil
}

func addLeadSheet(f *xlsx.File, name string, leads []model.ScoredLead) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", name)
	}

	header := sheet.AddRow()
	for _, col := range LeadColumns {
		header.AddCell().SetString(col)
	}

	for _, l := range leads {
		row := sheet.AddRow()
		for i, val := range leadRow(l) {
			cell := row.AddCell()
			switch LeadColumns[i] {
			case "lead_score", "review_count", "price_level":
				n, err := strconv.Atoi(val)
				if err != nil {
					return eris.Wrapf(err, "export: sheet %s column %s", name, LeadColumns[i])
				}
				cell.SetInt(n)
			default:
				cell.SetString(val)
			}
		}
	}
	return nil
}
