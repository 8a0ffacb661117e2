package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
)

const timestampLayout = "20060102_150405"

// Options selects the optional artifacts. Per-vertical and combined CSVs
// are always written.
type Options struct {
	XLSX      bool
	Summary   bool
	Documents bool
}

// Manifest lists the files produced by one export.
type Manifest struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
	Leads int      `json:"leads"`
}

// Exporter writes a run's segments into an output directory. Files are
// staged in a hidden directory under dir and renamed into place only after
// every artifact was written, so a failed export leaves no partial set.
type Exporter struct {
	dir   string
	rules map[model.Vertical]config.VerticalRule
	opts  Options
}

// NewExporter creates an Exporter targeting dir.
func NewExporter(dir string, rules map[model.Vertical]config.VerticalRule, opts Options) *Exporter {
	return &Exporter{dir: dir, rules: rules, opts: opts}
}

// Export writes every enabled artifact for the given segments. combined
// must be the ranked concatenation of all segments.
func (e *Exporter) Export(ctx context.Context, segments map[model.Vertical][]model.ScoredLead, combined []model.ScoredLead, generated time.Time) (*Manifest, error) {
	log := zap.L().With(zap.String("stage", "export"), zap.String("dir", e.dir))

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "export: create output dir")
	}
	staging, err := os.MkdirTemp(e.dir, ".staging-")
	if err != nil {
		return nil, eris.Wrap(err, "export: create staging dir")
	}
	defer os.RemoveAll(staging) //nolint:errcheck

	names, err := e.stage(ctx, staging, segments, combined, generated)
	if err != nil {
		return nil, err
	}

	m := &Manifest{Dir: e.dir, Leads: len(combined)}
	for _, name := range names {
		dst := filepath.Join(e.dir, name)
		if err := os.Rename(filepath.Join(staging, name), dst); err != nil {
			for _, moved := range m.Files {
				if rmErr := os.Remove(moved); rmErr != nil {
					log.Warn("remove partially exported file", zap.String("file", moved), zap.Error(rmErr))
				}
			}
			return nil, eris.Wrapf(err, "export: move %s into place", name)
		}
		m.Files = append(m.Files, dst)
	}

	log.Info("export complete", zap.Int("files", len(m.Files)), zap.Int("leads", m.Leads))
	return m, nil
}

func (e *Exporter) stage(ctx context.Context, staging string, segments map[model.Vertical][]model.ScoredLead, combined []model.ScoredLead, generated time.Time) ([]string, error) {
	ts := generated.Format(timestampLayout)
	year, week := generated.ISOWeek()
	var names []string

	write := func(name string, fn func(io.Writer) error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(staging, name), fn); err != nil {
			return err
		}
		names = append(names, name)
		return nil
	}

	for _, v := range model.Verticals {
		leads := segments[v]
		if len(leads) == 0 {
			continue
		}
		name := VerticalFileName(v, generated)
		if err := write(name, func(w io.Writer) error { return WriteLeadsCSV(w, leads) }); err != nil {
			return nil, err
		}
	}

	if err := write(fmt.Sprintf("all_leads_combined_%s.csv", ts), func(w io.Writer) error {
		return WriteLeadsCSV(w, combined)
	}); err != nil {
		return nil, err
	}

	if e.opts.Summary {
		summaries := Summarize(segments, e.rules)
		name := fmt.Sprintf("sales_summary_week%02d_%d_%s.txt", week, year, ts)
		if err := write(name, func(w io.Writer) error { return WriteSummary(w, summaries, generated) }); err != nil {
			return nil, err
		}
	}

	if e.opts.Documents {
		name := fmt.Sprintf("lead_documents_%s.jsonl", ts)
		if err := write(name, func(w io.Writer) error { return WriteDocuments(w, combined) }); err != nil {
			return nil, err
		}
	}

	if e.opts.XLSX {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := fmt.Sprintf("leads_week%02d_%d_%s.xlsx", week, year, ts)
		if err := WriteWorkbook(filepath.Join(staging, name), segments, combined); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, nil
}

// VerticalFileName returns the per-vertical CSV name for a run time.
func VerticalFileName(v model.Vertical, generated time.Time) string {
	year, week := generated.ISOWeek()
	return fmt.Sprintf("%s_leads_week%02d_%d_%s.csv", v, week, year, generated.Format(timestampLayout))
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", filepath.Base(path))
	}
	if err := fn(f); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "export: close %s", filepath.Base(path))
	}
	return nil
}
