package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Re-run model validation on an exported leads CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("leads")
		format, _ := cmd.Flags().GetString("format")
		strict, _ := cmd.Flags().GetBool("strict")
		if cmd.Flags().Changed("model") {
			cfg.Model.Path, _ = cmd.Flags().GetString("model")
		}

		m, err := loadModel(cfg.Model.Path)
		if err != nil {
			return err
		}
		return executeValidate(cmd.Context(), path, m.Validation, format, strict, os.Stdout)
	},
}

// executeValidate validates the leads in path and writes the report to
// out. In strict mode any model-health warning is returned as an error.
func executeValidate(ctx context.Context, path string, opts config.ValidationConfig, format string, strict bool, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "validate: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	leads, err := export.ParseLeadsCSV(ctx, f)
	if err != nil {
		return err
	}

	report := validator.Validate(leads, opts)
	validator.LogReport(report)

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return eris.Wrap(err, "validate: encode report")
		}
	} else {
		formatReport(out, report)
	}

	if strict && len(report.Warnings) > 0 {
		return eris.Errorf("validate: %d model-health warning(s)", len(report.Warnings))
	}
	return nil
}

func formatReport(out io.Writer, r *validator.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Leads:\t%d\n", r.Count)
	_, _ = fmt.Fprintf(w, "Mean:\t%.2f\n", r.Mean)
	_, _ = fmt.Fprintf(w, "Median:\t%.1f\n", r.Median)
	_, _ = fmt.Fprintf(w, "Std dev:\t%.2f\n", r.StdDev)
	_, _ = fmt.Fprintf(w, "Range:\t%d-%d\n", r.Min, r.Max)
	if r.CorrelationDefined {
		_, _ = fmt.Fprintf(w, "Correlation:\t%.3f\n", r.Correlation)
	} else {
		_, _ = fmt.Fprintln(w, "Correlation:\tundefined")
	}
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintln(w, "VERTICAL\tLEADS\tAVG_SCORE")
	for _, v := range r.Verticals {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.1f\n", v.Vertical, v.Count, v.MeanScore)
	}
	_ = w.Flush()

	for _, warn := range r.Warnings {
		_, _ = fmt.Fprintf(out, "warning: %s\n", warn)
	}
}

func init() {
	validateCmd.Flags().String("leads", "", "leads CSV written by run (required)")
	validateCmd.Flags().String("model", "", "scoring model YAML for validation options")
	validateCmd.Flags().String("format", "table", "output format: table or json")
	validateCmd.Flags().Bool("strict", false, "exit non-zero when the report has warnings")
	_ = validateCmd.MarkFlagRequired("leads")
	rootCmd.AddCommand(validateCmd)
}
