package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/feature"
	"github.com/sells-group/leadgen-cli/internal/fetcher"
	"github.com/sells-group/leadgen-cli/internal/metrics"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/monitoring"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/scorer"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/internal/validator"
	"github.com/sells-group/leadgen-cli/pkg/notion"
)

const asOfLayout = "2006-01-02"

// runOptions holds the per-invocation switches of the run command.
type runOptions struct {
	Input   string
	Format  string
	AsOf    time.Time
	Save    bool
	Notify  bool
	Publish bool
}

// runOutcome is what the run command reports on stdout.
type runOutcome struct {
	RunID     string                   `json:"run_id,omitempty"`
	Stats     *model.RunStats          `json:"stats"`
	Report    *validator.Report        `json:"report"`
	Summaries []export.VerticalSummary `json:"verticals"`
	Manifest  *export.Manifest         `json:"manifest"`
	Alerts    int                      `json:"alerts_sent"`
	Publish   *notion.PublishResult    `json:"publish,omitempty"`
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Score a batch of business records and export lead lists",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runOptionsFromFlags(cmd, cfg)
		if err != nil {
			return err
		}
		return executeRun(cmd.Context(), cfg, opts, os.Stdout)
	},
}

// runOptionsFromFlags applies flag overrides to c and returns the run
// switches.
func runOptionsFromFlags(cmd *cobra.Command, c *config.Config) (runOptions, error) {
	f := cmd.Flags()
	opts := runOptions{}
	opts.Input, _ = f.GetString("input")
	opts.Format, _ = f.GetString("format")
	opts.Save, _ = f.GetBool("save")
	opts.Notify, _ = f.GetBool("notify")
	opts.Publish, _ = f.GetBool("publish")

	if f.Changed("out") {
		c.Output.Dir, _ = f.GetString("out")
	}
	if f.Changed("model") {
		c.Model.Path, _ = f.GetString("model")
	}
	if f.Changed("presence") {
		c.Presence.Mode, _ = f.GetString("presence")
	}
	if f.Changed("presence-file") {
		c.Presence.TablePath, _ = f.GetString("presence-file")
		if !f.Changed("presence") {
			c.Presence.Mode = "table"
		}
	}
	if f.Changed("seed") {
		c.Presence.Seed, _ = f.GetUint64("seed")
	}
	if f.Changed("workers") {
		c.Pipeline.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("xlsx") {
		c.Output.XLSX, _ = f.GetBool("xlsx")
	}
	if f.Changed("documents") {
		c.Output.Documents, _ = f.GetBool("documents")
	}

	if s, _ := f.GetString("as-of"); s != "" {
		t, err := time.ParseInLocation(asOfLayout, s, time.UTC)
		if err != nil {
			return opts, eris.Wrapf(err, "parse --as-of %q", s)
		}
		opts.AsOf = t
	}
	if opts.Format != "table" && opts.Format != "json" {
		return opts, eris.Errorf("--format must be table or json (got %q)", opts.Format)
	}
	return opts, nil
}

// executeRun runs the pipeline once and writes the outcome to out.
func executeRun(ctx context.Context, c *config.Config, opts runOptions, out io.Writer) error {
	if err := c.Validate("run"); err != nil {
		return err
	}
	if opts.Notify {
		if err := c.Validate("notify"); err != nil {
			return err
		}
	}
	if opts.Publish {
		if err := c.Validate("publish"); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	reg := metrics.NewRegistry()
	log := zap.L().With(zap.String("input", opts.Input))

	m, err := loadModel(c.Model.Path)
	if err != nil {
		return err
	}
	presence, err := presenceProvider(ctx, c.Presence)
	if err != nil {
		return err
	}

	engineOpts := []pipeline.Option{
		pipeline.WithPresence(presence),
		pipeline.WithWorkers(c.Pipeline.Workers),
	}
	if !opts.AsOf.IsZero() {
		asOf := opts.AsOf
		engineOpts = append(engineOpts, pipeline.WithClock(func() time.Time { return asOf }))
	}
	engine, err := pipeline.NewEngine(m, engineOpts...)
	if err != nil {
		return err
	}

	var (
		st    store.Store
		runID string
	)
	if opts.Save {
		st, err = openStore(ctx, c)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.CreateRun(ctx, opts.Input)
		if err != nil {
			return eris.Wrap(err, "create run")
		}
		runID = run.ID
		log = log.With(zap.String("run_id", runID))
	}

	outcome, runErr := runPipeline(ctx, c, engine, st, runID, opts)
	if runErr != nil {
		log.Error("run failed", zap.Error(runErr))
		reg.ObserveFailure(time.Since(start))
		if st != nil {
			if err := st.FailRun(context.WithoutCancel(ctx), runID, runErr); err != nil {
				log.Warn("record run failure", zap.Error(err))
			}
		}
		if opts.Notify {
			notifyRun(context.WithoutCancel(ctx), c.Alert, st, runID, nil)
		}
		writeMetrics(reg, c.Metrics.TextfilePath)
		return runErr
	}

	reg.ObserveRun(outcome.Stats, outcome.scored, time.Now(), time.Since(start))
	writeMetrics(reg, c.Metrics.TextfilePath)

	if opts.Notify {
		outcome.Alerts = notifyRun(ctx, c.Alert, st, runID, outcome.Report)
	}
	if opts.Publish {
		client := notion.NewClient(c.Notion.Token, notion.WithRateLimit(c.Notion.RateLimit))
		res, err := notion.NewPublisher(client, c.Notion.LeadDB).Publish(ctx, outcome.leads)
		if err != nil {
			log.Warn("publish leads", zap.Error(err))
		}
		outcome.Publish = res
	}

	log.Info("run complete",
		zap.Int("leads", outcome.Stats.ExportedLeads),
		zap.Duration("took", time.Since(start)),
	)
	return writeOutcome(out, opts.Format, &outcome.runOutcome)
}

type pipelineOutcome struct {
	runOutcome
	leads  []model.ScoredLead
	scored []model.ScoredLead
}

// runPipeline reads the input, scores it, exports the lead lists, and
// records the result when a store is present.
func runPipeline(ctx context.Context, c *config.Config, engine *pipeline.Engine, st store.Store, runID string, opts runOptions) (*pipelineOutcome, error) {
	records, err := fetcher.ReadRecords(ctx, opts.Input)
	if err != nil {
		return nil, inputError("read "+opts.Input, err)
	}

	res, err := engine.Run(ctx, records)
	if err != nil {
		return nil, err
	}

	rules := engine.Model().Verticals
	exp := export.NewExporter(c.Output.Dir, rules, export.Options{
		XLSX:      c.Output.XLSX,
		Summary:   c.Output.Summary,
		Documents: c.Output.Documents,
	})
	manifest, err := exp.Export(ctx, res.Segments, res.Leads, res.RunAt)
	if err != nil {
		return nil, err
	}

	stats := res.Stats()
	if st != nil {
		if err := st.SaveLeads(ctx, runID, res.Leads); err != nil {
			return nil, eris.Wrap(err, "save leads")
		}
		if err := st.CompleteRun(ctx, runID, stats); err != nil {
			return nil, eris.Wrap(err, "complete run")
		}
	}

	return &pipelineOutcome{
		runOutcome: runOutcome{
			RunID:     runID,
			Stats:     stats,
			Report:    res.Report,
			Summaries: export.Summarize(res.Segments, rules),
			Manifest:  manifest,
		},
		leads:  res.Leads,
		scored: res.Scored,
	}, nil
}

// inputError marks err as an input problem unless it is a context error,
// which is returned as is.
func inputError(reason string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &pipeline.InputError{Reason: reason, Err: err}
}

func loadModel(path string) (config.ModelConfig, error) {
	if path == "" {
		return scorer.DefaultModelConfig(), nil
	}
	m, err := scorer.LoadModel(path)
	if err != nil {
		return config.ModelConfig{}, &pipeline.ConfigError{Err: err}
	}
	return m, nil
}

func presenceProvider(ctx context.Context, pc config.PresenceConfig) (feature.PresenceProvider, error) {
	switch pc.Mode {
	case "table":
		rows, err := fetcher.ReadPresenceTable(ctx, pc.TablePath)
		if err != nil {
			return nil, inputError("read presence table", err)
		}
		return feature.NewTableProvider(rows), nil
	default:
		zap.L().Warn("competitor presence is synthetic; use presence.mode=table for real data",
			zap.Uint64("seed", pc.Seed))
		return &feature.SeededProvider{
			Seed:         pc.Seed,
			ProbabilityA: pc.ProbabilityA,
			ProbabilityB: pc.ProbabilityB,
		}, nil
	}
}

// notifyRun posts model-health and failure-rate alerts. It returns the
// number of alerts the webhook accepted.
func notifyRun(ctx context.Context, ac config.AlertConfig, st store.Store, runID string, report *validator.Report) int {
	alerter := monitoring.NewAlerter(ac)
	alerts := alerter.HealthAlerts(runID, report)
	if st != nil {
		snap, err := monitoring.NewCollector(st).Collect(ctx, ac.LookbackHours)
		if err != nil {
			zap.L().Warn("collect run history", zap.Error(err))
		} else {
			alerts = append(alerts, alerter.Evaluate(snap)...)
		}
	}
	return alerter.SendAlerts(ctx, alerts)
}

func writeMetrics(reg *metrics.Registry, path string) {
	if path == "" {
		return
	}
	if err := reg.WriteTextfile(path); err != nil {
		zap.L().Warn("write metrics", zap.Error(err))
	}
}

func writeOutcome(out io.Writer, format string, o *runOutcome) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(o)
	}
	formatOutcome(out, o)
	return nil
}

// formatOutcome writes a per-vertical table followed by the exported files.
func formatOutcome(out io.Writer, o *runOutcome) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if o.RunID != "" {
		_, _ = fmt.Fprintf(w, "Run:\t%s\n", o.RunID)
	}
	_, _ = fmt.Fprintf(w, "Records:\t%d raw, %d clean, %d exported\n",
		o.Stats.RawRecords, o.Stats.CleanRecords, o.Stats.ExportedLeads)
	_, _ = fmt.Fprintf(w, "Mean score:\t%.1f\n", o.Stats.MeanScore)
	if o.Stats.Correlation != nil {
		_, _ = fmt.Fprintf(w, "Correlation:\t%.3f\n", *o.Stats.Correlation)
	} else {
		_, _ = fmt.Fprintln(w, "Correlation:\tundefined")
	}
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintln(w, "VERTICAL\tLEADS\tAVG_SCORE\tHIGH/CRITICAL")
	_, _ = fmt.Fprintln(w, "--------\t-----\t---------\t-------------")
	for _, s := range o.Summaries {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.1f\t%d\n", s.Vertical, s.Leads, s.AvgScore, s.Urgent)
	}
	_ = w.Flush()

	for _, warn := range o.Stats.Warnings {
		_, _ = fmt.Fprintf(out, "warning: %s\n", warn)
	}
	if o.Manifest != nil {
		_, _ = fmt.Fprintln(out)
		for _, f := range o.Manifest.Files {
			_, _ = fmt.Fprintln(out, f)
		}
	}
}

// exitCode maps fatal errors to process exit codes.
func exitCode(err error) int {
	var inputErr *pipeline.InputError
	var configErr *pipeline.ConfigError
	switch {
	case errors.As(err, &inputErr):
		return 2
	case errors.As(err, &configErr):
		return 3
	default:
		return 1
	}
}

// addRunFlags registers the run command's flags on cmd.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("input", "", "raw business records (.csv or .xlsx)")
	f.String("out", "", "output directory (overrides output.dir)")
	f.String("model", "", "scoring model YAML (overrides model.path)")
	f.String("presence", "", "competitor presence source: stub or table")
	f.String("presence-file", "", "presence table CSV (implies --presence table)")
	f.Uint64("seed", 0, "seed for the stub presence source")
	f.Int("workers", 0, "per-record parallelism")
	f.Bool("xlsx", false, "also write an XLSX workbook")
	f.Bool("documents", false, "also write lead documents as JSONL")
	f.String("as-of", "", "reference date for records without a collection time (YYYY-MM-DD)")
	f.String("format", "table", "stdout format: table or json")
	f.Bool("save", false, "persist the run and its leads to the store")
	f.Bool("notify", false, "post model-health alerts to the webhook")
	f.Bool("publish", false, "publish exported leads to Notion")
	_ = cmd.MarkFlagRequired("input")
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}
