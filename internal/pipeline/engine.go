// Package pipeline wires the lead engine stages together:
// clean, engineer features, score, validate, segment.
package pipeline

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-cli/internal/clean"
	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/feature"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/scorer"
	"github.com/sells-group/leadgen-cli/internal/segment"
	"github.com/sells-group/leadgen-cli/internal/validator"
)

// Engine runs the scoring pipeline for one validated model. An Engine is
// read-only after construction and may be shared by concurrent runs.
type Engine struct {
	model    config.ModelConfig
	engineer *feature.Engineer
	presence feature.PresenceProvider
	workers  int
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithPresence sets the competitor presence source. The default reports no
// presence for every record.
func WithPresence(p feature.PresenceProvider) Option {
	return func(e *Engine) { e.presence = p }
}

// WithWorkers bounds per-record parallelism. Values below 1 use NumCPU.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithClock sets the reference clock used for records that carry no
// collection timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine validates the model and prepares an Engine. A malformed model
// yields a *ConfigError.
func NewEngine(m config.ModelConfig, opts ...Option) (*Engine, error) {
	if err := scorer.ValidateModel(m); err != nil {
		return nil, &ConfigError{Err: err}
	}

	e := &Engine{
		model:    m,
		presence: feature.StaticProvider{},
		workers:  runtime.NumCPU(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	if e.workers < 1 {
		e.workers = runtime.NumCPU()
	}
	if e.presence == nil {
		e.presence = feature.StaticProvider{}
	}
	e.engineer = feature.NewEngineer(m, e.presence)

	top := m.PriorityEdges[len(m.PriorityEdges)-1]
	if ms := scorer.MaxScore(m); ms > top {
		zap.L().Warn("pipeline: model can score above the top priority edge",
			zap.Int("max_score", ms),
			zap.Int("top_edge", top),
		)
	}
	return e, nil
}

// Model returns the engine's scoring model.
func (e *Engine) Model() config.ModelConfig {
	return e.model
}

// Result is the output of one pipeline run. Nothing in it is shared with
// the input slice.
type Result struct {
	RunAt        time.Time
	RawRecords   int
	CleanRecords int

	// Scored holds every scored lead in input order.
	Scored []model.ScoredLead
	Report *validator.Report

	// Segments holds the exportable leads per vertical; Leads is the same
	// set flattened in rank order.
	Segments map[model.Vertical][]model.ScoredLead
	Leads    []model.ScoredLead
}

// Stats summarizes the result for the run store.
func (r *Result) Stats() *model.RunStats {
	s := &model.RunStats{
		RawRecords:      r.RawRecords,
		CleanRecords:    r.CleanRecords,
		ScoredLeads:     len(r.Scored),
		ExportedLeads:   len(r.Leads),
		LeadsByVertical: segment.Counts(r.Segments),
	}
	if r.Report != nil {
		s.MeanScore = r.Report.Mean
		if r.Report.CorrelationDefined {
			c := r.Report.Correlation
			s.Correlation = &c
		}
		for _, w := range r.Report.Warnings {
			s.Warnings = append(s.Warnings, w.String())
		}
	}
	return s
}

// Run executes every stage over records. It returns an *InputError when
// there is nothing to score; a cancelled context is only honoured before
// the first stage starts.
func (e *Engine) Run(ctx context.Context, records []model.BusinessRecord) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &InputError{Reason: "empty record set"}
	}

	log := zap.L().With(zap.String("stage", "pipeline"))
	runAt := e.now()

	cleaned := clean.Clean(records)
	if len(cleaned) == 0 {
		return nil, &InputError{Reason: "no record has a usable identifier"}
	}
	defaulted := 0
	for i := range cleaned {
		if cleaned[i].CollectedAt.IsZero() {
			cleaned[i].CollectedAt = runAt
			defaulted++
		}
	}
	if defaulted > 0 {
		log.Debug("collection timestamp defaulted to run time", zap.Int("records", defaulted))
	}

	scored := e.score(cleaned)

	report := validator.Validate(scored, e.model.Validation)
	validator.LogReport(report)

	segments, err := segment.Segment(scored, e.model.Verticals)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	leads := segment.Flatten(segments)

	log.Info("pipeline complete",
		zap.Int("raw", len(records)),
		zap.Int("cleaned", len(cleaned)),
		zap.Int("exported", len(leads)),
		zap.Int("warnings", len(report.Warnings)),
	)

	return &Result{
		RunAt:        runAt,
		RawRecords:   len(records),
		CleanRecords: len(cleaned),
		Scored:       scored,
		Report:       report,
		Segments:     segments,
		Leads:        leads,
	}, nil
}

// score runs feature engineering and scoring per record in parallel.
// Output order equals input order.
func (e *Engine) score(cleaned []model.CleanedRecord) []model.ScoredLead {
	out := make([]model.ScoredLead, len(cleaned))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i := range cleaned {
		g.Go(func() error {
			out[i] = scorer.Score(e.engineer.Derive(cleaned[i]), e.model)
			return nil
		})
	}
	_ = g.Wait() // per-record work cannot fail

	return out
}
