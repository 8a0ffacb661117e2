// Package metrics records per-run pipeline gauges in a private Prometheus
// registry and writes them for the node_exporter textfile collector.
package metrics

import (
	"math"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

const namespace = "leadgen"

// Registry holds the metrics of one pipeline run.
type Registry struct {
	reg *prometheus.Registry

	Records     *prometheus.GaugeVec
	Leads       *prometheus.GaugeVec
	MeanScore   prometheus.Gauge
	Correlation prometheus.Gauge
	Warnings    *prometheus.CounterVec
	Scores      prometheus.Histogram
	Duration    prometheus.Gauge
	LastSuccess prometheus.Gauge
	Failures    prometheus.Counter
}

// NewRegistry creates a Registry with every metric registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		Records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_records",
			Help:      "Records at each pipeline stage in the last run.",
		}, []string{"stage"}),
		Leads: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_leads",
			Help:      "Exported leads per vertical in the last run.",
		}, []string{"vertical"}),
		MeanScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_mean_score",
			Help:      "Mean lead score of the last run.",
		}),
		Correlation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_score_conversion_correlation",
			Help:      "Pearson correlation between score and expected conversion; NaN when undefined.",
		}),
		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_warnings_total",
			Help:      "Model-health warnings by code.",
		}, []string{"code"}),
		Scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lead_score",
			Help:      "Distribution of lead scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Runs that ended with a fatal error.",
		}),
	}
	r.reg.MustRegister(r.Records, r.Leads, r.MeanScore, r.Correlation, r.Warnings,
		r.Scores, r.Duration, r.LastSuccess, r.Failures)
	return r
}

// ObserveRun records a completed run.
func (r *Registry) ObserveRun(stats *model.RunStats, scored []model.ScoredLead, finished time.Time, took time.Duration) {
	r.Records.WithLabelValues("raw").Set(float64(stats.RawRecords))
	r.Records.WithLabelValues("clean").Set(float64(stats.CleanRecords))
	r.Records.WithLabelValues("scored").Set(float64(stats.ScoredLeads))
	r.Records.WithLabelValues("exported").Set(float64(stats.ExportedLeads))

	for _, v := range model.Verticals {
		r.Leads.WithLabelValues(string(v)).Set(float64(stats.LeadsByVertical[v]))
	}

	r.MeanScore.Set(stats.MeanScore)
	if stats.Correlation != nil {
		r.Correlation.Set(*stats.Correlation)
	} else {
		r.Correlation.Set(math.NaN())
	}
	for _, w := range stats.Warnings {
		code, _, _ := strings.Cut(w, ":")
		r.Warnings.WithLabelValues(code).Inc()
	}
	for _, l := range scored {
		r.Scores.Observe(float64(l.Score))
	}

	r.Duration.Set(took.Seconds())
	r.LastSuccess.Set(float64(finished.Unix()))
}

// ObserveFailure records a run that ended with a fatal error.
func (r *Registry) ObserveFailure(took time.Duration) {
	r.Failures.Inc()
	r.Duration.Set(took.Seconds())
}

// Gatherer exposes the registry for tests and handlers.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// WriteTextfile writes the registry in the text exposition format. The
// file is replaced atomically.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return eris.Wrapf(err, "metrics: write textfile %s", path)
	}
	return nil
}
