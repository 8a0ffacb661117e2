package validator

import (
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// LogReport writes the report to the global logger. Warnings are logged at
// Warn level; everything else at Info.
func LogReport(r *Report) {
	log := zap.L().With(zap.String("stage", "validate"))

	log.Info("score distribution",
		zap.Int("count", r.Count),
		zap.Float64("mean", r.Mean),
		zap.Float64("median", r.Median),
		zap.Float64("std_dev", r.StdDev),
		zap.Int("min", r.Min),
		zap.Int("max", r.Max),
	)

	for i, l := range r.Top {
		log.Info("top lead",
			zap.Int("rank", i+1),
			zap.String("id", l.ID()),
			zap.String("name", l.Record.Name),
			zap.String("vertical", string(l.Vertical())),
			zap.Int("score", l.Score),
			zap.String("priority", string(l.Priority)),
		)
	}

	if r.CorrelationDefined {
		log.Info("score/conversion correlation",
			zap.Float64("r", r.Correlation),
			zap.Float64("threshold", r.CorrelationThreshold),
			zap.Bool("strong", r.Correlation >= r.CorrelationThreshold),
		)
	}

	for _, v := range r.Verticals {
		fields := []zap.Field{
			zap.String("vertical", string(v.Vertical)),
			zap.Int("count", v.Count),
			zap.Float64("mean_score", v.MeanScore),
		}
		for _, p := range model.Priorities {
			fields = append(fields, zap.Float64("pct_"+string(p), v.PriorityPct[p]))
		}
		log.Info("vertical breakdown", fields...)
	}

	for _, w := range r.Warnings {
		log.Warn("model health warning", zap.String("code", w.Code), zap.String("detail", w.Message))
	}
}
