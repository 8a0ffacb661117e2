package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// Snapshot summarizes recent pipeline runs.
type Snapshot struct {
	Total     int     `json:"total"`
	Complete  int     `json:"complete"`
	Failed    int     `json:"failed"`
	Running   int     `json:"running"`
	FailRate  float64 `json:"fail_rate"`
	MeanScore float64 `json:"mean_score"` // averaged over completed runs
	Warnings  int     `json:"warnings"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// RunLister is the part of store.Store the collector reads.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// Collector builds snapshots from the run store.
type Collector struct {
	runs RunLister
	now  func() time.Time
}

// NewCollector creates a collector over the given run store.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs, now: func() time.Time { return time.Now().UTC() }}
}

const collectLimit = 1000

// Collect summarizes runs created within the lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	now := c.now()
	snap := &Snapshot{LookbackHours: lookbackHours, CollectedAt: now}
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	runs, err := c.runs.ListRuns(ctx, store.RunFilter{Limit: collectLimit})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	var scoreSum float64
	for _, r := range runs {
		if r.CreatedAt.Before(cutoff) {
			continue
		}
		snap.Total++
		switch r.Status {
		case model.RunStatusComplete:
			snap.Complete++
			if r.Stats != nil {
				scoreSum += r.Stats.MeanScore
				snap.Warnings += len(r.Stats.Warnings)
			}
		case model.RunStatusFailed:
			snap.Failed++
		case model.RunStatusRunning:
			snap.Running++
		}
	}

	if finished := snap.Complete + snap.Failed; finished > 0 {
		snap.FailRate = float64(snap.Failed) / float64(finished)
	}
	if snap.Complete > 0 {
		snap.MeanScore = scoreSum / float64(snap.Complete)
	}
	return snap, nil
}
