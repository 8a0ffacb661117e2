// Package store persists pipeline runs and their exported leads.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for lead pipeline runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, inputPath string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, stats *model.RunStats) error
	FailRun(ctx context.Context, runID string, runErr error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Leads
	SaveLeads(ctx context.Context, runID string, leads []model.ScoredLead) error
	ListLeads(ctx context.Context, runID string) ([]model.ScoredLead, error)
	GetLatestLead(ctx context.Context, identifier string) (*model.ScoredLead, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the Store selected by driver ("sqlite" or "postgres") and
// applies its migration.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case "sqlite":
		s, err = NewSQLite(dsn)
	case "postgres":
		s, err = NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

const defaultListLimit = 100

// leadRow is the column set shared by both backends. The full lead is kept
// as JSON in data; the other columns exist for querying.
type leadRow struct {
	identifier string
	vertical   string
	score      int
	priority   string
	contactBy  time.Time
	data       []byte
}

func toLeadRow(l model.ScoredLead) (leadRow, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return leadRow{}, eris.Wrapf(err, "store: marshal lead %s", l.ID())
	}
	return leadRow{
		identifier: l.ID(),
		vertical:   string(l.Vertical()),
		score:      l.Score,
		priority:   string(l.Priority),
		contactBy:  l.ContactBy.UTC(),
		data:       data,
	}, nil
}

func decodeLead(data []byte) (model.ScoredLead, error) {
	var l model.ScoredLead
	if err := json.Unmarshal(data, &l); err != nil {
		return model.ScoredLead{}, eris.Wrap(err, "store: unmarshal lead")
	}
	return l, nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
