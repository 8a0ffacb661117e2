package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/db"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

var (
	runLeadColumns    = []string{"run_id", "identifier", "vertical", "score", "priority", "contact_by", "data"}
	latestLeadColumns = []string{"identifier", "run_id", "vertical", "score", "priority", "contact_by", "data", "updated_at"}
)

const runColumns = `id, input_path, status, stats, error, created_at, finished_at`

var preparedStatements = map[string]string{
	"insert_run":   `INSERT INTO runs (id, input_path, status, created_at) VALUES ($1, $2, $3, $4)`,
	"complete_run": `UPDATE runs SET status = $1, stats = $2, finished_at = $3 WHERE id = $4`,
	"fail_run":     `UPDATE runs SET status = $1, error = $2, finished_at = $3 WHERE id = $4`,
	"get_run":      `SELECT ` + runColumns + ` FROM runs WHERE id = $1`,
	"list_leads":   `SELECT data FROM run_leads WHERE run_id = $1 ORDER BY score DESC, identifier ASC`,
	"latest_lead":  `SELECT data FROM lead_latest WHERE identifier = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	input_path  TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	stats       JSONB,
	error       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS run_leads (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	identifier TEXT NOT NULL,
	vertical   TEXT NOT NULL,
	score      INTEGER NOT NULL,
	priority   TEXT NOT NULL,
	contact_by TIMESTAMPTZ NOT NULL,
	data       JSONB NOT NULL,
	PRIMARY KEY (run_id, identifier)
);

CREATE TABLE IF NOT EXISTS lead_latest (
	identifier TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	vertical   TEXT NOT NULL,
	score      INTEGER NOT NULL,
	priority   TEXT NOT NULL,
	contact_by TIMESTAMPTZ NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_run_leads_vertical ON run_leads(run_id, vertical);
CREATE INDEX IF NOT EXISTS idx_lead_latest_priority ON lead_latest(priority, contact_by);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, inputPath string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, input_path, status, created_at) VALUES ($1, $2, $3, $4)`,
		id, inputPath, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		InputPath: inputPath,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, stats *model.RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stats")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, stats = $2, finished_at = $3 WHERE id = $4`,
		string(model.RunStatusComplete), statsJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, runErr error) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, finished_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), errorText(runErr), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM runs WHERE id = $1`, runID)
	r, err := scanPostgresRun(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// SaveLeads COPYs the run's leads into run_leads, then merges them into
// lead_latest so each identifier keeps its most recent score. A merge
// never replaces a row written later by a concurrent run.
func (s *PostgresStore) SaveLeads(ctx context.Context, runID string, leads []model.ScoredLead) error {
	if len(leads) == 0 {
		return nil
	}

	now := time.Now().UTC()
	runRows := make([][]any, 0, len(leads))
	latestRows := make([][]any, 0, len(leads))
	for _, l := range leads {
		r, err := toLeadRow(l)
		if err != nil {
			return err
		}
		runRows = append(runRows, []any{runID, r.identifier, r.vertical, r.score, r.priority, r.contactBy, r.data})
		latestRows = append(latestRows, []any{r.identifier, runID, r.vertical, r.score, r.priority, r.contactBy, r.data, now})
	}

	if _, err := db.CopyFrom(ctx, s.pool, "run_leads", runLeadColumns, runRows); err != nil {
		return eris.Wrapf(err, "postgres: save leads for run %s", runID)
	}
	if _, err := db.MergeRows(ctx, s.pool, db.MergeSpec{
		Table:   "lead_latest",
		Columns: latestLeadColumns,
		Key:     []string{"identifier"},
		NewerBy: "updated_at",
	}, latestRows); err != nil {
		return eris.Wrapf(err, "postgres: refresh latest leads for run %s", runID)
	}
	return nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, runID string) ([]model.ScoredLead, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM run_leads WHERE run_id = $1 ORDER BY score DESC, identifier ASC`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list leads for run %s", runID)
	}
	defer rows.Close()

	var leads []model.ScoredLead
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		l, err := decodeLead(data)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) GetLatestLead(ctx context.Context, identifier string) (*model.ScoredLead, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM lead_latest WHERE identifier = $1`, identifier,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get latest lead %s", identifier)
	}
	l, err := decodeLead(data)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanPostgresRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var status string
	var statsJSON []byte

	if err := row.Scan(&r.ID, &r.InputPath, &status, &statsJSON, &r.Error, &r.CreatedAt, &r.FinishedAt); err != nil {
		return nil, err
	}
	r.Status = model.RunStatus(status)
	if statsJSON != nil {
		r.Stats = &model.RunStats{}
		if err := json.Unmarshal(statsJSON, r.Stats); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal stats")
		}
	}
	return &r, nil
}
