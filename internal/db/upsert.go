package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// MergeSpec describes how staged rows are folded into a keyed table.
type MergeSpec struct {
	Table   string   // destination, "table" or "schema.table"
	Columns []string // column order of every row
	Key     []string // unique constraint the rows collide on

	// Update lists the columns overwritten on a key collision. Empty means
	// every column outside Key.
	Update []string

	// NewerBy names a column compared on collision. When set, an existing
	// row is only replaced if the incoming value is not older.
	NewerBy string
}

func (s MergeSpec) check() error {
	switch {
	case len(s.Columns) == 0:
		return eris.New("db: merge: no columns specified")
	case len(s.Key) == 0:
		return eris.New("db: merge: no conflict keys specified")
	}
	return nil
}

func (s MergeSpec) updateColumns() []string {
	if len(s.Update) > 0 {
		return s.Update
	}
	var cols []string
	for _, c := range s.Columns {
		if !contains(s.Key, c) {
			cols = append(cols, c)
		}
	}
	return cols
}

func (s MergeSpec) stageTable() pgx.Identifier {
	return pgx.Identifier{"_stage_" + strings.ReplaceAll(s.Table, ".", "_")}
}

func (s MergeSpec) createStageSQL() string {
	return fmt.Sprintf("CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		s.stageTable().Sanitize(), identifier(s.Table).Sanitize())
}

func (s MergeSpec) mergeSQL() string {
	target := identifier(s.Table).Sanitize()
	cols := quoteAndJoin(s.Columns)

	var sets []string
	for _, c := range s.updateColumns() {
		q := pgx.Identifier{c}.Sanitize()
		sets = append(sets, q+" = EXCLUDED."+q)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s AS t (%s) SELECT %s FROM %s ON CONFLICT (%s) DO UPDATE SET %s",
		target, cols, cols, s.stageTable().Sanitize(), quoteAndJoin(s.Key), strings.Join(sets, ", "))
	if s.NewerBy != "" {
		q := pgx.Identifier{s.NewerBy}.Sanitize()
		fmt.Fprintf(&b, " WHERE t.%s <= EXCLUDED.%s", q, q)
	}
	return b.String()
}

// MergeRows stages rows in a temp table with COPY and merges them into
// spec.Table in one transaction. It returns the number of rows inserted
// or updated.
func MergeRows(ctx context.Context, pool Pool, spec MergeSpec, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := spec.check(); err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: merge: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, spec.createStageSQL()); err != nil {
		return 0, eris.Wrapf(err, "db: merge: create stage table for %s", spec.Table)
	}
	if _, err := tx.CopyFrom(ctx, spec.stageTable(), spec.Columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: merge: COPY into stage table for %s", spec.Table)
	}

	tag, err := tx.Exec(ctx, spec.mergeSQL())
	if err != nil {
		return 0, eris.Wrapf(err, "db: merge: into %s", spec.Table)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: merge: commit tx")
	}
	return tag.RowsAffected(), nil
}

func identifier(table string) pgx.Identifier {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pgx.Identifier{schema, name}
	}
	return pgx.Identifier{table}
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
