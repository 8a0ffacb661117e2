package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.Background(), nil, "run_leads", []string{"run_id", "identifier"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom(t *testing.T) {
	tests := []struct {
		name  string
		table string
		ident pgx.Identifier
	}{
		{"plain", "run_leads", pgx.Identifier{"run_leads"}},
		{"schema qualified", "leadgen.run_leads", pgx.Identifier{"leadgen", "run_leads"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectCopyFrom(tt.ident, []string{"run_id", "identifier"}).WillReturnResult(2)

			rows := [][]any{{"r1", "p1"}, {"r1", "p2"}}
			n, err := CopyFrom(context.Background(), mock, tt.table, []string{"run_id", "identifier"}, rows)
			require.NoError(t, err)
			assert.Equal(t, int64(2), n)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"run_leads"}, []string{"run_id"}).WillReturnError(errors.New("copy failed"))

	_, err = CopyFrom(context.Background(), mock, "run_leads", []string{"run_id"}, [][]any{{"r1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO run_leads")
	assert.NoError(t, mock.ExpectationsWereMet())
}
