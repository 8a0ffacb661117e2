package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), "sqlite", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	return s
}

func testLead(id string, v model.Vertical, score int) model.ScoredLead {
	lat := 37.7749
	return model.ScoredLead{
		Record: model.CleanedRecord{
			ID:           id,
			Name:         "Biz " + id,
			Rating:       4.5,
			ReviewCount:  250,
			CategoryTags: []string{"pizza"},
			City:         "San Francisco",
			Region:       "CA",
			Latitude:     &lat,
			CollectedAt:  time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC),
		},
		Features: model.FeatureSet{Vertical: v, ReviewVolume: model.ReviewMedium},
		Score:    score,
		Breakdown: model.Breakdown{
			model.FactorReviewVolume: 15,
		},
		Priority:  model.PriorityMedium,
		ContactBy: time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC),
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateAndGetRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, "data/input/businesses.csv")
		require.NoError(t, err)
		assert.NotEmpty(t, run.ID)
		assert.Equal(t, model.RunStatusRunning, run.Status)

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, "data/input/businesses.csv", got.InputPath)
		assert.Equal(t, model.RunStatusRunning, got.Status)
		assert.Nil(t, got.Stats)
		assert.Nil(t, got.FinishedAt)
	})

	t.Run("CompleteRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, "in.csv")
		require.NoError(t, err)

		r := 0.42
		stats := &model.RunStats{
			RawRecords:      10,
			CleanRecords:    9,
			ScoredLeads:     9,
			ExportedLeads:   4,
			MeanScore:       61.5,
			Correlation:     &r,
			LeadsByVertical: map[model.Vertical]int{model.VerticalRestaurants: 4},
		}
		require.NoError(t, s.CompleteRun(ctx, run.ID, stats))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusComplete, got.Status)
		require.NotNil(t, got.Stats)
		assert.Equal(t, stats, got.Stats)
		assert.NotNil(t, got.FinishedAt)
	})

	t.Run("FailRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, "in.csv")
		require.NoError(t, err)
		require.NoError(t, s.FailRun(ctx, run.ID, errors.New("pipeline: input: empty record set")))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusFailed, got.Status)
		assert.Equal(t, "pipeline: input: empty record set", got.Error)
	})

	t.Run("UpdateMissingRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.CompleteRun(ctx, "nope", &model.RunStats{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "run not found")

		err = s.FailRun(ctx, "nope", nil)
		require.Error(t, err)

		_, err = s.GetRun(ctx, "nope")
		require.Error(t, err)
	})

	t.Run("ListRuns", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		a, err := s.CreateRun(ctx, "a.csv")
		require.NoError(t, err)
		b, err := s.CreateRun(ctx, "b.csv")
		require.NoError(t, err)
		require.NoError(t, s.FailRun(ctx, b.ID, errors.New("boom")))

		all, err := s.ListRuns(ctx, RunFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		failed, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.Equal(t, b.ID, failed[0].ID)

		running, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusRunning, Limit: 1})
		require.NoError(t, err)
		require.Len(t, running, 1)
		assert.Equal(t, a.ID, running[0].ID)

		paged, err := s.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Len(t, paged, 1)
	})

	t.Run("SaveAndListLeads", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, "in.csv")
		require.NoError(t, err)

		leads := []model.ScoredLead{
			testLead("b", model.VerticalGrocery, 70),
			testLead("a", model.VerticalRestaurants, 70),
			testLead("c", model.VerticalRetail, 90),
		}
		require.NoError(t, s.SaveLeads(ctx, run.ID, leads))

		got, err := s.ListLeads(ctx, run.ID)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"c", "a", "b"}, []string{got[0].ID(), got[1].ID(), got[2].ID()})
		assert.Equal(t, leads[2], got[0])

		none, err := s.ListLeads(ctx, "other-run")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("LatestLeadFollowsNewestRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first, err := s.CreateRun(ctx, "in.csv")
		require.NoError(t, err)
		require.NoError(t, s.SaveLeads(ctx, first.ID, []model.ScoredLead{testLead("p1", model.VerticalRestaurants, 55)}))

		second, err := s.CreateRun(ctx, "in.csv")
		require.NoError(t, err)
		require.NoError(t, s.SaveLeads(ctx, second.ID, []model.ScoredLead{testLead("p1", model.VerticalRestaurants, 80)}))

		got, err := s.GetLatestLead(ctx, "p1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 80, got.Score)

		missing, err := s.GetLatestLead(ctx, "p404")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("SaveNoLeads", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.SaveLeads(context.Background(), "any", nil))
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown driver "mysql"`)
}
