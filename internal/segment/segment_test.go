package segment

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/scorer"
)

func lead(id string, v model.Vertical, score int) model.ScoredLead {
	return model.ScoredLead{
		Record:   model.CleanedRecord{ID: id},
		Features: model.FeatureSet{Vertical: v},
		Score:    score,
	}
}

func ids(leads []model.ScoredLead) []string {
	out := make([]string, len(leads))
	for i, l := range leads {
		out[i] = l.ID()
	}
	return out
}

func TestSegment_FilterSortCap(t *testing.T) {
	t.Parallel()

	rules := map[model.Vertical]config.VerticalRule{
		model.VerticalRestaurants: {MinScore: 50, TargetCount: 2},
		model.VerticalGrocery:     {MinScore: 60, TargetCount: 5},
		model.VerticalRetail:      {MinScore: 55, TargetCount: 5},
		model.VerticalOther:       {MinScore: 0, TargetCount: 0},
	}
	leads := []model.ScoredLead{
		lead("r1", model.VerticalRestaurants, 55),
		lead("r2", model.VerticalRestaurants, 90),
		lead("r3", model.VerticalRestaurants, 49),
		lead("r4", model.VerticalRestaurants, 70),
		lead("g1", model.VerticalGrocery, 60),
		lead("g2", model.VerticalGrocery, 59),
		lead("t1", model.VerticalRetail, 10),
		lead("o1", model.VerticalOther, 100),
	}

	out, err := Segment(leads, rules)
	require.NoError(t, err)

	assert.Equal(t, []string{"r2", "r4"}, ids(out[model.VerticalRestaurants]))
	assert.Equal(t, []string{"g1"}, ids(out[model.VerticalGrocery]))
	assert.NotContains(t, out, model.VerticalRetail, "empty verticals are omitted")
	assert.NotContains(t, out, model.VerticalOther, "target 0 drops everything")

	// Input untouched.
	assert.Equal(t, "r1", leads[0].ID())
}

func TestSegment_TieBreakOnIdentifier(t *testing.T) {
	t.Parallel()

	rules := map[model.Vertical]config.VerticalRule{
		model.VerticalRetail: {MinScore: 0, TargetCount: 1},
	}
	leads := []model.ScoredLead{
		lead("zeta", model.VerticalRetail, 80),
		lead("alpha", model.VerticalRetail, 80),
	}

	out, err := Segment(leads, rules)
	require.NoError(t, err)
	require.Len(t, out[model.VerticalRetail], 1)
	assert.Equal(t, "alpha", out[model.VerticalRetail][0].ID())
}

func TestSegment_MissingRule(t *testing.T) {
	t.Parallel()

	rules := map[model.Vertical]config.VerticalRule{
		model.VerticalRetail: {TargetCount: 10},
	}
	_, err := Segment([]model.ScoredLead{lead("x", model.VerticalGrocery, 10)}, rules)
	require.Error(t, err)

	var mre *MissingRuleError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, model.VerticalGrocery, mre.Vertical)
}

func TestSegment_Empty(t *testing.T) {
	t.Parallel()

	out, err := Segment(nil, scorer.DefaultModelConfig().Verticals)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, Flatten(out))
}

func TestSegment_PropertiesRandomized(t *testing.T) {
	t.Parallel()

	rules := scorer.DefaultModelConfig().Verticals
	// Small caps so truncation actually happens.
	for v, r := range rules {
		r.TargetCount = r.TargetCount / 20
		rules[v] = r
	}

	rng := rand.New(rand.NewPCG(1, 2))
	for round := 0; round < 25; round++ {
		var leads []model.ScoredLead
		n := rng.IntN(120)
		for i := 0; i < n; i++ {
			v := model.Verticals[rng.IntN(len(model.Verticals))]
			// Coarse scores so ties are common.
			leads = append(leads, lead(fmt.Sprintf("id-%03d", rng.IntN(1000)), v, 5*rng.IntN(21)))
		}

		first, err := Segment(leads, rules)
		require.NoError(t, err)

		for v, g := range first {
			assert.NotEmpty(t, g)
			assert.LessOrEqual(t, len(g), rules[v].TargetCount)
			for i, l := range g {
				assert.GreaterOrEqual(t, l.Score, rules[v].MinScore)
				assert.Equal(t, v, l.Vertical())
				if i > 0 {
					assert.LessOrEqual(t, model.CompareLeads(g[i-1], l), 0)
				}
			}
		}

		second, err := Segment(Flatten(first), rules)
		require.NoError(t, err)
		assert.Equal(t, first, second, "round %d", round)
	}
}

func TestFlatten_GlobalOrder(t *testing.T) {
	t.Parallel()

	segs := map[model.Vertical][]model.ScoredLead{
		model.VerticalGrocery:     {lead("g1", model.VerticalGrocery, 95), lead("g2", model.VerticalGrocery, 60)},
		model.VerticalRestaurants: {lead("r1", model.VerticalRestaurants, 80), lead("a1", model.VerticalRestaurants, 60)},
	}
	assert.Equal(t, []string{"g1", "r1", "a1", "g2"}, ids(Flatten(segs)))
	assert.Equal(t, map[model.Vertical]int{model.VerticalGrocery: 2, model.VerticalRestaurants: 2}, Counts(segs))
}
