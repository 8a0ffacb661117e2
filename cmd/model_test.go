package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/scorer"
)

func TestLoadModel_DefaultAndFile(t *testing.T) {
	m, err := loadModel("")
	require.NoError(t, err)
	assert.Equal(t, scorer.DefaultModelConfig(), m)

	data, err := scorer.MarshalModel(scorer.DefaultModelConfig())
	require.NoError(t, err)
	path := writeTestFile(t, t.TempDir(), "model.yaml", string(data))

	m, err = loadModel(path)
	require.NoError(t, err)
	assert.Equal(t, scorer.DefaultModelConfig().Weights, m.Weights)
}

func TestLoadModel_ErrorsAreConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.yaml") }},
		{"unknown key", func(t *testing.T) string {
			return writeTestFile(t, t.TempDir(), "m.yaml", "bogus: true\n")
		}},
		{"incomplete", func(t *testing.T) string {
			return writeTestFile(t, t.TempDir(), "m.yaml", "weights:\n  competitor_platform: 25\n")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadModel(tt.path(t))
			require.Error(t, err)
			var ce *pipeline.ConfigError
			assert.True(t, errors.As(err, &ce))
		})
	}
}

func TestDescribeModel(t *testing.T) {
	var buf bytes.Buffer
	describeModel(&buf, "", scorer.DefaultModelConfig())

	s := buf.String()
	assert.Contains(t, s, "model built-in OK")
	assert.Contains(t, s, "max score: 100")
	assert.Contains(t, s, "restaurants: min score 50, target 200, SLA 7 days")
	assert.Contains(t, s, "other: min score 0, target 0, SLA 30 days")
}
