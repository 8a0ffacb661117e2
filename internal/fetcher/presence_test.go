package fetcher

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func TestReadPresenceTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presence.csv")
	require.NoError(t, writeTestFile(path, "place_id,platform_a,platform_b\np1,true,0\np2,no,Y\n,1,1\np3,,\n"))

	rows, err := ReadPresenceTable(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, map[string]model.Presence{
		"p1": {PlatformA: true},
		"p2": {PlatformB: true},
		"p3": {},
	}, rows)
}

func TestReadPresenceTable_Errors(t *testing.T) {
	dir := t.TempDir()

	missingCol := filepath.Join(dir, "a.csv")
	require.NoError(t, writeTestFile(missingCol, "identifier,platform_a\np1,1\n"))
	_, err := ReadPresenceTable(context.Background(), missingCol)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column platform_b")

	badBool := filepath.Join(dir, "b.csv")
	require.NoError(t, writeTestFile(badBool, "identifier,platform_a,platform_b\np1,maybe,0\n"))
	_, err = ReadPresenceTable(context.Background(), badBool)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "presence row 2 platform_a")

	_, err = ReadPresenceTable(context.Background(), filepath.Join(dir, "none.csv"))
	require.Error(t, err)
}
