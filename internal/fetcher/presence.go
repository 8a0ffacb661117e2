package fetcher

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// ReadPresenceTable loads a competitor presence table from a CSV with the
// columns identifier, platform_a and platform_b. Header aliases for the
// identifier column are accepted.
func ReadPresenceTable(ctx context.Context, path string) (map[string]model.Presence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open presence table %s", path)
	}
	defer f.Close() //nolint:errcheck

	header, rows, err := ReadCSVTable(ctx, f)
	if err != nil {
		return nil, err
	}

	idx := indexHeader(header)
	for _, col := range []string{ColIdentifier, "platform_a", "platform_b"} {
		if _, ok := idx[col]; !ok {
			return nil, eris.Errorf("fetcher: presence table missing column %s", col)
		}
	}

	out := make(map[string]model.Presence, len(rows))
	for i, row := range rows {
		cell := func(col string) string {
			if j := idx[col]; j < len(row) {
				return row[j]
			}
			return ""
		}

		id := strings.TrimSpace(cell(ColIdentifier))
		if id == "" {
			continue
		}
		a, err := parseBool(cell("platform_a"))
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: presence row %d platform_a", i+2)
		}
		b, err := parseBool(cell("platform_b"))
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: presence row %d platform_b", i+2)
		}
		out[id] = model.Presence{PlatformA: a, PlatformB: b}
	}
	return out, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y":
		return true, nil
	case "0", "false", "f", "no", "n", "":
		return false, nil
	}
	return false, eris.Errorf("fetcher: invalid boolean %q", s)
}
