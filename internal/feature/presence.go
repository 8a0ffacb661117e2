package feature

import (
	"hash/fnv"
	"math/rand/v2"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// PresenceProvider reports whether a business is listed on the tracked
// competitor platforms. Implementations must be safe for concurrent use.
type PresenceProvider interface {
	Presence(rec model.CleanedRecord) model.Presence
}

// SeededProvider assigns pseudo-random presence for tests and demos. Each
// record gets its own generator derived from the seed and its identifier,
// so the answer for a record never depends on batch order or parallelism.
type SeededProvider struct {
	Seed         uint64
	ProbabilityA float64
	ProbabilityB float64
}

// NewSeededProvider returns a SeededProvider with the historical listing
// rates of 60% and 50%.
func NewSeededProvider(seed uint64) *SeededProvider {
	return &SeededProvider{Seed: seed, ProbabilityA: 0.60, ProbabilityB: 0.50}
}

// Presence implements PresenceProvider.
func (p *SeededProvider) Presence(rec model.CleanedRecord) model.Presence {
	h := fnv.New64a()
	_, _ = h.Write([]byte(rec.ID))
	rng := rand.New(rand.NewPCG(p.Seed, h.Sum64()))
	return model.Presence{
		PlatformA: rng.Float64() < p.ProbabilityA,
		PlatformB: rng.Float64() < p.ProbabilityB,
	}
}

// TableProvider answers from a lookup table keyed by record identifier.
// Unknown identifiers are reported as absent from both platforms.
type TableProvider struct {
	rows map[string]model.Presence
}

// NewTableProvider wraps rows. The map is not copied and must not be
// modified afterwards.
func NewTableProvider(rows map[string]model.Presence) *TableProvider {
	if rows == nil {
		rows = map[string]model.Presence{}
	}
	return &TableProvider{rows: rows}
}

// Presence implements PresenceProvider.
func (p *TableProvider) Presence(rec model.CleanedRecord) model.Presence {
	return p.rows[rec.ID]
}

// Len returns the number of rows in the table.
func (p *TableProvider) Len() int {
	return len(p.rows)
}

// StaticProvider returns the same presence for every record.
type StaticProvider model.Presence

// Presence implements PresenceProvider.
func (p StaticProvider) Presence(model.CleanedRecord) model.Presence {
	return model.Presence(p)
}
