package queries

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mining-intel/internal/model"
)

func fixedClock() time.Time {
	return time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
}

func newTestDiversifier(opts ...Option) *Diversifier {
	base := []Option{WithRand(rand.New(rand.NewPCG(7, 11))), WithClock(fixedClock)}
	return New(append(base, opts...)...)
}

func TestGenerate_CappedAndDistinct(t *testing.T) {
	t.Parallel()

	qs := newTestDiversifier().Generate()
	require.Len(t, qs, DefaultMaxQueries)

	seen := map[string]bool{}
	for _, q := range qs {
		assert.NotEmpty(t, q.Text)
		assert.NotEmpty(t, q.Category)
		assert.False(t, seen[q.Text], "duplicate query %q", q.Text)
		seen[q.Text] = true
	}
}

func TestGenerate_CustomCap(t *testing.T) {
	t.Parallel()

	assert.Len(t, newTestDiversifier(WithMaxQueries(5)).Generate(), 5)
	assert.Len(t, newTestDiversifier(WithMaxQueries(0)).Generate(), DefaultMaxQueries)
}

func TestGenerate_UsesClock(t *testing.T) {
	t.Parallel()

	all := newTestDiversifier().candidates(fixedClock())
	var recent []string
	for _, q := range all {
		if q.Category == model.QueryRecentUpdates {
			recent = append(recent, q.Text)
		}
	}
	require.NotEmpty(t, recent)
	assert.Contains(t, recent, "lithium mining project update March 2026")
}

func TestGenerate_CoversAllCategories(t *testing.T) {
	t.Parallel()

	cats := map[model.QueryCategory]bool{}
	for _, q := range newTestDiversifier().candidates(fixedClock()) {
		cats[q.Category] = true
	}
	for _, c := range []model.QueryCategory{
		model.QueryRecentUpdates, model.QueryDiscoveries, model.QueryTechnicalReports,
		model.QueryProjectStages, model.QueryRegional, model.QueryMajorCompanies,
	} {
		assert.True(t, cats[c], "missing category %s", c)
	}
}

func TestGenerate_DeterministicWithSeed(t *testing.T) {
	t.Parallel()

	a := newTestDiversifier().Generate()
	b := newTestDiversifier().Generate()
	assert.Equal(t, a, b)
}

func TestGenerate_Shuffles(t *testing.T) {
	t.Parallel()

	d := newTestDiversifier(WithMaxQueries(1000))
	ordered := d.candidates(fixedClock())
	shuffled := d.Generate()
	require.Len(t, shuffled, len(ordered))
	assert.NotEqual(t, ordered, shuffled)
	assert.ElementsMatch(t, ordered, shuffled)
}

func TestGenerate_SmallVocabularyNeverEmpty(t *testing.T) {
	t.Parallel()

	d := newTestDiversifier(WithVocabulary(Vocabulary{Commodities: []string{"cobalt"}}))
	qs := d.Generate()
	require.NotEmpty(t, qs)
	for _, q := range qs {
		if q.Commodity != "" {
			assert.Equal(t, "cobalt", q.Commodity)
		}
	}
}

func TestLoadVocabulary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	content := "commodities:\n  - zinc\n  - graphite\nregions:\n  - Yukon\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v, err := LoadVocabulary(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"zinc", "graphite"}, v.Commodities)
	assert.Equal(t, []string{"Yukon"}, v.Regions)
	assert.Equal(t, DefaultVocabulary().Companies, v.Companies)

	qs := newTestDiversifier(WithVocabulary(v), WithMaxQueries(1000)).Generate()
	var yukon bool
	for _, q := range qs {
		if strings.Contains(q.Text, "Yukon") {
			yukon = true
		}
	}
	assert.True(t, yukon)
}

func TestLoadVocabulary_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadVocabulary(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("commodities: [unterminated"), 0o600))
	_, err = LoadVocabulary(path)
	assert.Error(t, err)
}
