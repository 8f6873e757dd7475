// Package queries generates varied web search queries for mining project
// discovery.
package queries

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sells-group/mining-intel/internal/model"
)

// DefaultMaxQueries caps a generated query set.
const DefaultMaxQueries = 30

// Diversifier builds a shuffled, capped query set from a vocabulary. It is
// safe for concurrent use.
type Diversifier struct {
	vocab Vocabulary
	max   int
	now   func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Diversifier.
type Option func(*Diversifier)

// WithMaxQueries sets the cap. Non-positive values keep the default.
func WithMaxQueries(n int) Option {
	return func(d *Diversifier) {
		if n > 0 {
			d.max = n
		}
	}
}

// WithVocabulary replaces the built-in word lists.
func WithVocabulary(v Vocabulary) Option {
	return func(d *Diversifier) { d.vocab = v.withDefaults() }
}

// WithRand sets the shuffle source.
func WithRand(rng *rand.Rand) Option {
	return func(d *Diversifier) { d.rng = rng }
}

// WithClock sets the clock used for recency phrases.
func WithClock(now func() time.Time) Option {
	return func(d *Diversifier) { d.now = now }
}

// New creates a Diversifier.
func New(opts ...Option) *Diversifier {
	d := &Diversifier{
		vocab: DefaultVocabulary(),
		max:   DefaultMaxQueries,
		now:   time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	if d.rng == nil {
		seed := uint64(d.now().UnixNano())
		d.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return d
}

// Generate returns at most the configured number of distinct queries,
// uniformly shuffled. The result is never empty.
func (d *Diversifier) Generate() []model.SearchQuery {
	all := d.candidates(d.now())

	d.mu.Lock()
	d.rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	d.mu.Unlock()

	if len(all) > d.max {
		all = all[:d.max]
	}
	return all
}

func (d *Diversifier) candidates(now time.Time) []model.SearchQuery {
	year := now.Year()
	month := now.Month().String()

	seen := make(map[string]bool)
	var out []model.SearchQuery
	add := func(cat model.QueryCategory, commodity, text string) {
		if seen[text] {
			return
		}
		seen[text] = true
		out = append(out, model.SearchQuery{Text: text, Category: cat, Commodity: commodity})
	}

	for _, c := range d.vocab.Commodities {
		add(model.QueryRecentUpdates, c, fmt.Sprintf("%s mining project update %s %d", c, month, year))
		add(model.QueryRecentUpdates, c, fmt.Sprintf("%s mine development news %d", c, year))
		add(model.QueryDiscoveries, c, fmt.Sprintf("%s new discovery drill results %d", c, year))

		for _, doc := range d.vocab.DocumentTypes {
			add(model.QueryTechnicalReports, c, fmt.Sprintf("%s project %s", c, doc))
		}
		for _, stage := range d.vocab.Stages {
			add(model.QueryProjectStages, c, fmt.Sprintf("%s project %s stage", c, stage))
		}
		for _, region := range d.vocab.Regions {
			add(model.QueryRegional, c, fmt.Sprintf("%s mining projects %s", c, region))
		}
	}
	for _, company := range d.vocab.Companies {
		add(model.QueryMajorCompanies, "", fmt.Sprintf("%s mining project pipeline %d", company, year))
	}
	return out
}
