package orchestrator

import (
	"sync"

	"github.com/sells-group/mining-intel/internal/model"
	"github.com/sells-group/mining-intel/internal/sources"
)

// aggregator keys per-source results by source name so out-of-order
// completions land in the right entry. Results are listed in source
// configuration order; a source appears once it fails or has a document
// processed.
type aggregator struct {
	mu     sync.Mutex
	order  []string
	byName map[string]*model.ScrapingResult
}

func newAggregator(fetchers []sources.Fetcher) *aggregator {
	a := &aggregator{byName: make(map[string]*model.ScrapingResult)}
	for _, f := range fetchers {
		a.order = append(a.order, f.Name())
	}
	return a
}

// entry returns the result for name, creating it on first use. Callers
// hold a.mu.
func (a *aggregator) entry(name string) *model.ScrapingResult {
	r, ok := a.byName[name]
	if !ok {
		r = &model.ScrapingResult{Source: name, Errors: []string{}}
		a.byName[name] = r
		found := false
		for _, n := range a.order {
			if n == name {
				found = true
				break
			}
		}
		if !found {
			a.order = append(a.order, name)
		}
	}
	return r
}

func (a *aggregator) sourceFailed(name string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := a.entry(name)
	r.Errors = append(r.Errors, err.Error())
}

func (a *aggregator) record(name string, res model.ProcessResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := a.entry(name)
	r.DocumentsFound++
	switch {
	case !res.Success:
		r.Errors = append(r.Errors, res.Error)
	case res.Action == model.ActionCreated:
		r.ProjectsCreated++
	case res.Action == model.ActionUpdated:
		r.ProjectsUpdated++
	}
}

// results returns copies in source order.
func (a *aggregator) results() []model.ScrapingResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.ScrapingResult, 0, len(a.byName))
	for _, name := range a.order {
		r, ok := a.byName[name]
		if !ok {
			continue
		}
		c := *r
		c.Errors = append([]string{}, r.Errors...)
		out = append(out, c)
	}
	return out
}
