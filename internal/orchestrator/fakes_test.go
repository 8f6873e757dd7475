package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sells-group/mining-intel/internal/model"
	"github.com/sells-group/mining-intel/internal/store"
)

type fakeFetcher struct {
	name  string
	docs  []model.SourceDocument
	err   error
	onHit func()
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) Fetch(context.Context) ([]model.SourceDocument, error) {
	if f.onHit != nil {
		f.onHit()
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.SourceDocument, len(f.docs))
	copy(out, f.docs)
	return out, nil
}

// countingProcessor tracks how many Process calls overlap.
type countingProcessor struct {
	delay  time.Duration
	decide func(model.SourceDocument) model.ProcessResult

	inFlight atomic.Int32
	maxSeen  atomic.Int32
	calls    atomic.Int32
}

func (p *countingProcessor) Process(_ context.Context, doc model.SourceDocument) model.ProcessResult {
	p.calls.Add(1)
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		m := p.maxSeen.Load()
		if n <= m || p.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.decide != nil {
		return p.decide(doc)
	}
	return model.ProcessResult{Success: true, Action: model.ActionCreated, ProjectID: doc.URL}
}

type fakeRunStore struct {
	mu   sync.Mutex
	runs []model.Run
}

func (s *fakeRunStore) SaveRun(_ context.Context, run model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

func (s *fakeRunStore) ListRuns(context.Context, store.RunFilter) ([]model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Run(nil), s.runs...), nil
}

func (s *fakeRunStore) saved() []model.Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Run(nil), s.runs...)
}

func docs(source string, urls ...string) []model.SourceDocument {
	out := make([]model.SourceDocument, len(urls))
	for i, u := range urls {
		out[i] = model.SourceDocument{URL: u, Title: u, Type: "news", SourceName: source}
	}
	return out
}
