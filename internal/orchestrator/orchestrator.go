// Package orchestrator coordinates pipeline runs: collecting documents from
// every source, draining them through a bounded queue of document
// processors, and aggregating per-source outcomes.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/mining-intel/internal/metrics"
	"github.com/sells-group/mining-intel/internal/model"
	"github.com/sells-group/mining-intel/internal/progress"
	"github.com/sells-group/mining-intel/internal/sources"
)

// DefaultConcurrency bounds in-flight documents when no option sets it.
const DefaultConcurrency = 2

// DocumentProcessor handles one document. Implementations report failures
// in the result rather than returning errors.
type DocumentProcessor interface {
	Process(ctx context.Context, doc model.SourceDocument) model.ProcessResult
}

// Orchestrator runs the multi-source ingestion pipeline.
type Orchestrator struct {
	fetchers    []sources.Fetcher
	processor   DocumentProcessor
	progress    *progress.Reporter
	metrics     *metrics.Pipeline
	concurrency int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency sets how many documents are processed at once.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithMetrics records document metrics.
func WithMetrics(m *metrics.Pipeline) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an Orchestrator reporting into rep.
func New(fetchers []sources.Fetcher, proc DocumentProcessor, rep *progress.Reporter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetchers:    fetchers,
		processor:   proc,
		progress:    rep,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run collects and processes documents from every source. Source and
// document failures are recorded in the per-source results. Only failures
// of the run itself (cancellation, panics) are returned as errors, after
// being recorded in progress. Zero collected documents is reported as a
// progress error but is not an error for the caller.
func (o *Orchestrator) Run(ctx context.Context) (results []model.ScrapingResult, err error) {
	o.progress.Reset()
	agg := newAggregator(o.fetchers)

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("orchestrator: panic", zap.Any("panic", r), zap.Stack("stack"))
			err = eris.Errorf("orchestrator: panic: %v", r)
		}
		if err != nil {
			o.progress.SetStage(model.ProgressError, model.Event{Kind: model.EventRunFailed, Error: err.Error()})
			results = agg.results()
		}
	}()

	o.progress.Emit(model.ProgressCollecting, 0, len(o.fetchers), model.Event{Kind: model.EventRunStarted})

	docs, err := o.collect(ctx, agg)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		zap.L().Warn("orchestrator: no documents found")
		o.progress.SetStage(model.ProgressError, model.Event{Kind: model.EventNoDocuments})
		return agg.results(), nil
	}

	if err := o.process(ctx, docs, agg); err != nil {
		return nil, err
	}

	out := agg.results()
	saved := 0
	for _, r := range out {
		saved += r.ProjectsCreated + r.ProjectsUpdated
	}
	o.progress.Emit(model.ProgressCompleted, len(docs), len(docs), model.Event{
		Kind:      model.EventRunCompleted,
		Documents: len(docs),
		Projects:  saved,
	})
	zap.L().Info("orchestrator: run complete", zap.Int("documents", len(docs)), zap.Int("projects", saved))
	return out, nil
}

// collect fetches sources one at a time. A failing source is recorded and
// skipped.
func (o *Orchestrator) collect(ctx context.Context, agg *aggregator) ([]model.SourceDocument, error) {
	var docs []model.SourceDocument
	total := len(o.fetchers)
	for i, f := range o.fetchers {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "orchestrator: collect cancelled")
		}
		name := f.Name()
		o.progress.Emit(model.ProgressCollecting, i+1, total, model.Event{Kind: model.EventSourceFetching, Source: name})

		fetched, err := f.Fetch(ctx)
		if err != nil {
			zap.L().Warn("orchestrator: source failed", zap.String("source", name), zap.Error(err))
			agg.sourceFailed(name, err)
			o.progress.Emit(model.ProgressCollecting, i+1, total, model.Event{
				Kind: model.EventSourceFailed, Source: name, Error: err.Error(),
			})
			continue
		}

		for j := range fetched {
			fetched[j].SourceName = name
		}
		docs = append(docs, fetched...)
		zap.L().Info("orchestrator: source fetched", zap.String("source", name), zap.Int("documents", len(fetched)))
		o.progress.Emit(model.ProgressCollecting, i+1, total, model.Event{
			Kind: model.EventSourceFetched, Source: name, Documents: len(fetched),
		})
	}
	return docs, nil
}

// process drains docs through at most o.concurrency concurrent processors.
func (o *Orchestrator) process(ctx context.Context, docs []model.SourceDocument, agg *aggregator) error {
	total := len(docs)
	o.progress.Emit(model.ProgressProcessing, 0, total, model.Event{Kind: model.EventProcessingStarted, Documents: total})

	var (
		mu   sync.Mutex
		done int
	)
	var g errgroup.Group
	g.SetLimit(o.concurrency)

	for _, doc := range docs {
		if ctx.Err() != nil {
			break
		}
		o.progress.SetStage(model.ProgressProcessing, model.Event{
			Kind: model.EventDocumentStarted, Source: doc.SourceName, Title: doc.Title,
		})
		g.Go(func() error {
			o.metrics.StartDocument()
			start := time.Now()
			res := o.processOne(ctx, doc)
			o.metrics.FinishDocument(doc.SourceName, outcome(res), time.Since(start))

			mu.Lock()
			defer mu.Unlock()
			agg.record(doc.SourceName, res)
			done++
			o.progress.Emit(model.ProgressProcessing, done, total, model.Event{
				Kind:   model.EventDocumentProcessed,
				Source: doc.SourceName,
				Title:  doc.Title,
				Action: string(res.Action),
				Error:  res.Error,
			})
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "orchestrator: processing cancelled")
	}
	return nil
}

// processOne shields the queue from a processor that panics.
func (o *Orchestrator) processOne(ctx context.Context, doc model.SourceDocument) (res model.ProcessResult) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("orchestrator: document panic", zap.String("url", doc.URL), zap.Any("panic", r))
			res = model.ProcessResult{Success: false, Error: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return o.processor.Process(ctx, doc)
}

func outcome(res model.ProcessResult) string {
	if !res.Success {
		return "failed"
	}
	return string(res.Action)
}
