package search

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/mining-intel/internal/model"
)

// Worker defaults.
const (
	DefaultBatchSize            = 5
	DefaultSufficiencyThreshold = 15
	DefaultQueryTimeout         = 30 * time.Second
	DefaultResultLimit          = 5
)

// ProgressSink receives batch progress. *progress.Reporter satisfies it.
type ProgressSink interface {
	Emit(stage model.ProgressStage, current, total int, ev model.Event)
}

// Config tunes the worker.
type Config struct {
	BatchSize            int
	SufficiencyThreshold int
	QueryTimeout         time.Duration
	ResultLimit          int
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.SufficiencyThreshold <= 0 {
		c.SufficiencyThreshold = DefaultSufficiencyThreshold
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = DefaultQueryTimeout
	}
	if c.ResultLimit <= 0 {
		c.ResultLimit = DefaultResultLimit
	}
	return c
}

// Worker runs queries in concurrent batches and keeps the relevant pages.
type Worker struct {
	searcher Searcher
	progress ProgressSink
	cfg      Config

	searched atomic.Int64
}

// NewWorker creates a Worker. progress may be nil.
func NewWorker(searcher Searcher, progress ProgressSink, cfg Config) *Worker {
	return &Worker{searcher: searcher, progress: progress, cfg: cfg.withDefaults()}
}

// Searched returns the number of queries issued over the worker's lifetime.
func (w *Worker) Searched() int64 {
	return w.searched.Load()
}

// ScrapeWithQueries searches each query and returns the relevant, distinct
// pages as candidate documents, ordered by batch then by query order. It
// stops after the batch that reaches the sufficiency threshold. A failing or
// slow query contributes nothing; the call as a whole never fails.
func (w *Worker) ScrapeWithQueries(ctx context.Context, queries []model.SearchQuery) []model.CandidateDocument {
	log := zap.L().With(zap.String("searcher", w.searcher.Name()))

	var docs []model.CandidateDocument
	seen := make(map[string]bool)

	for start := 0; start < len(queries); start += w.cfg.BatchSize {
		if ctx.Err() != nil {
			log.Warn("search: context done, stopping early", zap.Error(ctx.Err()))
			break
		}

		end := min(start+w.cfg.BatchSize, len(queries))
		batch := queries[start:end]
		results := w.runBatch(ctx, batch)

		for i, pages := range results {
			for _, p := range pages {
				if p.URL == "" || seen[p.URL] || !Relevant(p.Title, p.Content) {
					continue
				}
				seen[p.URL] = true
				docs = append(docs, model.CandidateDocument{
					URL:         p.URL,
					Title:       p.Title,
					Content:     p.Content,
					SourceQuery: batch[i],
				})
			}
		}

		if w.progress != nil {
			texts := make([]string, len(batch))
			for i, q := range batch {
				texts[i] = q.Text
			}
			w.progress.Emit(model.ProgressCollecting, end, len(queries), model.Event{
				Kind:      model.EventSearchBatch,
				Queries:   texts,
				Documents: len(docs),
			})
		}

		log.Debug("search: batch complete",
			zap.Int("queries_done", end),
			zap.Int("documents", len(docs)),
		)

		if len(docs) >= w.cfg.SufficiencyThreshold {
			log.Info("search: sufficiency threshold reached",
				zap.Int("documents", len(docs)),
				zap.Int("queries_used", end),
			)
			break
		}
	}

	return docs
}

// runBatch searches every query of the batch concurrently. Slot i holds the
// pages for batch[i].
func (w *Worker) runBatch(ctx context.Context, batch []model.SearchQuery) [][]Page {
	results := make([][]Page, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.BatchSize)
	for i, q := range batch {
		g.Go(func() error {
			results[i] = w.searchOne(gctx, q)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (w *Worker) searchOne(ctx context.Context, q model.SearchQuery) []Page {
	w.searched.Add(1)

	qctx, cancel := context.WithTimeout(ctx, w.cfg.QueryTimeout)
	defer cancel()

	type outcome struct {
		pages []Page
		err   error
	}
	ch := make(chan outcome, 1)
	go func() {
		pages, err := w.searcher.Search(qctx, q.Text, Options{
			ResultLimit:   w.cfg.ResultLimit,
			Timeout:       w.cfg.QueryTimeout,
			ContentFormat: "markdown",
		})
		ch <- outcome{pages, err}
	}()

	select {
	case <-qctx.Done():
		zap.L().Warn("search: query timed out",
			zap.String("query", q.Text),
			zap.Duration("timeout", w.cfg.QueryTimeout),
		)
		return nil
	case out := <-ch:
		if out.err != nil {
			zap.L().Warn("search: query failed",
				zap.String("query", q.Text),
				zap.Error(out.err),
			)
			return nil
		}
		return out.pages
	}
}
