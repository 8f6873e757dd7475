package orchestrator

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mining-intel/internal/model"
	"github.com/sells-group/mining-intel/internal/progress"
)

// DiscoverySource names the result entry of a discovery run.
const DiscoverySource = "web-search"

// QueryGenerator produces the search queries for one discovery run.
type QueryGenerator interface {
	Generate() []model.SearchQuery
}

// DocumentSearcher turns queries into relevant scraped documents.
type DocumentSearcher interface {
	ScrapeWithQueries(ctx context.Context, queries []model.SearchQuery) []model.CandidateDocument
}

// ProjectExtractor turns documents into deduplicated, enriched projects.
type ProjectExtractor interface {
	Extract(ctx context.Context, docs []model.CandidateDocument) []model.EnrichedProject
}

// ProjectSaver creates or updates one project.
type ProjectSaver interface {
	Save(ctx context.Context, p model.EnrichedProject) model.ProcessResult
}

// Discoverer runs the search-driven path: generate queries, search and
// scrape, extract several projects per document, then save them.
type Discoverer struct {
	queries   QueryGenerator
	searcher  DocumentSearcher
	extractor ProjectExtractor
	saver     ProjectSaver
	progress  *progress.Reporter
}

// NewDiscoverer creates a Discoverer reporting into rep. rep should be the
// same reporter the searcher and extractor emit into.
func NewDiscoverer(q QueryGenerator, s DocumentSearcher, e ProjectExtractor, saver ProjectSaver, rep *progress.Reporter) *Discoverer {
	return &Discoverer{queries: q, searcher: s, extractor: e, saver: saver, progress: rep}
}

// Run executes one discovery run and returns a single result entry. As with
// Orchestrator.Run, zero documents is reported through progress only.
func (d *Discoverer) Run(ctx context.Context) (results []model.ScrapingResult, err error) {
	d.progress.Reset()
	res := model.ScrapingResult{Source: DiscoverySource, Errors: []string{}}

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("discover: panic", zap.Any("panic", r), zap.Stack("stack"))
			err = eris.Errorf("discover: panic: %v", r)
		}
		if err != nil {
			d.progress.SetStage(model.ProgressError, model.Event{Kind: model.EventRunFailed, Error: err.Error()})
			results = []model.ScrapingResult{res}
		}
	}()

	queries := d.queries.Generate()
	d.progress.Emit(model.ProgressCollecting, 0, len(queries), model.Event{Kind: model.EventRunStarted})

	docs := d.searcher.ScrapeWithQueries(ctx, queries)
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "discover: search cancelled")
	}
	if len(docs) == 0 {
		zap.L().Warn("discover: no documents found", zap.Int("queries", len(queries)))
		d.progress.SetStage(model.ProgressError, model.Event{Kind: model.EventNoDocuments})
		return []model.ScrapingResult{}, nil
	}
	res.DocumentsFound = len(docs)
	d.progress.Emit(model.ProgressProcessing, 0, len(docs), model.Event{Kind: model.EventProcessingStarted, Documents: len(docs)})

	projects := d.extractor.Extract(ctx, docs)
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "discover: save cancelled")
		}
		out := d.saveOne(ctx, p)
		switch {
		case !out.Success:
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", p.Name, out.Error))
		case out.Action == model.ActionCreated:
			res.ProjectsCreated++
		case out.Action == model.ActionUpdated:
			res.ProjectsUpdated++
		}
	}

	d.progress.Emit(model.ProgressCompleted, len(docs), len(docs), model.Event{
		Kind:      model.EventRunCompleted,
		Documents: len(docs),
		Projects:  res.ProjectsCreated + res.ProjectsUpdated,
	})
	zap.L().Info("discover: run complete",
		zap.Int("queries", len(queries)),
		zap.Int("documents", len(docs)),
		zap.Int("projects", len(projects)),
		zap.Int("created", res.ProjectsCreated),
		zap.Int("updated", res.ProjectsUpdated),
	)
	return []model.ScrapingResult{res}, nil
}

// saveOne keeps a panicking saver from failing the rest of the run.
func (d *Discoverer) saveOne(ctx context.Context, p model.EnrichedProject) (res model.ProcessResult) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("discover: save panic", zap.String("project", p.Name), zap.Any("panic", r))
			res = model.ProcessResult{Success: false, Error: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return d.saver.Save(ctx, p)
}
