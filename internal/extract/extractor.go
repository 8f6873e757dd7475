package extract

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sells-group/mining-intel/internal/metrics"
	"github.com/sells-group/mining-intel/internal/model"
)

// DefaultMaxCandidates caps candidates requested per document.
const DefaultMaxCandidates = 3

// ProgressSink receives extraction progress. *progress.Reporter satisfies it.
type ProgressSink interface {
	Emit(stage model.ProgressStage, current, total int, ev model.Event)
}

// ProjectExtractor runs the multi-document path: extract, validate,
// deduplicate, enrich.
type ProjectExtractor struct {
	capability    Capability
	enricher      *Enricher
	progress      ProgressSink
	metrics       *metrics.Pipeline
	maxCandidates int
}

// ExtractorOption configures a ProjectExtractor.
type ExtractorOption func(*ProjectExtractor)

// WithProgress sets the progress sink.
func WithProgress(p ProgressSink) ExtractorOption {
	return func(e *ProjectExtractor) { e.progress = p }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Pipeline) ExtractorOption {
	return func(e *ProjectExtractor) { e.metrics = m }
}

// WithMaxCandidates sets the per-document candidate cap.
func WithMaxCandidates(n int) ExtractorOption {
	return func(e *ProjectExtractor) {
		if n > 0 {
			e.maxCandidates = n
		}
	}
}

// NewProjectExtractor creates a ProjectExtractor.
func NewProjectExtractor(c Capability, e *Enricher, opts ...ExtractorOption) *ProjectExtractor {
	pe := &ProjectExtractor{capability: c, enricher: e, maxCandidates: DefaultMaxCandidates}
	for _, o := range opts {
		o(pe)
	}
	return pe
}

// Extract processes docs in order and returns at most one project per dedup
// key; the first occurrence wins. A document whose extraction fails
// contributes nothing.
func (pe *ProjectExtractor) Extract(ctx context.Context, docs []model.CandidateDocument) []model.EnrichedProject {
	seen := make(map[string]bool)
	var out []model.EnrichedProject

	for i, doc := range docs {
		if ctx.Err() != nil {
			zap.L().Warn("extract: context done, stopping", zap.Int("remaining", len(docs)-i))
			break
		}

		pe.emit(i+1, len(docs), model.Event{
			Kind:      model.EventDocumentStarted,
			Source:    string(doc.SourceQuery.Category),
			Title:     doc.Title,
			Commodity: model.Commodity(doc.SourceQuery.Commodity),
		})

		raws, err := pe.capability.ExtractProjects(ctx, Input{
			URL:     doc.URL,
			Title:   doc.Title,
			Content: doc.Content,
			Kind:    "web article",
		}, pe.maxCandidates)
		if err != nil {
			level := zap.L().Warn
			if errors.Is(err, ErrUnparseable) {
				level = zap.L().Info
			}
			level("extract: document yielded no candidates",
				zap.String("url", doc.URL),
				zap.Error(err),
			)
			continue
		}
		if len(raws) > pe.maxCandidates {
			raws = raws[:pe.maxCandidates]
		}

		for _, raw := range raws {
			if !raw.Valid() {
				pe.metrics.Candidate("invalid")
				continue
			}
			key := raw.DedupKey()
			if seen[key] {
				pe.metrics.Candidate("duplicate")
				continue
			}
			seen[key] = true

			p := pe.enricher.Enrich(raw, Provenance{
				SourceURL:  doc.URL,
				ReportType: string(doc.SourceQuery.Category),
				DataSource: "web-search",
			})
			out = append(out, p)
			pe.metrics.Candidate("accepted")

			pe.emit(i+1, len(docs), model.Event{
				Kind:      model.EventCandidateAccepted,
				Project:   p.Name,
				Commodity: p.Commodity,
				Stage:     p.Stage,
			})
		}
	}

	return out
}

func (pe *ProjectExtractor) emit(current, total int, ev model.Event) {
	if pe.progress == nil {
		return
	}
	pe.progress.Emit(model.ProgressProcessing, current, total, ev)
}
