// Package processor runs one listed source document through scrape,
// extraction, lookup and create-or-update.
package processor

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mining-intel/internal/extract"
	"github.com/sells-group/mining-intel/internal/model"
	"github.com/sells-group/mining-intel/internal/scrape"
	"github.com/sells-group/mining-intel/internal/sources"
	"github.com/sells-group/mining-intel/internal/store"
)

// Scraper fetches the content of one URL.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*scrape.Result, error)
}

// documentKinds describe source document types to the language model.
var documentKinds = map[string]string{
	sources.TypeFiling:       "SEC filing",
	sources.TypeNews:         "news article",
	sources.TypePressRelease: "press release",
	sources.TypeWeb:          "web page",
}

// Processor handles one document at a time and is safe for concurrent use.
type Processor struct {
	scraper    Scraper
	capability extract.Capability
	enricher   *extract.Enricher
	store      store.ProjectStore
}

// New creates a Processor.
func New(sc Scraper, c extract.Capability, e *extract.Enricher, st store.ProjectStore) *Processor {
	return &Processor{scraper: sc, capability: c, enricher: e, store: st}
}

// Process runs doc through the pipeline. It never returns an error or
// panics: every failure is reported through the result.
func (p *Processor) Process(ctx context.Context, doc model.SourceDocument) (res model.ProcessResult) {
	log := zap.L().With(zap.String("source", doc.SourceName), zap.String("url", doc.URL))
	defer func() {
		if r := recover(); r != nil {
			log.Error("processor: panic", zap.Any("panic", r), zap.Stack("stack"))
			res = failed(eris.Errorf("panic: %v", r))
		}
	}()

	content, title, err := p.content(ctx, doc)
	if err != nil {
		log.Warn("processor: no content", zap.Error(err))
		return failed(err)
	}

	raws, err := p.capability.ExtractProjects(ctx, extract.Input{
		URL:     doc.URL,
		Title:   title,
		Content: content,
		Kind:    kindOf(doc.Type),
	}, 1)
	if err != nil {
		log.Warn("processor: extraction failed", zap.Error(err))
		if errors.Is(err, extract.ErrUnparseable) {
			return failed(eris.Wrap(err, "extraction produced no parseable record"))
		}
		return failed(eris.Wrap(err, "extraction failed"))
	}
	if len(raws) == 0 {
		return failed(eris.New("no project found in document"))
	}
	raw := raws[0]
	if !raw.Valid() {
		log.Debug("processor: candidate missing name or company")
		return model.ProcessResult{Success: true, Action: model.ActionSkipped}
	}

	project := p.enricher.Enrich(raw, extract.Provenance{
		SourceURL:  doc.URL,
		ReportType: doc.Type,
		DataSource: doc.SourceName,
	})
	return p.Save(ctx, project)
}

func (p *Processor) content(ctx context.Context, doc model.SourceDocument) (string, string, error) {
	if strings.TrimSpace(doc.Content) != "" {
		return doc.Content, doc.Title, nil
	}
	if p.scraper == nil {
		return "", "", eris.Errorf("no content for %s", doc.URL)
	}
	scraped, err := p.scraper.Scrape(ctx, doc.URL)
	if err != nil {
		return "", "", eris.Wrapf(err, "scrape %s", doc.URL)
	}
	if strings.TrimSpace(scraped.Page.Markdown) == "" {
		return "", "", eris.Errorf("empty content from %s", scraped.Source)
	}
	title := doc.Title
	if title == "" {
		title = scraped.Page.Title
	}
	return scraped.Page.Markdown, title, nil
}

// Save creates or updates an enriched project keyed by name and company.
// Lookup errors other than "absent" are logged and treated as absent; a
// concurrent create surfaces as ErrDuplicate and is retried as an update.
func (p *Processor) Save(ctx context.Context, project model.EnrichedProject) model.ProcessResult {
	log := zap.L().With(zap.String("source", project.DataSource), zap.String("url", project.SourceURL))
	existing, err := p.store.FindByNameAndCompany(ctx, project.Name, project.Company)
	if err != nil {
		log.Warn("processor: project lookup failed", zap.String("project", project.Name), zap.Error(err))
		existing = nil
	}

	if existing == nil {
		id, err := p.store.Create(ctx, project)
		if err == nil {
			log.Info("processor: project created", zap.String("project", project.Name), zap.String("id", id))
			return model.ProcessResult{Success: true, Action: model.ActionCreated, ProjectID: id}
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return failed(eris.Wrapf(err, "create %q", project.Name))
		}
		existing, err = p.store.FindByNameAndCompany(ctx, project.Name, project.Company)
		if err != nil || existing == nil {
			return failed(eris.Errorf("create %q: duplicate but lookup failed: %v", project.Name, err))
		}
	}

	if err := p.store.Update(ctx, existing.ID, project); err != nil {
		return failed(eris.Wrapf(err, "update %q", project.Name))
	}
	log.Info("processor: project updated", zap.String("project", project.Name), zap.String("id", existing.ID))
	return model.ProcessResult{Success: true, Action: model.ActionUpdated, ProjectID: existing.ID}
}

func kindOf(docType string) string {
	if k, ok := documentKinds[docType]; ok {
		return k
	}
	if docType != "" {
		return docType
	}
	return "document"
}

func failed(err error) model.ProcessResult {
	return model.ProcessResult{Success: false, Error: err.Error()}
}
