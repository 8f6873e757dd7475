package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mining-intel/internal/config"
	"github.com/sells-group/mining-intel/internal/defaults"
	"github.com/sells-group/mining-intel/internal/extract"
	"github.com/sells-group/mining-intel/internal/fetcher"
	"github.com/sells-group/mining-intel/internal/metrics"
	"github.com/sells-group/mining-intel/internal/model"
	"github.com/sells-group/mining-intel/internal/ocr"
	"github.com/sells-group/mining-intel/internal/orchestrator"
	"github.com/sells-group/mining-intel/internal/processor"
	"github.com/sells-group/mining-intel/internal/progress"
	"github.com/sells-group/mining-intel/internal/queries"
	"github.com/sells-group/mining-intel/internal/resilience"
	"github.com/sells-group/mining-intel/internal/scrape"
	"github.com/sells-group/mining-intel/internal/search"
	"github.com/sells-group/mining-intel/internal/sources"
	"github.com/sells-group/mining-intel/internal/store"
	anthropicpkg "github.com/sells-group/mining-intel/pkg/anthropic"
	"github.com/sells-group/mining-intel/pkg/firecrawl"
	"github.com/sells-group/mining-intel/pkg/jina"
)

// Pipeline modes, matching config.Validate.
const (
	modeIngest   = "ingest"
	modeDiscover = "discover"
	modeServe    = "serve"
	modeQueries  = "queries"
)

// pipelineEnv holds the store, clients and pipelines needed by the
// ingest/discover/serve commands. Ingest and Discover are nil when the mode
// does not need them.
type pipelineEnv struct {
	Store    store.Store
	Progress *progress.Reporter
	Metrics  *metrics.Pipeline
	Runner   *orchestrator.Runner
	Ingest   *orchestrator.Orchestrator
	Discover *orchestrator.Discoverer
	Breakers *resilience.ServiceBreakers
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Runner != nil {
		pe.Runner.Wait()
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// Pipeline returns the entry point for a run kind, or nil.
func (pe *pipelineEnv) Pipeline(kind string) orchestrator.RunFunc {
	switch kind {
	case modeIngest:
		if pe.Ingest != nil {
			return pe.Ingest.Run
		}
	case modeDiscover:
		if pe.Discover != nil {
			return pe.Discover.Run
		}
	}
	return nil
}

// initPipeline validates the configuration for mode, opens and migrates the
// store, and builds the pipelines the mode runs. sourceNames restricts
// ingestion to the named sources. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string, sourceNames []string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	m := metrics.New()
	rep := progress.NewReporter()
	env := &pipelineEnv{
		Store:    st,
		Progress: rep,
		Metrics:  m,
		Runner:   orchestrator.NewRunner(st, m),
		Breakers: resilience.NewServiceBreakers(resilience.FromCircuitConfig(cfg.Resilience.CircuitThreshold, cfg.Resilience.CircuitResetSecs)),
	}

	retry := resilience.FromRetryConfig(cfg.Resilience.MaxAttempts, cfg.Resilience.InitialBackoffMs, cfg.Resilience.MaxBackoffMs)

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	firecrawlClient := firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
	jinaOpts := []jina.Option{jina.WithBaseURL(cfg.Jina.BaseURL), jina.WithRetry(retry)}
	if cfg.Jina.SearchBaseURL != "" {
		jinaOpts = append(jinaOpts, jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
	}
	jinaClient := jina.NewClient(cfg.Jina.Key, jinaOpts...)

	claude := extract.NewClaude(anthropicClient, extract.ClaudeConfig{
		Model:           cfg.Anthropic.Model,
		MaxTokens:       cfg.Anthropic.MaxTokens,
		ContentMaxChars: cfg.Pipeline.ContentMaxChars,
		Retry:           retry,
		Breaker:         env.Breakers.Get("anthropic"),
		Metrics:         m,
	})
	enricher := extract.NewEnricher(defaults.NewProvider(nil))

	if mode == modeIngest || mode == modeServe {
		srcCfgs, err := selectSources(cfg.Sources, sourceNames)
		if err != nil {
			env.Close()
			return nil, err
		}
		httpFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent: cfg.Fetcher.UserAgent,
			Timeout:   time.Duration(cfg.Fetcher.TimeoutSecs) * time.Second,
			Retry:     resilience.FromRetryConfig(cfg.Fetcher.MaxRetries, cfg.Resilience.InitialBackoffMs, cfg.Resilience.MaxBackoffMs),
		})
		fetchers, err := sources.Build(srcCfgs, sources.Deps{HTTP: httpFetcher, Jina: jinaClient})
		if err != nil {
			env.Close()
			return nil, eris.Wrap(err, "build sources")
		}

		// Scrape chain: local PDF text for reports, then Jina, Firecrawl
		// fallback, direct fetch last.
		var scrapers []scrape.Scraper
		pdfText, err := ocr.NewExtractor(cfg.OCR)
		if err != nil {
			env.Close()
			return nil, err
		}
		if pdfText != nil {
			scrapers = append(scrapers, scrape.NewPDFScraper(pdfText, cfg.Fetcher.UserAgent))
		}
		scrapers = append(scrapers,
			scrape.NewJinaAdapter(jinaClient, env.Breakers.Get("jina")),
			scrape.NewFirecrawlAdapter(firecrawlClient),
			scrape.NewLocalScraper(cfg.Fetcher.UserAgent),
		)
		chain := scrape.NewChain(scrape.NewURLFilter(nil, nil), scrapers...)
		proc := processor.New(chain, claude, enricher, st)
		env.Ingest = orchestrator.New(fetchers, proc, rep,
			orchestrator.WithConcurrency(cfg.Pipeline.Concurrency),
			orchestrator.WithMetrics(m),
		)
		zap.L().Info("ingest pipeline ready", zap.Int("sources", len(fetchers)))
	}

	if mode == modeDiscover || mode == modeServe {
		diversifier, err := newDiversifier()
		if err != nil {
			env.Close()
			return nil, err
		}
		var searcher search.Searcher
		switch cfg.Search.Provider {
		case "jina":
			searcher = search.NewJinaSearcher(jinaClient)
		default:
			searcher = search.NewFirecrawlSearcher(firecrawlClient)
		}
		worker := search.NewWorker(searcher, rep, search.Config{
			BatchSize:            cfg.Search.BatchSize,
			SufficiencyThreshold: cfg.Search.SufficiencyThreshold,
			QueryTimeout:         time.Duration(cfg.Search.QueryTimeoutSecs) * time.Second,
			ResultLimit:          cfg.Search.ResultLimit,
		})
		extractor := extract.NewProjectExtractor(claude, enricher,
			extract.WithProgress(rep),
			extract.WithMetrics(m),
			extract.WithMaxCandidates(cfg.Pipeline.MaxCandidates),
		)
		saver := processor.New(nil, claude, enricher, st)
		env.Discover = orchestrator.NewDiscoverer(diversifier, countingSearcher{worker, m}, extractor, saver, rep)
		zap.L().Info("discover pipeline ready", zap.String("search_provider", searcher.Name()))
	}

	return env, nil
}

// newDiversifier builds the query generator from configuration.
func newDiversifier() (*queries.Diversifier, error) {
	opts := []queries.Option{queries.WithMaxQueries(cfg.Queries.MaxQueries)}
	if cfg.Queries.VocabularyFile != "" {
		v, err := queries.LoadVocabulary(cfg.Queries.VocabularyFile)
		if err != nil {
			return nil, eris.Wrap(err, "load query vocabulary")
		}
		opts = append(opts, queries.WithVocabulary(v))
	}
	return queries.New(opts...), nil
}

// selectSources keeps the named sources in configuration order. No names
// selects all of them.
func selectSources(all []config.SourceConfig, names []string) ([]config.SourceConfig, error) {
	if len(names) == 0 {
		return all, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []config.SourceConfig
	for _, s := range all {
		if want[s.Name] {
			out = append(out, s)
			delete(want, s.Name)
		}
	}
	for _, n := range names {
		if want[n] {
			return nil, eris.Errorf("unknown source %q", n)
		}
	}
	return out, nil
}

// countingSearcher records how many queries each discovery run issues.
type countingSearcher struct {
	worker  *search.Worker
	metrics *metrics.Pipeline
}

func (c countingSearcher) ScrapeWithQueries(ctx context.Context, q []model.SearchQuery) []model.CandidateDocument {
	before := c.worker.Searched()
	docs := c.worker.ScrapeWithQueries(ctx, q)
	c.metrics.SearchQueries(int(c.worker.Searched() - before))
	return docs
}
