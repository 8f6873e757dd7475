package processor

import (
	"context"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mining-intel/internal/defaults"
	"github.com/sells-group/mining-intel/internal/extract"
	"github.com/sells-group/mining-intel/internal/model"
	"github.com/sells-group/mining-intel/internal/scrape"
	"github.com/sells-group/mining-intel/internal/sources"
	"github.com/sells-group/mining-intel/internal/store"
)

const filingURL = "https://www.sec.gov/Archives/edgar/data/1966983/000119312526101234/ex991.htm"

func newTestEnricher() *extract.Enricher {
	return extract.NewEnricher(defaults.NewProvider(rand.New(rand.NewPCG(3, 5))))
}

func filingDoc() model.SourceDocument {
	return model.SourceDocument{
		URL:        filingURL,
		Title:      "Lithium Americas 6-K: Feasibility Study Results",
		Type:       sources.TypeFiling,
		Date:       "2026-07-02",
		SourceName: "sec-edgar",
	}
}

func thackerPass() []model.RawExtractedProject {
	npv := 5700.0
	return []model.RawExtractedProject{{
		Name:      "Thacker Pass",
		Company:   "Lithium Americas",
		Location:  "Nevada, USA",
		Commodity: "lithium",
		Stage:     "construction",
		Metrics:   model.RawMetrics{NPVUSDM: &npv},
	}}
}

func scraped() *scrape.Result {
	return &scrape.Result{
		Page:   scrape.Page{URL: filingURL, Title: "ex991", Markdown: "# Thacker Pass Feasibility Study\nAfter-tax NPV of US$5.7 billion."},
		Source: "jina",
	}
}

func TestProcess_Created(t *testing.T) {
	sc := &mockScraper{}
	capability := &mockCapability{}
	st := &mockStore{}

	sc.On("Scrape", mock.Anything, filingURL).Return(scraped(), nil)
	capability.On("ExtractProjects", mock.Anything, mock.MatchedBy(func(in extract.Input) bool {
		return in.URL == filingURL && in.Kind == "SEC filing" &&
			in.Title == "Lithium Americas 6-K: Feasibility Study Results" &&
			in.Content == scraped().Page.Markdown
	}), 1).Return(thackerPass(), nil)
	st.On("FindByNameAndCompany", mock.Anything, "Thacker Pass", "Lithium Americas").Return(nil, nil)
	st.On("Create", mock.Anything, mock.MatchedBy(func(p model.EnrichedProject) bool {
		return p.SourceURL == filingURL && p.ReportType == sources.TypeFiling && p.DataSource == "sec-edgar" &&
			p.Commodity == model.CommodityLithium && p.Metrics.NPVUSDM == 5700
	})).Return("proj-1", nil)

	res := New(sc, capability, newTestEnricher(), st).Process(context.Background(), filingDoc())

	assert.Equal(t, model.ProcessResult{Success: true, Action: model.ActionCreated, ProjectID: "proj-1"}, res)
	sc.AssertExpectations(t)
	capability.AssertExpectations(t)
	st.AssertExpectations(t)
}

func TestProcess_Updated(t *testing.T) {
	capability := &mockCapability{}
	st := &mockStore{}

	doc := filingDoc()
	doc.Content = "inline content from the feed"
	capability.On("ExtractProjects", mock.Anything, mock.Anything, 1).Return(thackerPass(), nil)
	st.On("FindByNameAndCompany", mock.Anything, "Thacker Pass", "Lithium Americas").
		Return(&model.StoredProject{ID: "proj-9"}, nil)
	st.On("Update", mock.Anything, "proj-9", mock.Anything).Return(nil)

	res := New(nil, capability, newTestEnricher(), st).Process(context.Background(), doc)

	assert.True(t, res.Success)
	assert.Equal(t, model.ActionUpdated, res.Action)
	assert.Equal(t, "proj-9", res.ProjectID)
	st.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProcess_LookupErrorFallsBackToCreate(t *testing.T) {
	capability := &mockCapability{}
	st := &mockStore{}

	doc := filingDoc()
	doc.Content = "inline"
	capability.On("ExtractProjects", mock.Anything, mock.Anything, 1).Return(thackerPass(), nil)
	st.On("FindByNameAndCompany", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))
	st.On("Create", mock.Anything, mock.Anything).Return("proj-2", nil)

	res := New(nil, capability, newTestEnricher(), st).Process(context.Background(), doc)
	assert.Equal(t, model.ActionCreated, res.Action)
	assert.True(t, res.Success)
}

func TestProcess_DuplicateCreateBecomesUpdate(t *testing.T) {
	capability := &mockCapability{}
	st := &mockStore{}

	doc := filingDoc()
	doc.Content = "inline"
	capability.On("ExtractProjects", mock.Anything, mock.Anything, 1).Return(thackerPass(), nil)
	st.On("FindByNameAndCompany", mock.Anything, "Thacker Pass", "Lithium Americas").Return(nil, nil).Once()
	st.On("Create", mock.Anything, mock.Anything).Return("", store.ErrDuplicate)
	st.On("FindByNameAndCompany", mock.Anything, "Thacker Pass", "Lithium Americas").
		Return(&model.StoredProject{ID: "proj-3"}, nil).Once()
	st.On("Update", mock.Anything, "proj-3", mock.Anything).Return(nil)

	res := New(nil, capability, newTestEnricher(), st).Process(context.Background(), doc)
	assert.Equal(t, model.ProcessResult{Success: true, Action: model.ActionUpdated, ProjectID: "proj-3"}, res)
	st.AssertExpectations(t)
}

func TestProcess_Failures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(sc *mockScraper, c *mockCapability, st *mockStore)
		wantErr string
	}{
		{
			name: "scrape fails",
			setup: func(sc *mockScraper, _ *mockCapability, _ *mockStore) {
				sc.On("Scrape", mock.Anything, filingURL).Return(nil, errors.New("all scrapers failed"))
			},
			wantErr: "scrape " + filingURL,
		},
		{
			name: "empty scrape",
			setup: func(sc *mockScraper, _ *mockCapability, _ *mockStore) {
				sc.On("Scrape", mock.Anything, filingURL).Return(&scrape.Result{Source: "local_http"}, nil)
			},
			wantErr: "empty content from local_http",
		},
		{
			name: "unparseable",
			setup: func(sc *mockScraper, c *mockCapability, _ *mockStore) {
				sc.On("Scrape", mock.Anything, filingURL).Return(scraped(), nil)
				c.On("ExtractProjects", mock.Anything, mock.Anything, 1).Return(nil, extract.ErrUnparseable)
			},
			wantErr: "extraction produced no parseable record",
		},
		{
			name: "extraction error",
			setup: func(sc *mockScraper, c *mockCapability, _ *mockStore) {
				sc.On("Scrape", mock.Anything, filingURL).Return(scraped(), nil)
				c.On("ExtractProjects", mock.Anything, mock.Anything, 1).Return(nil, errors.New("overloaded"))
			},
			wantErr: "extraction failed",
		},
		{
			name: "no candidates",
			setup: func(sc *mockScraper, c *mockCapability, _ *mockStore) {
				sc.On("Scrape", mock.Anything, filingURL).Return(scraped(), nil)
				c.On("ExtractProjects", mock.Anything, mock.Anything, 1).Return([]model.RawExtractedProject{}, nil)
			},
			wantErr: "no project found in document",
		},
		{
			name: "create fails",
			setup: func(sc *mockScraper, c *mockCapability, st *mockStore) {
				sc.On("Scrape", mock.Anything, filingURL).Return(scraped(), nil)
				c.On("ExtractProjects", mock.Anything, mock.Anything, 1).Return(thackerPass(), nil)
				st.On("FindByNameAndCompany", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
				st.On("Create", mock.Anything, mock.Anything).Return("", errors.New("disk full"))
			},
			wantErr: `create "Thacker Pass"`,
		},
		{
			name: "update fails",
			setup: func(sc *mockScraper, c *mockCapability, st *mockStore) {
				sc.On("Scrape", mock.Anything, filingURL).Return(scraped(), nil)
				c.On("ExtractProjects", mock.Anything, mock.Anything, 1).Return(thackerPass(), nil)
				st.On("FindByNameAndCompany", mock.Anything, mock.Anything, mock.Anything).
					Return(&model.StoredProject{ID: "p"}, nil)
				st.On("Update", mock.Anything, "p", mock.Anything).Return(errors.New("deadlock"))
			},
			wantErr: `update "Thacker Pass"`,
		},
		{
			name: "panic",
			setup: func(sc *mockScraper, c *mockCapability, _ *mockStore) {
				sc.On("Scrape", mock.Anything, filingURL).Return(scraped(), nil)
				c.On("ExtractProjects", mock.Anything, mock.Anything, 1).Run(func(mock.Arguments) {
					panic("nil map write")
				})
			},
			wantErr: "panic: nil map write",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, c, st := &mockScraper{}, &mockCapability{}, &mockStore{}
			tt.setup(sc, c, st)

			res := New(sc, c, newTestEnricher(), st).Process(context.Background(), filingDoc())
			assert.False(t, res.Success)
			assert.Empty(t, res.Action)
			assert.Contains(t, res.Error, tt.wantErr)
		})
	}
}

func TestProcess_InvalidCandidateSkipped(t *testing.T) {
	capability := &mockCapability{}
	st := &mockStore{}

	doc := filingDoc()
	doc.Content = "inline"
	capability.On("ExtractProjects", mock.Anything, mock.Anything, 1).
		Return([]model.RawExtractedProject{{Name: "Unnamed deposit"}}, nil)

	res := New(nil, capability, newTestEnricher(), st).Process(context.Background(), doc)
	assert.Equal(t, model.ProcessResult{Success: true, Action: model.ActionSkipped}, res)
	st.AssertNotCalled(t, "FindByNameAndCompany", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_NoScraperNoContent(t *testing.T) {
	res := New(nil, &mockCapability{}, newTestEnricher(), &mockStore{}).Process(context.Background(), filingDoc())
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no content for")
}

func TestProcess_SQLiteCreateThenUpdate(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "proc.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	capability := &mockCapability{}
	capability.On("ExtractProjects", mock.Anything, mock.Anything, 1).Return(thackerPass(), nil)
	p := New(nil, capability, newTestEnricher(), st)

	doc := filingDoc()
	doc.Content = "inline"
	first := p.Process(context.Background(), doc)
	require.True(t, first.Success, first.Error)
	assert.Equal(t, model.ActionCreated, first.Action)

	second := p.Process(context.Background(), doc)
	require.True(t, second.Success, second.Error)
	assert.Equal(t, model.ActionUpdated, second.Action)
	assert.Equal(t, first.ProjectID, second.ProjectID)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "news article", kindOf(sources.TypeNews))
	assert.Equal(t, "investor deck", kindOf("investor deck"))
	assert.Equal(t, "document", kindOf(""))
}
