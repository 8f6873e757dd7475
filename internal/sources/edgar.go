package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mining-intel/internal/config"
	"github.com/sells-group/mining-intel/internal/fetcher"
	"github.com/sells-group/mining-intel/internal/model"
)

const (
	edgarSearchURL   = "https://efts.sec.gov/LATEST/search-index"
	edgarArchiveURL  = "https://www.sec.gov/Archives/edgar/data"
	edgarLookbackDay = 30
)

// EdgarFetcher lists filing documents matching a full-text query through
// the EDGAR full-text search API.
type EdgarFetcher struct {
	name  string
	query string
	forms []string
	limit int
	http  fetcher.Fetcher

	searchURL  string
	archiveURL string
	now        func() time.Time
}

// NewEdgarFetcher creates an EdgarFetcher.
func NewEdgarFetcher(cfg config.SourceConfig, f fetcher.Fetcher) *EdgarFetcher {
	searchURL := edgarSearchURL
	if cfg.URL != "" {
		searchURL = cfg.URL
	}
	return &EdgarFetcher{
		name:       cfg.Name,
		query:      cfg.Query,
		forms:      cfg.Forms,
		limit:      cfg.Limit,
		http:       f,
		searchURL:  searchURL,
		archiveURL: edgarArchiveURL,
		now:        time.Now,
	}
}

// Name implements Fetcher.
func (e *EdgarFetcher) Name() string { return e.name }

// eftsResponse is the subset of the EDGAR full-text search response used
// here. _id is "<accession>:<file name>".
type eftsResponse struct {
	Hits struct {
		Hits []struct {
			ID     string `json:"_id"`
			Source struct {
				CIKs            []string `json:"ciks"`
				DisplayNames    []string `json:"display_names"`
				Form            string   `json:"form"`
				FileDate        string   `json:"file_date"`
				ADSH            string   `json:"adsh"`
				FileDescription string   `json:"file_description"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Fetch implements Fetcher.
func (e *EdgarFetcher) Fetch(ctx context.Context) ([]model.SourceDocument, error) {
	now := e.now().UTC()
	params := url.Values{}
	params.Set("q", e.query)
	if len(e.forms) > 0 {
		params.Set("forms", strings.Join(e.forms, ","))
	}
	params.Set("dateRange", "custom")
	params.Set("startdt", now.AddDate(0, 0, -edgarLookbackDay).Format("2006-01-02"))
	params.Set("enddt", now.Format("2006-01-02"))

	body, err := e.http.Download(ctx, e.searchURL+"?"+params.Encode())
	if err != nil {
		return nil, eris.Wrapf(err, "edgar: search %q", e.query)
	}
	result, err := fetcher.DecodeJSON[eftsResponse](body)
	_ = body.Close()
	if err != nil {
		return nil, eris.Wrap(err, "edgar: decode search results")
	}

	seen := make(map[string]bool)
	var docs []model.SourceDocument
	for _, hit := range result.Hits.Hits {
		src := hit.Source
		adsh, file, ok := strings.Cut(hit.ID, ":")
		if !ok || file == "" || len(src.CIKs) == 0 {
			zap.L().Debug("edgar: skipping hit without document", zap.String("id", hit.ID))
			continue
		}
		if src.ADSH != "" {
			adsh = src.ADSH
		}

		cik := strings.TrimLeft(src.CIKs[0], "0")
		docURL := fmt.Sprintf("%s/%s/%s/%s", e.archiveURL, cik, strings.ReplaceAll(adsh, "-", ""), file)
		if seen[docURL] {
			continue
		}
		seen[docURL] = true

		docs = append(docs, model.SourceDocument{
			URL:        docURL,
			Title:      edgarTitle(src.DisplayNames, src.Form, src.FileDescription),
			Type:       TypeFiling,
			Date:       normalizeDate(src.FileDate),
			SourceName: e.name,
		})
		if len(docs) >= e.limit {
			break
		}
	}
	return docs, nil
}

// edgarTitle builds "Company (form): description". Display names look like
// "Lithium Americas Corp. (LAC) (CIK 0001966983)".
func edgarTitle(names []string, form, description string) string {
	company := ""
	if len(names) > 0 {
		company = names[0]
		if i := strings.Index(company, " (CIK"); i >= 0 {
			company = company[:i]
		}
	}
	title := strings.TrimSpace(company + " " + form)
	if description != "" {
		title += ": " + description
	}
	return collapse(title)
}
