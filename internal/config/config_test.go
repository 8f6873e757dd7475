package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, int64(4096), cfg.Anthropic.MaxTokens)
	assert.Equal(t, "firecrawl", cfg.Search.Provider)
	assert.Equal(t, 5, cfg.Search.BatchSize)
	assert.Equal(t, 15, cfg.Search.SufficiencyThreshold)
	assert.Equal(t, 30, cfg.Search.QueryTimeoutSecs)
	assert.Equal(t, 30, cfg.Queries.MaxQueries)
	assert.Equal(t, 2, cfg.Pipeline.Concurrency)
	assert.Equal(t, 3, cfg.Pipeline.MaxCandidates)
	assert.Equal(t, "https://r.jina.ai", cfg.Jina.BaseURL)
	assert.Equal(t, "https://api.firecrawl.dev/v2", cfg.Firecrawl.BaseURL)
	assert.Equal(t, 3, cfg.Resilience.MaxAttempts)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 24, cfg.Monitoring.LookbackWindowHours)
	assert.InDelta(t, 0.5, cfg.Monitoring.FailureRateThreshold, 1e-9)
	assert.Empty(t, cfg.Monitoring.WebhookURL)
	assert.Equal(t, "local", cfg.OCR.Provider)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, DefaultSources(), cfg.Sources)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/mining
pipeline:
  concurrency: 4
log:
  level: debug
  format: console
sources:
  - name: juniors
    kind: listing
    url: https://example.com/news
    item_selector: div.release
    link_selector: a.headline
    limit: 5
  - name: filings
    kind: edgar
    query: lithium "preliminary economic assessment"
    forms: [6-K, 40-F]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 4, cfg.Pipeline.Concurrency)
	assert.Equal(t, "console", cfg.Log.Format)
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "juniors", cfg.Sources[0].Name)
	assert.Equal(t, "div.release", cfg.Sources[0].ItemSelector)
	assert.Equal(t, 5, cfg.Sources[0].Limit)
	assert.Equal(t, []string{"6-K", "40-F"}, cfg.Sources[1].Forms)
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Pipeline.MaxCandidates)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
search:
  provider: jina
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("MINING_STORE_DRIVER", "postgres")
	t.Setenv("MINING_SEARCH_PROVIDER", "firecrawl")
	t.Setenv("MINING_ANTHROPIC_KEY", "sk-ant-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "firecrawl", cfg.Search.Provider)
	assert.Equal(t, "sk-ant-test", cfg.Anthropic.Key)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.NotNil(t, zap.L())
	assert.Error(t, InitLogger(LogConfig{Level: "invalid", Format: "json"}))
}

// validDefaults returns a Config that passes validation in every mode.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "mining.db"
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.Firecrawl.Key = "fc-key"
	cfg.Search = SearchConfig{Provider: "firecrawl", BatchSize: 5, SufficiencyThreshold: 15, QueryTimeoutSecs: 30, ResultLimit: 5}
	cfg.Queries.MaxQueries = 30
	cfg.Pipeline = PipelineConfig{Concurrency: 2, MaxCandidates: 3}
	cfg.Sources = DefaultSources()
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate_AllModes(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"ingest", "discover", "serve", "queries"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidate_UnknownMode(t *testing.T) {
	err := validDefaults().Validate("export")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.Anthropic.Key = ""
	cfg.Pipeline.Concurrency = 0

	err := cfg.Validate("ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be postgres or sqlite")
	assert.Contains(t, err.Error(), "anthropic.key is required")
	assert.Contains(t, err.Error(), "pipeline.concurrency must be between 1 and 16")
}

func TestValidate_QueriesNeedsNoKeys(t *testing.T) {
	cfg := &Config{}
	cfg.Queries.MaxQueries = 10
	assert.NoError(t, cfg.Validate("queries"))

	cfg.Queries.MaxQueries = 0
	assert.Error(t, cfg.Validate("queries"))
}

func TestValidate_Search(t *testing.T) {
	cfg := validDefaults()
	cfg.Search.Provider = "bing"
	err := cfg.Validate("discover")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.provider must be firecrawl or jina")

	cfg.Search.Provider = "firecrawl"
	cfg.Firecrawl.Key = ""
	err = cfg.Validate("discover")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firecrawl.key is required")

	cfg.Search.Provider = "jina"
	assert.NoError(t, cfg.Validate("discover"))

	// ingest does not search.
	cfg.Search.Provider = "bing"
	assert.NoError(t, cfg.Validate("ingest"))
}

func TestValidate_Sources(t *testing.T) {
	tests := []struct {
		name    string
		source  SourceConfig
		wantErr string
	}{
		{"unknown kind", SourceConfig{Name: "x", Kind: "ftp"}, `kind "ftp" is unknown`},
		{"missing name", SourceConfig{Kind: SourceRSS, URL: "https://a.example/feed"}, "name is required"},
		{"rss without url", SourceConfig{Name: "x", Kind: SourceRSS}, "url is required for kind rss"},
		{"listing without selector", SourceConfig{Name: "x", Kind: SourceListing, URL: "https://a.example"}, "item_selector are required"},
		{"edgar without query", SourceConfig{Name: "x", Kind: SourceEdgar}, "query is required for kind edgar"},
		{"duplicate name", SourceConfig{Name: "sec-edgar", Kind: SourceSearch, Query: "q"}, "is duplicated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			cfg.Sources = append(cfg.Sources, tt.source)
			err := cfg.Validate("ingest")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ServePort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidate_OCR(t *testing.T) {
	cfg := validDefaults()
	cfg.OCR.Provider = "mistral"
	err := cfg.Validate("ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr.mistral_key is required")

	cfg.OCR.MistralKey = "k"
	assert.NoError(t, cfg.Validate("ingest"))

	cfg.OCR.Provider = "tesseract"
	err = cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `ocr.provider must be local, mistral or none, got "tesseract"`)

	assert.NoError(t, cfg.Validate("discover"), "discovery never reads PDFs")
}
