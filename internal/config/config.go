package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Queries    QueriesConfig    `yaml:"queries" mapstructure:"queries"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Fetcher    FetcherConfig    `yaml:"fetcher" mapstructure:"fetcher"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
	Sources    []SourceConfig   `yaml:"sources" mapstructure:"sources"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	OCR        OCRConfig        `yaml:"ocr" mapstructure:"ocr"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// FirecrawlConfig holds Firecrawl API settings.
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JinaConfig holds Jina AI Reader and Search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// SearchConfig configures the search-and-scrape worker.
type SearchConfig struct {
	Provider             string `yaml:"provider" mapstructure:"provider"`
	BatchSize            int    `yaml:"batch_size" mapstructure:"batch_size"`
	SufficiencyThreshold int    `yaml:"sufficiency_threshold" mapstructure:"sufficiency_threshold"`
	QueryTimeoutSecs     int    `yaml:"query_timeout_secs" mapstructure:"query_timeout_secs"`
	ResultLimit          int    `yaml:"result_limit" mapstructure:"result_limit"`
}

// QueriesConfig configures the query diversifier.
type QueriesConfig struct {
	MaxQueries     int    `yaml:"max_queries" mapstructure:"max_queries"`
	VocabularyFile string `yaml:"vocabulary_file" mapstructure:"vocabulary_file"`
}

// PipelineConfig configures document processing and extraction.
type PipelineConfig struct {
	Concurrency     int `yaml:"concurrency" mapstructure:"concurrency"`
	MaxCandidates   int `yaml:"max_candidates" mapstructure:"max_candidates"`
	ContentMaxChars int `yaml:"content_max_chars" mapstructure:"content_max_chars"`
}

// FetcherConfig configures source downloads.
type FetcherConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// ResilienceConfig configures retries and circuit breakers for external APIs.
type ResilienceConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	CircuitThreshold int `yaml:"circuit_threshold" mapstructure:"circuit_threshold"`
	CircuitResetSecs int `yaml:"circuit_reset_secs" mapstructure:"circuit_reset_secs"`
}

// Source kinds.
const (
	SourceEdgar   = "edgar"
	SourceRSS     = "rss"
	SourceListing = "listing"
	SourceSearch  = "search"
)

// SourceConfig describes one ingestion source. Which fields apply depends
// on Kind.
type SourceConfig struct {
	Name          string   `yaml:"name" mapstructure:"name"`
	Kind          string   `yaml:"kind" mapstructure:"kind"`
	URL           string   `yaml:"url" mapstructure:"url"`
	Query         string   `yaml:"query" mapstructure:"query"`
	Forms         []string `yaml:"forms" mapstructure:"forms"`
	Site          string   `yaml:"site" mapstructure:"site"`
	ItemSelector  string   `yaml:"item_selector" mapstructure:"item_selector"`
	LinkSelector  string   `yaml:"link_selector" mapstructure:"link_selector"`
	TitleSelector string   `yaml:"title_selector" mapstructure:"title_selector"`
	DateSelector  string   `yaml:"date_selector" mapstructure:"date_selector"`
	Limit         int      `yaml:"limit" mapstructure:"limit"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// MonitoringConfig configures run health alerts.
type MonitoringConfig struct {
	WebhookURL                 string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs          int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours        int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold       float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	DocumentErrorRateThreshold float64 `yaml:"document_error_rate_threshold" mapstructure:"document_error_rate_threshold"`
}

// OCRConfig configures text extraction from PDF documents.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
	MistralKey    string `yaml:"mistral_key" mapstructure:"mistral_key"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultSources are used when the configuration lists none.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:  "sec-edgar",
			Kind:  SourceEdgar,
			Query: `"feasibility study" mining "net present value"`,
			Forms: []string{"8-K", "6-K", "40-F", "10-K"},
			Limit: 20,
		},
		{
			Name:  "mining-news",
			Kind:  SourceRSS,
			URL:   "https://www.mining.com/feed/",
			Limit: 25,
		},
		{
			Name:  "press-wire",
			Kind:  SourceSearch,
			Query: "mining project feasibility study NPV IRR announces",
			Site:  "newsfilecorp.com",
			Limit: 10,
		},
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MINING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys without a real default are registered empty so
	// environment overrides reach Unmarshal.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("firecrawl.key", "")
	v.SetDefault("jina.key", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "mining-intel.db")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("search.provider", "firecrawl")
	v.SetDefault("search.batch_size", 5)
	v.SetDefault("search.sufficiency_threshold", 15)
	v.SetDefault("search.query_timeout_secs", 30)
	v.SetDefault("search.result_limit", 5)
	v.SetDefault("queries.max_queries", 30)
	v.SetDefault("pipeline.concurrency", 2)
	v.SetDefault("pipeline.max_candidates", 3)
	v.SetDefault("pipeline.content_max_chars", 60000)
	v.SetDefault("fetcher.user_agent", "mining-intel/1.0 (ops@example.com)")
	v.SetDefault("fetcher.timeout_secs", 30)
	v.SetDefault("fetcher.max_retries", 3)
	v.SetDefault("resilience.max_attempts", 3)
	v.SetDefault("resilience.initial_backoff_ms", 500)
	v.SetDefault("resilience.max_backoff_ms", 30000)
	v.SetDefault("resilience.circuit_threshold", 5)
	v.SetDefault("resilience.circuit_reset_secs", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.5)
	v.SetDefault("monitoring.document_error_rate_threshold", 0.8)
	v.SetDefault("ocr.provider", "local")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")
	v.SetDefault("ocr.mistral_key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultSources()
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. mode is one of "ingest",
// "discover", "serve" or "queries". Every problem found is reported.
func (c *Config) Validate(mode string) error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	switch mode {
	case "queries":
	case "ingest", "discover", "serve":
		c.validateStore(add)
		c.validatePipeline(add)
		if c.Anthropic.Key == "" {
			add("anthropic.key is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if mode == "queries" || mode == "discover" || mode == "serve" {
		if c.Queries.MaxQueries < 1 {
			add("queries.max_queries must be > 0")
		}
	}
	if mode == "discover" || mode == "serve" {
		c.validateSearch(add)
	}
	if mode == "ingest" || mode == "serve" {
		c.validateSources(add)
	}
	if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		add("server.port must be > 0 and <= 65535")
	}
	if mode == "ingest" || mode == "serve" {
		switch c.OCR.Provider {
		case "", "local", "none":
		case "mistral":
			if c.OCR.MistralKey == "" {
				add("ocr.mistral_key is required for ocr.provider mistral")
			}
		default:
			add("ocr.provider must be local, mistral or none, got %q", c.OCR.Provider)
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore(add func(string, ...any)) {
	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		add("store.driver must be postgres or sqlite, got %q", c.Store.Driver)
	}
	if c.Store.DatabaseURL == "" {
		add("store.database_url is required")
	}
}

func (c *Config) validatePipeline(add func(string, ...any)) {
	if c.Pipeline.Concurrency < 1 || c.Pipeline.Concurrency > 16 {
		add("pipeline.concurrency must be between 1 and 16")
	}
	if c.Pipeline.MaxCandidates < 1 {
		add("pipeline.max_candidates must be > 0")
	}
}

func (c *Config) validateSearch(add func(string, ...any)) {
	switch c.Search.Provider {
	case "firecrawl":
		if c.Firecrawl.Key == "" {
			add("firecrawl.key is required for search.provider firecrawl")
		}
	case "jina":
	default:
		add("search.provider must be firecrawl or jina, got %q", c.Search.Provider)
	}
	if c.Search.BatchSize < 1 {
		add("search.batch_size must be > 0")
	}
	if c.Search.SufficiencyThreshold < 1 {
		add("search.sufficiency_threshold must be > 0")
	}
	if c.Search.QueryTimeoutSecs < 1 {
		add("search.query_timeout_secs must be > 0")
	}
}

func (c *Config) validateSources(add func(string, ...any)) {
	seen := make(map[string]bool)
	for i, s := range c.Sources {
		if s.Name == "" {
			add("sources[%d].name is required", i)
		} else if seen[s.Name] {
			add("sources[%d].name %q is duplicated", i, s.Name)
		}
		seen[s.Name] = true

		switch s.Kind {
		case SourceEdgar, SourceSearch:
			if s.Query == "" {
				add("sources[%d].query is required for kind %s", i, s.Kind)
			}
		case SourceRSS:
			if s.URL == "" {
				add("sources[%d].url is required for kind rss", i)
			}
		case SourceListing:
			if s.URL == "" || s.ItemSelector == "" {
				add("sources[%d].url and item_selector are required for kind listing", i)
			}
		default:
			add("sources[%d].kind %q is unknown", i, s.Kind)
		}
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
