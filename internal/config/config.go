// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/firm-intel-crawler/internal/logging"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Run        RunConfig        `mapstructure:"run"`
	Fetch      FetchConfig      `mapstructure:"fetch"`
	Headless   HeadlessConfig   `mapstructure:"headless"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Listings   ListingsConfig   `mapstructure:"listings"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    logging.Config   `mapstructure:"logging"`
}

// RunConfig governs the orchestrator loop.
type RunConfig struct {
	TargetsFile   string   `mapstructure:"targets_file"`
	MaxTargets    int      `mapstructure:"max_targets"`
	BudgetSeconds int      `mapstructure:"budget_seconds"`
	SectionCap    int      `mapstructure:"section_cap"`
	ExtraPaths    []string `mapstructure:"extra_paths"`
	Progress      bool     `mapstructure:"progress"`
}

// FetchConfig controls page retrieval for both fetch modes.
type FetchConfig struct {
	Mode                  string  `mapstructure:"mode"`
	UserAgent             string  `mapstructure:"user_agent"`
	HomeTimeoutSeconds    int     `mapstructure:"home_timeout_seconds"`
	SectionTimeoutSeconds int     `mapstructure:"section_timeout_seconds"`
	SitemapTimeoutSeconds int     `mapstructure:"sitemap_timeout_seconds"`
	RespectRobots         bool    `mapstructure:"respect_robots"`
	RatePerSecond         float64 `mapstructure:"rate_per_second"`
	Burst                 int     `mapstructure:"burst"`
}

// HeadlessConfig configures the chromedp browser.
type HeadlessConfig struct {
	ExecPath  string `mapstructure:"exec_path"`
	NoSandbox bool   `mapstructure:"no_sandbox"`
}

// CheckpointConfig selects where crawl progress is persisted.
type CheckpointConfig struct {
	Backend   string `mapstructure:"backend"`
	Path      string `mapstructure:"path"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	GCSObject string `mapstructure:"gcs_object"`
}

// LLMConfig configures the extraction and embedding models.
type LLMConfig struct {
	Provider       string `mapstructure:"provider"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	MaxInputChars  int    `mapstructure:"max_input_chars"`
}

// StorageConfig selects the firm record backend.
type StorageConfig struct {
	Backend  string         `mapstructure:"backend"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig controls access to the pgvector database.
type PostgresConfig struct {
	DSN           string `mapstructure:"dsn"`
	FirmsTable    string `mapstructure:"firms_table"`
	InsightsTable string `mapstructure:"insights_table"`
	Dimensions    int    `mapstructure:"dimensions"`
	MaxConns      int32  `mapstructure:"max_conns"`
}

// ListingsConfig tunes the job board searchers.
type ListingsConfig struct {
	Location       string `mapstructure:"location"`
	MaxPages       int    `mapstructure:"max_pages"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ServerConfig controls the HTTP status server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// legacyEnv maps config keys onto the bare environment names older deployments export.
var legacyEnv = map[string]string{
	"run.max_targets":      "MAX_TARGETS",
	"llm.api_key":          "OPENAI_API_KEY",
	"storage.postgres.dsn": "DATABASE_URL",
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FIRMCRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for key, legacy := range legacyEnv {
		prefixed := "FIRMCRAWLER_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("run.targets_file", "targets.csv")
	v.SetDefault("run.max_targets", 0)
	v.SetDefault("run.budget_seconds", 3600)
	v.SetDefault("run.section_cap", 5)
	v.SetDefault("run.extra_paths", []string{})
	v.SetDefault("run.progress", false)
	v.SetDefault("fetch.mode", "headless")
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	v.SetDefault("fetch.home_timeout_seconds", 30)
	v.SetDefault("fetch.section_timeout_seconds", 10)
	v.SetDefault("fetch.sitemap_timeout_seconds", 8)
	v.SetDefault("fetch.respect_robots", false)
	v.SetDefault("fetch.rate_per_second", 0)
	v.SetDefault("fetch.burst", 1)
	v.SetDefault("headless.exec_path", "")
	v.SetDefault("headless.no_sandbox", false)
	v.SetDefault("checkpoint.backend", "file")
	v.SetDefault("checkpoint.path", "scraper_progress.json")
	v.SetDefault("checkpoint.gcs_bucket", "")
	v.SetDefault("checkpoint.gcs_object", "scraper_progress.json")
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.embedding_model", "text-embedding-3-small")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.max_input_chars", 15000)
	v.SetDefault("storage.backend", "postgres")
	v.SetDefault("storage.postgres.firms_table", "firms")
	v.SetDefault("storage.postgres.insights_table", "firm_insights")
	v.SetDefault("storage.postgres.dimensions", 1536)
	v.SetDefault("storage.postgres.max_conns", 4)
	v.SetDefault("listings.location", "London")
	v.SetDefault("listings.max_pages", 3)
	v.SetDefault("listings.timeout_seconds", 30)
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Run.BudgetSeconds <= 0 {
		return fmt.Errorf("run.budget_seconds must be > 0")
	}
	if c.Run.SectionCap <= 0 {
		return fmt.Errorf("run.section_cap must be > 0")
	}
	if c.Run.MaxTargets < 0 {
		return fmt.Errorf("run.max_targets must be >= 0")
	}
	switch c.Fetch.Mode {
	case "headless", "http":
	default:
		return fmt.Errorf("fetch.mode must be headless or http, got %q", c.Fetch.Mode)
	}
	if c.Fetch.HomeTimeoutSeconds <= 0 || c.Fetch.SectionTimeoutSeconds <= 0 || c.Fetch.SitemapTimeoutSeconds <= 0 {
		return fmt.Errorf("fetch timeouts must be > 0")
	}
	if c.Fetch.RatePerSecond < 0 {
		return fmt.Errorf("fetch.rate_per_second must be >= 0")
	}
	switch c.Checkpoint.Backend {
	case "file":
		if strings.TrimSpace(c.Checkpoint.Path) == "" {
			return fmt.Errorf("checkpoint.path is required for the file backend")
		}
	case "gcs":
		if c.Checkpoint.GCSBucket == "" || c.Checkpoint.GCSObject == "" {
			return fmt.Errorf("checkpoint.gcs_bucket and checkpoint.gcs_object are required for the gcs backend")
		}
	default:
		return fmt.Errorf("checkpoint.backend must be file or gcs, got %q", c.Checkpoint.Backend)
	}
	switch c.LLM.Provider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("llm.provider must be openai or ollama, got %q", c.LLM.Provider)
	}
	if c.LLM.MaxInputChars <= 0 {
		return fmt.Errorf("llm.max_input_chars must be > 0")
	}
	switch c.Storage.Backend {
	case "postgres", "memory":
	default:
		return fmt.Errorf("storage.backend must be postgres or memory, got %q", c.Storage.Backend)
	}
	if c.Listings.MaxPages <= 0 {
		return fmt.Errorf("listings.max_pages must be > 0")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the server is enabled")
	}
	return nil
}

// Budget is the wall-clock window a run may spend before suspending.
func (c RunConfig) Budget() time.Duration {
	return time.Duration(c.BudgetSeconds) * time.Second
}

// HomeTimeout bounds the home page fetch.
func (c FetchConfig) HomeTimeout() time.Duration {
	return time.Duration(c.HomeTimeoutSeconds) * time.Second
}

// SectionTimeout bounds each section page fetch.
func (c FetchConfig) SectionTimeout() time.Duration {
	return time.Duration(c.SectionTimeoutSeconds) * time.Second
}

// SitemapTimeout bounds each sitemap fetch.
func (c FetchConfig) SitemapTimeout() time.Duration {
	return time.Duration(c.SitemapTimeoutSeconds) * time.Second
}

// Timeout bounds each job board page fetch.
func (c ListingsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
