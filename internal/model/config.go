package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the complete realcheck configuration.
// It is read-only once an analysis starts.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Analysis     AnalysisConfig     `yaml:"analysis" mapstructure:"analysis"`
	Classifier   ClassifierConfig   `yaml:"classifier" mapstructure:"classifier"`
	Search       SearchConfig       `yaml:"search" mapstructure:"search"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Authority    AuthorityConfig    `yaml:"authority" mapstructure:"authority"`
}

// HTTPConfig controls article fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// AnalysisConfig holds the bounds used by extraction and scoring
type AnalysisConfig struct {
	MaxTextLength   int `yaml:"max_text_length" mapstructure:"max_text_length"`
	ClaimMinLength  int `yaml:"claim_min_length" mapstructure:"claim_min_length"`
	ClaimMaxLength  int `yaml:"claim_max_length" mapstructure:"claim_max_length"`
	MaxClaims       int `yaml:"max_claims" mapstructure:"max_claims"`
	ChunkSize       int `yaml:"chunk_size" mapstructure:"chunk_size"`
	MinAITextLength int `yaml:"min_ai_text_length" mapstructure:"min_ai_text_length"`
}

// ClassifierConfig selects the authorship classifier backend
type ClassifierConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"` // huggingface, llm, none
	Model       string        `yaml:"model" mapstructure:"model"`
	APIKey      string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// SearchConfig selects the web search provider
type SearchConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"` // duckduckgo, serpapi
	ResultLimit int           `yaml:"result_limit" mapstructure:"result_limit"`
	APIKey      string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// CacheConfig controls search result caching
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled" mapstructure:"enabled"`
	Backend       string        `yaml:"backend" mapstructure:"backend"` // memory, disk, layered, redis
	Dir           string        `yaml:"dir" mapstructure:"dir"`
	TTL           time.Duration `yaml:"ttl" mapstructure:"ttl"`
	RedisAddr     string        `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string        `yaml:"redis_password,omitempty" mapstructure:"redis_password"`
	RedisDB       int           `yaml:"redis_db" mapstructure:"redis_db"`
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	ClaimWorkers int `yaml:"claim_workers" mapstructure:"claim_workers"`
	BatchWorkers int `yaml:"batch_workers" mapstructure:"batch_workers"`
}

// RateLimitingConfig limits outbound requests per host
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	ReportsDir    string `yaml:"reports_dir" mapstructure:"reports_dir"`
	IncludeFooter bool   `yaml:"include_footer" mapstructure:"include_footer"`
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	BodyLimit       int           `yaml:"body_limit" mapstructure:"body_limit"`
	AnalysisTimeout time.Duration `yaml:"analysis_timeout" mapstructure:"analysis_timeout"`
}

// StoreConfig selects where reports are persisted
type StoreConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"` // file, sqlite, none
	Path    string `yaml:"path" mapstructure:"path"`       // sqlite database file
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"` // json, console
	OutputPath string `yaml:"output_path" mapstructure:"output_path"`
}

// LLMConfig configures the optional report summarizer
type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model          string `yaml:"model" mapstructure:"model"`
	APIKey         string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout        int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	StrictEvidence bool   `yaml:"strict_evidence" mapstructure:"strict_evidence"`
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// AuthorityConfig drives link tier classification
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"`
	PathPatterns     []PathPattern     `yaml:"path_patterns,omitempty" mapstructure:"path_patterns"`
}

// PathPattern maps a URL path regexp to a tier name
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Tier    string `yaml:"tier" mapstructure:"tier"`
}

// DefaultReportsDir returns ~/Downloads/realaicheck_reports, or a relative
// directory when the home directory cannot be resolved.
func DefaultReportsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "realaicheck_reports"
	}
	return filepath.Join(home, "Downloads", "realaicheck_reports")
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       20 * time.Second,
			UserAgent:     "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			MaxBodyBytes:  5_000_000,
			RespectRobots: false,
		},
		Analysis: AnalysisConfig{
			MaxTextLength:   6000,
			ClaimMinLength:  70,
			ClaimMaxLength:  300,
			MaxClaims:       6,
			ChunkSize:       512,
			MinAITextLength: 100,
		},
		Classifier: ClassifierConfig{
			Provider:    "huggingface",
			Model:       "openai-community/roberta-base-openai-detector",
			Timeout:     30 * time.Second,
			MaxAttempts: 3,
		},
		Search: SearchConfig{
			Provider:    "duckduckgo",
			ResultLimit: 3,
			Timeout:     15 * time.Second,
			MaxAttempts: 3,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Backend:   "memory",
			Dir:       filepath.Join(os.TempDir(), "realcheck-cache"),
			TTL:       6 * time.Hour,
			RedisAddr: "localhost:6379",
		},
		Concurrency: ConcurrencyConfig{
			ClaimWorkers: 3,
			BatchWorkers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Output: OutputConfig{
			ReportsDir:    DefaultReportsDir(),
			IncludeFooter: true,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    3 * time.Minute,
			BodyLimit:       1 << 20,
			AnalysisTimeout: 2 * time.Minute,
		},
		Store: StoreConfig{
			Backend: "file",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
		},
		LLM: LLMConfig{
			Timeout:        30,
			StrictEvidence: true,
			MaxTokens:      1000,
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"apnews.com",
				"reuters.com",
				"afp.com",
				"who.int",
				"un.org",
				"europa.eu",
				"doi.org",
				"snopes.com",
				"politifact.com",
				"factcheck.org",
				"fullfact.org",
			},
			SecondaryDomains: []string{
				"wikipedia.org",
				"bbc.co.uk",
				"bbc.com",
				"nytimes.com",
				"theguardian.com",
				"washingtonpost.com",
				"npr.org",
				"aljazeera.com",
			},
		},
	}
}

// Validate checks the configuration for inconsistent values
func (c *Config) Validate() error {
	a := c.Analysis
	if a.MaxTextLength <= 0 {
		return fmt.Errorf("analysis.max_text_length must be positive, got %d", a.MaxTextLength)
	}
	if a.ClaimMinLength < 0 || a.ClaimMaxLength < a.ClaimMinLength {
		return fmt.Errorf("invalid claim bounds: min %d, max %d", a.ClaimMinLength, a.ClaimMaxLength)
	}
	if a.MaxClaims <= 0 {
		return fmt.Errorf("analysis.max_claims must be positive, got %d", a.MaxClaims)
	}
	if a.ChunkSize <= 0 {
		return fmt.Errorf("analysis.chunk_size must be positive, got %d", a.ChunkSize)
	}
	if c.Search.ResultLimit <= 0 {
		return fmt.Errorf("search.result_limit must be positive, got %d", c.Search.ResultLimit)
	}
	if c.Concurrency.ClaimWorkers <= 0 {
		return fmt.Errorf("concurrency.claim_workers must be positive, got %d", c.Concurrency.ClaimWorkers)
	}
	return nil
}

// Snapshot returns the analysis settings recorded on each report
func (c *Config) Snapshot() AnalysisSnapshot {
	return AnalysisSnapshot{
		MaxTextLength:  c.Analysis.MaxTextLength,
		ClaimMinLength: c.Analysis.ClaimMinLength,
		ClaimMaxLength: c.Analysis.ClaimMaxLength,
		MaxClaims:      c.Analysis.MaxClaims,
		ChunkSize:      c.Analysis.ChunkSize,
		SearchResults:  c.Search.ResultLimit,
		Classifier:     c.Classifier.Provider,
		SearchProvider: c.Search.Provider,
	}
}
