// Package config loads, validates and merges service configuration.
// Files may be JSON or YAML; environment variables overlay file values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/getlisticled/internal/schemas"
	"gopkg.in/yaml.v3"
)

// Default values applied by Default and MergeWithDefaults.
const (
	DefaultProvider       = "perplexity"
	DefaultConcurrency    = 1
	DefaultMaxVariants    = 12
	DefaultMaxResults     = 50
	DefaultPacing         = "800ms"
	DefaultRequestTimeout = "25s"
	DefaultBudget         = "90s"
	DefaultCacheBackend   = "none"
	DefaultCacheTTL       = "6h"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultPort           = 8080
)

// Config represents the service configuration. All fields are optional.
type Config struct {
	// Provider
	Provider       string            `json:"provider,omitempty" yaml:"provider,omitempty"`
	APIKey         string            `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL        string            `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	SearchEngineID string            `json:"search_engine_id,omitempty" yaml:"search_engine_id,omitempty"`
	Models         map[string]string `json:"models,omitempty" yaml:"models,omitempty"`

	// Discovery
	Templates      []string  `json:"templates,omitempty" yaml:"templates,omitempty"`
	Denylist       *Denylist `json:"denylist,omitempty" yaml:"denylist,omitempty"`
	Concurrency    int       `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	MaxVariants    int       `json:"max_variants,omitempty" yaml:"max_variants,omitempty"`
	MaxResults     int       `json:"max_results,omitempty" yaml:"max_results,omitempty"`
	Retries        int       `json:"retries,omitempty" yaml:"retries,omitempty"`
	Pacing         string    `json:"pacing,omitempty" yaml:"pacing,omitempty"`
	RequestTimeout string    `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty"`
	Budget         string    `json:"budget,omitempty" yaml:"budget,omitempty"`
	SearchPrompt   string    `json:"search_prompt,omitempty" yaml:"search_prompt,omitempty"`
	EstimatePrompt string    `json:"estimate_prompt,omitempty" yaml:"estimate_prompt,omitempty"`

	Cache Cache `json:"cache,omitempty" yaml:"cache,omitempty"`

	// Title enrichment
	EnrichTitles bool `json:"enrich_titles,omitempty" yaml:"enrich_titles,omitempty"`
	UseBrowser   bool `json:"use_browser,omitempty" yaml:"use_browser,omitempty"`

	// Runtime
	LogLevel  string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty" yaml:"log_format,omitempty"`
	Port      int    `json:"port,omitempty" yaml:"port,omitempty"`
}

// Denylist overrides the built-in non-article hosts and URL patterns.
type Denylist struct {
	Hosts    []string `json:"hosts,omitempty" yaml:"hosts,omitempty"`
	Patterns []string `json:"patterns,omitempty" yaml:"patterns,omitempty"`
}

// Cache selects the result cache backend.
type Cache struct {
	Backend       string `json:"backend,omitempty" yaml:"backend,omitempty"`
	TTL           string `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	RedisAddr     string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
}

// Default returns a Config holding every default value.
func Default() Config {
	return Config{
		Provider:       DefaultProvider,
		Concurrency:    DefaultConcurrency,
		MaxVariants:    DefaultMaxVariants,
		MaxResults:     DefaultMaxResults,
		Pacing:         DefaultPacing,
		RequestTimeout: DefaultRequestTimeout,
		Budget:         DefaultBudget,
		Cache:          Cache{Backend: DefaultCacheBackend, TTL: DefaultCacheTTL},
		LogLevel:       DefaultLogLevel,
		LogFormat:      DefaultLogFormat,
		Port:           DefaultPort,
	}
}

// LoadConfig loads configuration from a JSON or YAML file (by extension) and
// validates the document against the embedded config schema.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var (
		doc interface{}
		cfg Config
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
		if doc == nil {
			doc = map[string]interface{}{}
		}
		if err := schemas.ValidateDocument(schemas.Config, doc); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
		if err := schemas.ValidateDocument(schemas.Config, doc); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// ApplyEnv overlays environment variables onto c. getenv is usually os.Getenv.
// The provider's API key variable is only read when no key is configured.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("SEARCH_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := getenv("SEARCH_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if c.APIKey == "" {
		c.APIKey = getenv(apiKeyEnv(c.Provider))
	}
	if v := getenv("GOOGLE_CSE_ID"); v != "" {
		c.SearchEngineID = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
		if c.Cache.Backend == "" || c.Cache.Backend == "none" {
			c.Cache.Backend = "redis"
		}
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.RedisPassword = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
}

func apiKeyEnv(provider string) string {
	switch strings.ToLower(provider) {
	case "gemini":
		return "GEMINI_API_KEY"
	case "customsearch":
		return "GOOGLE_API_KEY"
	default:
		return "PERPLEXITY_API_KEY"
	}
}

// Validate checks that the configuration has valid values. A missing API key is
// not an error here; the service reports it as a configuration error when built.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Provider) {
	case "", "perplexity", "gemini", "customsearch":
	default:
		return fmt.Errorf("config error: unknown provider %q", c.Provider)
	}

	if c.Concurrency < 0 || c.Concurrency > 5 {
		return fmt.Errorf("config error: 'concurrency' must be between 1 and 5")
	}
	if c.MaxVariants < 0 || c.MaxVariants > 12 {
		return fmt.Errorf("config error: 'max_variants' must be between 1 and 12")
	}
	if c.MaxResults < 0 || c.MaxResults > 50 {
		return fmt.Errorf("config error: 'max_results' must be between 1 and 50")
	}
	if c.Retries < 0 || c.Retries > 3 {
		return fmt.Errorf("config error: 'retries' must be between 0 and 3")
	}

	for name, value := range map[string]string{
		"pacing":          c.Pacing,
		"request_timeout": c.RequestTimeout,
		"budget":          c.Budget,
		"cache.ttl":       c.Cache.TTL,
	} {
		if _, err := parseDuration(value); err != nil {
			return fmt.Errorf("config error: '%s': %w", name, err)
		}
	}

	switch strings.ToLower(c.Cache.Backend) {
	case "", "none", "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("config error: redis cache requires 'cache.redis_addr' or REDIS_ADDR")
		}
	default:
		return fmt.Errorf("config error: unknown cache backend %q", c.Cache.Backend)
	}

	if strings.EqualFold(c.Provider, "customsearch") && c.SearchEngineID == "" {
		return fmt.Errorf("config error: customsearch provider requires 'search_engine_id' or GOOGLE_CSE_ID")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 1 and 65535")
	}

	return nil
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
// Bool fields cannot distinguish unset from false and are not merged.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.BaseURL == "" {
		result.BaseURL = defaults.BaseURL
	}
	if result.SearchEngineID == "" {
		result.SearchEngineID = defaults.SearchEngineID
	}
	if len(result.Models) == 0 {
		result.Models = defaults.Models
	}
	if result.Templates == nil {
		result.Templates = defaults.Templates
	}
	if result.Denylist == nil {
		result.Denylist = defaults.Denylist
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if result.MaxVariants == 0 {
		result.MaxVariants = defaults.MaxVariants
	}
	if result.MaxResults == 0 {
		result.MaxResults = defaults.MaxResults
	}
	if result.Retries == 0 {
		result.Retries = defaults.Retries
	}
	if result.Pacing == "" {
		result.Pacing = defaults.Pacing
	}
	if result.RequestTimeout == "" {
		result.RequestTimeout = defaults.RequestTimeout
	}
	if result.Budget == "" {
		result.Budget = defaults.Budget
	}
	if result.SearchPrompt == "" {
		result.SearchPrompt = defaults.SearchPrompt
	}
	if result.EstimatePrompt == "" {
		result.EstimatePrompt = defaults.EstimatePrompt
	}
	if result.Cache.Backend == "" {
		result.Cache.Backend = defaults.Cache.Backend
	}
	if result.Cache.TTL == "" {
		result.Cache.TTL = defaults.Cache.TTL
	}
	if result.Cache.RedisAddr == "" {
		result.Cache.RedisAddr = defaults.Cache.RedisAddr
	}
	if result.Cache.RedisPassword == "" {
		result.Cache.RedisPassword = defaults.Cache.RedisPassword
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	return result
}

// PacingDuration returns the parsed pacing interval.
func (c *Config) PacingDuration() time.Duration { return mustDuration(c.Pacing) }

// RequestTimeoutDuration returns the parsed per-request timeout.
func (c *Config) RequestTimeoutDuration() time.Duration { return mustDuration(c.RequestTimeout) }

// BudgetDuration returns the parsed overall search budget.
func (c *Config) BudgetDuration() time.Duration { return mustDuration(c.Budget) }

// CacheTTLDuration returns the parsed cache TTL.
func (c *Config) CacheTTLDuration() time.Duration { return mustDuration(c.Cache.TTL) }

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative")
	}
	return d, nil
}

// mustDuration is used after Validate; invalid values collapse to zero (the default).
func mustDuration(s string) time.Duration {
	d, _ := parseDuration(s)
	return d
}
