package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/getlisticled/internal/cache"
	"github.com/jonathan/getlisticled/internal/config"
	"github.com/jonathan/getlisticled/internal/discovery"
	"github.com/jonathan/getlisticled/internal/fetch"
	"github.com/jonathan/getlisticled/internal/llm"
	"github.com/jonathan/getlisticled/internal/observability"
	"github.com/sirupsen/logrus"
)

const cachePrefix = "getlisticled:"

// overrides carries command-line values that win over file and environment.
type overrides struct {
	Provider string
	APIKey   string
	LogLevel string
}

func currentOverrides() overrides {
	return overrides{Provider: provider, APIKey: apiKeyFlag, LogLevel: logLevel}
}

// resolveConfig layers defaults, the config file, the environment and flags, in
// increasing precedence, then validates the result.
func resolveConfig(path string, getenv func(string) string, o overrides) (*config.Config, error) {
	cfg := &config.Config{}
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.ApplyEnv(getenv)
	if o.Provider != "" {
		cfg.Provider = o.Provider
	}
	if o.APIKey != "" {
		cfg.APIKey = o.APIKey
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	// ApplyEnv read the key for the provider it saw; a flag may have changed it
	if cfg.APIKey == "" {
		if p, err := llm.ParseProvider(cfg.Provider); err == nil {
			cfg.APIKey = getenv(llm.APIKeyEnv(p))
		}
	}

	merged := cfg.MergeWithDefaults(config.Default())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// app bundles the long-lived dependencies of a command.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	service *discovery.Service

	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.WithError(err).Warn("failed to release resource")
		}
	}
}

// newApp resolves configuration and builds the discovery service from it.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := resolveConfig(configPath, os.Getenv, currentOverrides())
	if err != nil {
		return nil, err
	}
	log, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return buildApp(ctx, cfg, log)
}

func buildApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	client, err := newSearchClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)

	store, err := cache.New(ctx, cache.Config{
		Backend:       cfg.Cache.Backend,
		DefaultTTL:    cfg.CacheTTLDuration(),
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		Prefix:        cachePrefix,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	opts := discovery.Options{
		Templates:      cfg.Templates,
		MaxVariants:    cfg.MaxVariants,
		MaxResults:     cfg.MaxResults,
		Concurrency:    cfg.Concurrency,
		Pacer:          discovery.NewRatePacer(cfg.PacingDuration()),
		RequestTimeout: cfg.RequestTimeoutDuration(),
		Budget:         cfg.BudgetDuration(),
		Retries:        cfg.Retries,
		SearchPrompt:   cfg.SearchPrompt,
		EstimatePrompt: cfg.EstimatePrompt,
		CacheTTL:       cfg.CacheTTLDuration(),
		Logger:         log,
	}
	if store != nil {
		opts.Cache = store
		a.closers = append(a.closers, store.Close)
	}
	if cfg.Denylist != nil {
		opts.Denylist = &discovery.Denylist{Hosts: cfg.Denylist.Hosts, Patterns: cfg.Denylist.Patterns}
	}
	if cfg.EnrichTitles {
		var renderer fetch.Renderer
		if cfg.UseBrowser {
			renderer = fetch.NewBrowser(log)
		}
		opts.TitleFetcher = fetch.NewTitleFetcher(fetch.DefaultOptions(), renderer, log)
	}

	service, err := discovery.NewService(client, opts)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.service = service
	return a, nil
}

// newSearchClient builds the configured provider. A missing credential is a
// ConfigurationError so callers can tell it apart from upstream failures.
func newSearchClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	p, err := llm.ParseProvider(cfg.Provider)
	if err != nil {
		return nil, &discovery.ConfigurationError{Setting: "provider", Message: err.Error()}
	}
	if cfg.APIKey == "" {
		return nil, &discovery.ConfigurationError{
			Setting: "api_key",
			Message: fmt.Sprintf("set %s or pass --api-key", llm.APIKeyEnv(p)),
		}
	}

	lc := llm.ConfigFor(p)
	if cfg.BaseURL != "" {
		lc.BaseURL = cfg.BaseURL
	}
	lc.SearchEngineID = cfg.SearchEngineID
	for tier, model := range cfg.Models {
		lc = lc.WithModel(llm.ModelTier(strings.ToLower(tier)), model)
	}
	if d := cfg.RequestTimeoutDuration(); d > 0 {
		lc.Timeout = d
	}

	client, err := llm.NewClient(ctx, lc, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", p, err)
	}
	return client, nil
}

// queryArg joins positional arguments into one search phrase.
func queryArg(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
