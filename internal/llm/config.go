// Package llm provides centralized configuration and clients for the AI search providers.
// Every provider answers a search prompt with free text plus a list of citation URLs.
package llm

import (
	"fmt"
	"strings"
	"time"
)

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for cheap single calls such as the result-count estimate
	TierLite ModelTier = "lite"
	// TierStandard is for the per-variant listicle searches
	TierStandard ModelTier = "standard"
)

// Provider represents an AI search provider
type Provider string

// Provider constants define supported search providers
const (
	// ProviderPerplexity is an OpenAI-compatible chat completion API that returns citations
	ProviderPerplexity Provider = "perplexity"
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderCustomSearch is Google Programmable Search
	ProviderCustomSearch Provider = "customsearch"
)

const (
	// DefaultPerplexityBaseURL is the Perplexity API root
	DefaultPerplexityBaseURL = "https://api.perplexity.ai"
	// DefaultTemperature keeps model output close to the cited sources
	DefaultTemperature = 0.2
	// DefaultTimeout bounds one provider call
	DefaultTimeout = 25 * time.Second
)

// Config holds the provider configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	// SearchEngineID is the Programmable Search engine id (cx); customsearch only.
	SearchEngineID string
}

// DefaultConfig returns the default configuration (currently Perplexity)
func DefaultConfig() *Config {
	return DefaultPerplexityConfig()
}

// DefaultPerplexityConfig returns the default Perplexity configuration
func DefaultPerplexityConfig() *Config {
	return &Config{
		Provider: ProviderPerplexity,
		Models: map[ModelTier]string{
			TierLite:     "sonar",
			TierStandard: "sonar-pro",
		},
		BaseURL:     DefaultPerplexityBaseURL,
		Temperature: DefaultTemperature,
		Timeout:     DefaultTimeout,
	}
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
		},
		Temperature: DefaultTemperature,
		Timeout:     DefaultTimeout,
	}
}

// DefaultCustomSearchConfig returns the default Programmable Search configuration.
// Models are unused; the engine is selected by SearchEngineID.
func DefaultCustomSearchConfig() *Config {
	return &Config{
		Provider: ProviderCustomSearch,
		Models:   map[ModelTier]string{},
		Timeout:  DefaultTimeout,
	}
}

// ConfigFor returns the default configuration of a provider.
func ConfigFor(provider Provider) *Config {
	switch provider {
	case ProviderGemini:
		return DefaultGeminiConfig()
	case ProviderCustomSearch:
		return DefaultCustomSearchConfig()
	default:
		return DefaultPerplexityConfig()
	}
}

// ParseProvider converts a provider name from configuration.
func ParseProvider(name string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(name))); p {
	case "":
		return ProviderPerplexity, nil
	case ProviderPerplexity, ProviderGemini, ProviderCustomSearch:
		return p, nil
	default:
		return "", fmt.Errorf("unknown search provider %q", name)
	}
}

// APIKeyEnv names the environment variable holding the provider's API key.
func APIKeyEnv(provider Provider) string {
	switch provider {
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderCustomSearch:
		return "GOOGLE_API_KEY"
	default:
		return "PERPLEXITY_API_KEY"
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := *c
	newConfig.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return &newConfig
}
