package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig loads rate limiting configuration from RATE_LIMIT_* environment variables.
func LoadConfig() *Config {
	return loadConfig(os.Getenv)
}

func loadConfig(getenv func(string) string) *Config {
	env := envReader(getenv)
	if !env.getBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    env.getInt("RATE_LIMIT_DEFAULT_LIMIT", 300),
		DefaultWindow:   env.getDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: env.getDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		IdleTTL:         env.getDuration("RATE_LIMIT_IDLE_TTL", time.Hour),
		Whitelist:       parseIPList(env.getString("RATE_LIMIT_WHITELIST", "")),
		Blacklist:       parseIPList(env.getString("RATE_LIMIT_BLACKLIST", "")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: multi-variant searches fan out into many upstream calls
		{Path: "/search", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},

		// Tier 2: single upstream call
		{Path: "/estimate", Method: "POST", Limit: 120, Window: time.Hour, Burst: 10},

		// Tier 3: local-only operations such as GET /variants use the default limit
		// Tier 4: health check is unlimited, handled in the matcher
	}
}

// envReader reads typed values with defaults; malformed values fall back to the default.
type envReader func(string) string

func (e envReader) getString(key, defaultValue string) string {
	if value := e(key); value != "" {
		return value
	}
	return defaultValue
}

func (e envReader) getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(e(key)); err == nil {
		return v
	}
	return defaultValue
}

func (e envReader) getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(e(key)); err == nil {
		return v
	}
	return defaultValue
}

func (e envReader) getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(e(key)); err == nil {
		return v
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a map.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	if list == "" {
		return result
	}

	ips := strings.Split(list, ",")
	for _, ip := range ips {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}

	return result
}

