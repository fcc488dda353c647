// Package discovery finds listicle articles for a niche by fanning one search phrase
// out into query variants, mining candidate URLs from AI search responses and merging
// the results into a deduplicated, bounded list.
package discovery

import (
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultMaxVariants caps the number of query variants produced by Expand.
	DefaultMaxVariants = 12
	// DefaultMaxResults caps the merged result list returned by Search.
	DefaultMaxResults = 50
	// DefaultPacing is the gap between consecutive upstream search calls.
	DefaultPacing = 800 * time.Millisecond
	// DefaultRequestTimeout bounds a single upstream search call.
	DefaultRequestTimeout = 25 * time.Second
	// DefaultBudget bounds one whole aggregation run.
	DefaultBudget = 90 * time.Second
	// DefaultCacheTTL is how long a merged result set stays cached.
	DefaultCacheTTL = 6 * time.Hour
	// MaxConcurrency is the upper bound on parallel variant searches.
	MaxConcurrency = 5
)

// ListicleResult is one discovered article.
type ListicleResult struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Domain string `json:"domain"`

	// Variant is the query variant whose search produced this result.
	Variant string `json:"-"`
	// TitleSource records which resolver strategy produced Title.
	TitleSource TitleSource `json:"-"`
}

// TitleSource identifies the strategy that produced a result title.
type TitleSource string

const (
	// TitleFromContext is a title-like line near the URL in the model text.
	TitleFromContext TitleSource = "context"
	// TitleFromPattern is a "title - url" style match on the URL's own line.
	TitleFromPattern TitleSource = "pattern"
	// TitleFromSlug is derived from the URL path.
	TitleFromSlug TitleSource = "slug"
	// TitleSynthesized is the "<Query> Guide from <Domain>" fallback.
	TitleSynthesized TitleSource = "synthesized"
	// TitleFromPage was read from the fetched article page.
	TitleFromPage TitleSource = "page"
)

// IsFallback reports whether the title was guessed rather than found in text.
func (s TitleSource) IsFallback() bool {
	return s == TitleFromSlug || s == TitleSynthesized
}

// Domain returns the lower-cased hostname of rawURL without a leading "www.".
// It returns an empty string for URLs that do not parse or have no host.
func Domain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// NormalizeURL is the key used for case-insensitive URL deduplication.
func NormalizeURL(rawURL string) string {
	return strings.ToLower(strings.TrimSpace(rawURL))
}

// NormalizeQuery is the cache key form of a search phrase.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}
