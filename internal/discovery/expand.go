// Package discovery - expand.go turns one search phrase into templated query variants.
package discovery

import (
	"strconv"
	"strings"
)

// Template placeholders understood by Expand.
const (
	placeholderQuery    = "{q}"
	placeholderYear     = "{year}"
	placeholderNextYear = "{next_year}"
)

// DefaultTemplates returns the built-in variant templates, in generation order.
func DefaultTemplates() []string {
	return []string{
		"best {q}",
		"top {q}",
		"{q} reviews",
		"{q} buying guide",
		"{q} recommendations",
		"{q} comparison",
		"best budget {q}",
		"{q} for beginners",
		"best {q} {year}",
		"top rated {q}",
		"{q} list",
		"best {q} {next_year}",
	}
}

// Expand returns query followed by every template rendered against it, with exact
// duplicates removed and the result capped at max entries (DefaultMaxVariants when
// max <= 0). A nil templates slice means DefaultTemplates. The caller must pass a
// trimmed, non-empty query.
func Expand(query string, year int, templates []string, max int) []string {
	if templates == nil {
		templates = DefaultTemplates()
	}
	if max <= 0 {
		max = DefaultMaxVariants
	}

	replacer := strings.NewReplacer(
		placeholderQuery, query,
		placeholderYear, strconv.Itoa(year),
		placeholderNextYear, strconv.Itoa(year+1),
	)

	seen := make(map[string]bool, len(templates)+1)
	variants := make([]string, 0, max)
	add := func(v string) {
		v = strings.Join(strings.Fields(v), " ")
		if v == "" || seen[v] || len(variants) >= max {
			return
		}
		seen[v] = true
		variants = append(variants, v)
	}

	add(query)
	for _, tmpl := range templates {
		add(replacer.Replace(tmpl))
	}
	return variants
}
