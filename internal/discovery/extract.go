// Package discovery - extract.go mines candidate article URLs from search responses.
package discovery

import (
	"net/url"
	"regexp"
	"strings"
)

// Brackets, braces and pipes end a URL so markdown links and [n] citation markers
// never leak into a match.
var urlPattern = regexp.MustCompile("https?://[^\\s<>\"'`\\[\\]{}|\\\\^]+")

// urlBoundary matches what may follow a complete URL in free text: optional
// trailing punctuation, then a character no URL contains or the end of the line.
const urlBoundary = "[.,;:!?)\\]}'\"*>]*(?:$|[\\s<>\"'`\\[\\]{}|\\\\^])"

// trailingPunct is stripped from the end of every match.
const trailingPunct = ".,;:!?)]}'\"*>"

// ExtractURLs returns every well-formed http(s) URL in text, in first-seen order,
// without duplicates. Duplicates are compared on the raw string. Matches that do not
// parse as absolute http(s) URLs are dropped.
func ExtractURLs(text string) []string {
	var urls []string
	seen := make(map[string]bool)
	for _, match := range urlPattern.FindAllString(text, -1) {
		candidate, ok := cleanURL(match)
		if !ok || seen[candidate] {
			continue
		}
		seen[candidate] = true
		urls = append(urls, candidate)
	}
	return urls
}

// CandidateURLs merges citations and URLs mined from content, citations first,
// and drops anything the denylist blocks.
func CandidateURLs(citations []string, content string, deny Denylist) []string {
	var merged []string
	seen := make(map[string]bool)
	add := func(u string) {
		if seen[u] || deny.Blocks(u) {
			return
		}
		seen[u] = true
		merged = append(merged, u)
	}

	for _, c := range citations {
		if u, ok := cleanURL(c); ok {
			add(u)
		}
	}
	for _, u := range ExtractURLs(content) {
		add(u)
	}
	return merged
}

func cleanURL(raw string) (string, bool) {
	candidate := strings.TrimRight(strings.TrimSpace(raw), trailingPunct)

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", false
	}
	if parsed.Hostname() == "" || !strings.Contains(parsed.Hostname(), ".") {
		return "", false
	}
	return candidate, true
}
