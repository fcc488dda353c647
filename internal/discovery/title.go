// Package discovery - title.go recovers human-readable titles for candidate URLs
// from model free text, falling back to the URL slug and finally a synthesized label.
package discovery

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	contextWindow  = 3
	minTitleLen    = 10
	maxTitleLen    = 200
	minTitleWords  = 3
	minSlugLen     = 5
	maxSlugLen     = 100
	minPatternText = 3
)

var (
	listMarker = regexp.MustCompile(`^\s*(?:[-*•·>]+|\d{1,3}[.)]|#{1,6})\s*`)
	emphasis   = strings.NewReplacer("**", "", "__", "", "`", "")
	dashSep    = regexp.MustCompile(`\s+[-–—]\s+`)
	numericSeg = regexp.MustCompile(`^\d+$`)
)

var indexSegments = map[string]bool{
	"index": true, "default": true, "home": true, "amp": true, "main": true,
}

// ResolveTitle returns the best available title for rawURL. It never returns an
// empty string: the last strategy always synthesizes one from query and domain.
func ResolveTitle(rawText, rawURL, query string) string {
	title, _ := resolveTitle(rawText, rawURL, query)
	return title
}

func resolveTitle(rawText, rawURL, query string) (string, TitleSource) {
	if rawURL != "" {
		lines := strings.Split(rawText, "\n")
		// the URL must end where it appears; "/best-blenders" is not "/best-blenders-2"
		exact := regexp.QuoteMeta(rawURL) + urlBoundary
		if idx := lineWithURL(lines, regexp.MustCompile(exact)); idx >= 0 {
			if title := titleFromContext(lines, idx); title != "" {
				return title, TitleFromContext
			}
			if title := titleFromPattern(lines, exact); title != "" {
				return title, TitleFromPattern
			}
		}
	}
	if title := titleFromSlug(rawURL); title != "" {
		return title, TitleFromSlug
	}
	return synthesizeTitle(rawURL, query), TitleSynthesized
}

func lineWithURL(lines []string, exact *regexp.Regexp) int {
	for i, line := range lines {
		if exact.MatchString(line) {
			return i
		}
	}
	return -1
}

// titleFromContext scans the lines around idx, nearest first, preferring the
// line above when both neighbours at the same distance qualify.
func titleFromContext(lines []string, idx int) string {
	for d := 1; d <= contextWindow; d++ {
		for _, i := range []int{idx - d, idx + d} {
			if i < 0 || i >= len(lines) {
				continue
			}
			if !looksLikeTitle(lines[i]) {
				continue
			}
			if title := cleanTitle(lines[i]); title != "" {
				return title
			}
		}
	}
	return ""
}

func looksLikeTitle(line string) bool {
	line = strings.TrimSpace(line)
	n := utf8.RuneCountInString(line)
	if n < minTitleLen || n > maxTitleLen {
		return false
	}
	lower := strings.ToLower(line)
	if strings.Contains(lower, "http") {
		return false
	}
	// intros such as "Here are some lists:" introduce titles rather than being one
	if strings.HasSuffix(line, ":") {
		return false
	}
	return len(strings.Fields(line)) >= minTitleWords
}

// titleFromPattern matches "title - url" style shapes on the lines that hold the URL.
// exact is the quoted URL followed by urlBoundary.
func titleFromPattern(lines []string, exact string) string {
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`\[([^\]]+)\]\(\s*` + exact),
		regexp.MustCompile(`^(.+?)\s*[-–—:]\s*` + exact),
		regexp.MustCompile(`^(.+?)\s*\(\s*` + exact),
		regexp.MustCompile(`^(.+?)\s+` + exact),
	}

	for _, line := range lines {
		for _, re := range patterns {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			candidate := m[1]
			if strings.Contains(strings.ToLower(candidate), "http") {
				continue
			}
			title := cleanTitle(candidate)
			if utf8.RuneCountInString(title) >= minPatternText && utf8.RuneCountInString(title) <= maxTitleLen {
				return title
			}
		}
	}
	return ""
}

// cleanTitle strips list markers, markdown, quotes, a trailing " | Site" and a
// trailing " - fragment" when enough of the title remains.
func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	for {
		stripped := listMarker.ReplaceAllString(s, "")
		stripped = emphasis.Replace(stripped)
		stripped = strings.TrimSpace(stripped)
		if stripped == s {
			break
		}
		s = stripped
	}

	s = strings.Trim(s, "\"'“”‘’*_ ")

	if i := strings.LastIndex(s, " | "); i > 0 {
		s = strings.TrimSpace(s[:i])
	}

	if locs := dashSep.FindAllStringIndex(s, -1); len(locs) > 0 {
		last := locs[len(locs)-1]
		head := strings.TrimSpace(s[:last[0]])
		if len(strings.Fields(head)) >= 2 {
			s = head
		}
	}

	return strings.TrimRightFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == ':' || r == ',' || r == ';' || unicode.IsSpace(r)
	})
}

// titleFromSlug title-cases the last meaningful path segment of rawURL.
func titleFromSlug(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	segments := strings.Split(parsed.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := strings.TrimSpace(segments[i])
		if ext := path.Ext(seg); isExtension(strings.ToLower(ext)) {
			seg = strings.TrimSuffix(seg, ext)
		}
		if seg == "" || indexSegments[strings.ToLower(seg)] || numericSeg.MatchString(seg) {
			continue
		}

		words := strings.Fields(strings.NewReplacer("-", " ", "_", " ", "+", " ").Replace(seg))
		title := titleCase(strings.Join(words, " "))
		n := utf8.RuneCountInString(title)
		if n < minSlugLen || n > maxSlugLen {
			return ""
		}
		return title
	}
	return ""
}

// synthesizeTitle builds "<Query> Guide from <Site>".
func synthesizeTitle(rawURL, query string) string {
	site := siteName(Domain(rawURL))
	q := titleCase(strings.Join(strings.Fields(query), " "))
	if site == "" {
		return q + " Guide"
	}
	return q + " Guide from " + site
}

// siteName drops the public suffix from host: "goodhousekeeping.com" -> "Goodhousekeeping",
// "shop.example.co.uk" -> "Shop Example".
func siteName(host string) string {
	if host == "" {
		return ""
	}
	name := host
	if suffix, _ := publicsuffix.PublicSuffix(host); suffix != "" && suffix != host {
		name = strings.TrimSuffix(host, "."+suffix)
	}
	name = strings.NewReplacer(".", " ", "-", " ").Replace(name)
	return titleCase(strings.Join(strings.Fields(name), " "))
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
