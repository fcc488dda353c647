// Package discovery - denylist.go filters URLs that cannot be listicle articles.
package discovery

import (
	"net/url"
	"path"
	"strings"
)

// Denylist holds case-insensitive substrings. Hosts are matched against the URL's
// hostname, Patterns against the whole URL. A pattern that is a bare file extension
// such as ".pdf" is compared with the path's extension instead, so hosts like
// "www.doctor.com" are not caught by ".doc".
type Denylist struct {
	Hosts    []string `json:"hosts" yaml:"hosts"`
	Patterns []string `json:"patterns" yaml:"patterns"`
}

// DefaultDenylist returns the built-in list of non-article hosts and path patterns.
func DefaultDenylist() Denylist {
	return Denylist{
		Hosts: []string{
			// video
			"youtube.com", "youtu.be", "vimeo.com", "tiktok.com", "dailymotion.com", "twitch.tv",
			// social
			"facebook.com", "instagram.com", "twitter.com", "linkedin.com", "pinterest.com", "threads.net",
			// forums and Q&A
			"reddit.com", "quora.com", "stackexchange.com", "stackoverflow.com",
			"forum.", "forums.", "community.", "answers.",
			// reference, marketplaces, search engines
			"wikipedia.org", "ebay.com", "aliexpress.com", "google.com", "bing.com", "duckduckgo.com",
		},
		Patterns: []string{
			"/tag/", "/tags/", "/category/", "/categories/", "/author/",
			"/contact/", "/contact-us", "/about/", "/about-us",
			"/login", "/signup", "/register", "/cart", "/checkout",
			"/privacy", "/terms", "/search?", "/forum", "/thread",
			"amazon.com/s?", "/feed/",
			".pdf", ".zip", ".rar", ".mp3", ".mp4", ".mov", ".avi",
			".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg",
			".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
		},
	}
}

// Blocks reports whether rawURL hits the denylist. Unparseable URLs are blocked.
func (d Denylist) Blocks(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return true
	}

	host := strings.ToLower(parsed.Hostname())
	for _, h := range d.Hosts {
		if h != "" && strings.Contains(host, strings.ToLower(h)) {
			return true
		}
	}

	full := strings.ToLower(rawURL)
	ext := strings.ToLower(path.Ext(parsed.Path))
	for _, p := range d.Patterns {
		p = strings.ToLower(p)
		switch {
		case p == "":
		case isExtension(p):
			if ext == p {
				return true
			}
		case strings.Contains(full, p):
			return true
		}
	}
	return false
}

func isExtension(p string) bool {
	if len(p) < 2 || p[0] != '.' {
		return false
	}
	for _, r := range p[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// Filter returns the URLs that pass the denylist, preserving order.
func (d Denylist) Filter(urls []string) []string {
	kept := make([]string, 0, len(urls))
	for _, u := range urls {
		if !d.Blocks(u) {
			kept = append(kept, u)
		}
	}
	return kept
}
