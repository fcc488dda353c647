// Package fetch - title.go reads article titles for discovery's enrichment step.
package fetch

import (
	"context"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/sirupsen/logrus"
)

// TitleFetcher fetches a page over HTTP and extracts its title. When the static
// markup has no usable title it tries a readability parse, then the Renderer.
type TitleFetcher struct {
	opts     *Options
	renderer Renderer
	log      logrus.FieldLogger
}

// NewTitleFetcher creates a TitleFetcher. renderer may be nil to skip browser rendering.
func NewTitleFetcher(opts *Options, renderer Renderer, log logrus.FieldLogger) *TitleFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TitleFetcher{opts: opts, renderer: renderer, log: log}
}

// FetchTitle returns the title of the page at rawURL, or "" when none was found.
func (f *TitleFetcher) FetchTitle(ctx context.Context, rawURL string) (string, error) {
	result, err := URL(ctx, rawURL, f.opts)
	if err != nil {
		if f.renderer == nil || result == nil {
			return "", err
		}
		// blocked or challenged pages sometimes render fine in a browser
		f.log.WithError(err).WithField("url", rawURL).Debug("static fetch failed, rendering")
		return f.renderedTitle(ctx, rawURL)
	}

	if title, _ := ExtractTitle(result.HTML); title != "" {
		return title, nil
	}
	if title := readableTitle(result.HTML, rawURL); title != "" {
		return title, nil
	}
	if f.renderer != nil {
		return f.renderedTitle(ctx, rawURL)
	}
	return "", nil
}

func (f *TitleFetcher) renderedTitle(ctx context.Context, rawURL string) (string, error) {
	html, err := f.renderer.Render(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return ExtractTitle(html)
}

func readableTitle(html, rawURL string) string {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return ""
	}
	return cleanTitle(article.Title)
}
