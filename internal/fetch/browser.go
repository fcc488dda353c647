// Package fetch - browser.go renders JavaScript-heavy pages in headless Chrome.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// Renderer returns the rendered HTML of a page.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Browser renders pages with chromedp. Chrome or Chromium must be installed.
type Browser struct {
	Timeout time.Duration
	// Settle is how long to wait after the body is ready for scripts to run.
	Settle time.Duration
	Log    logrus.FieldLogger
}

// NewBrowser returns a Browser with defaults suited to title extraction.
func NewBrowser(log logrus.FieldLogger) *Browser {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Browser{Timeout: 20 * time.Second, Settle: time.Second, Log: log}
}

// Render navigates to url and returns the document's outer HTML.
func (b *Browser) Render(ctx context.Context, url string) (string, error) {
	b.Log.WithField("url", url).Debug("starting headless browser")

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.Timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(b.Settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	b.Log.WithFields(logrus.Fields{"url": url, "bytes": len(html)}).Debug("rendered page")
	return html, nil
}
