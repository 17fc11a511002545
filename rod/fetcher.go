// Package rod provides a browser-based implementation of spandoc.Fetcher
// for importing documents from JavaScript-rendered pages.
package rod

import (
	"context"
	"time"

	"github.com/fwojciec/spandoc"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultPageTimeout bounds navigation and rendering of a single page.
const DefaultPageTimeout = 30 * time.Second

// Ensure Fetcher implements spandoc.Fetcher at compile time.
var _ spandoc.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML from URLs after letting headless Chrome render
// the page. It is the right choice for sources that assemble their
// content with JavaScript; the plain HTTP fetcher is cheaper for static
// pages.
//
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithPageTimeout sets the per-page rendering timeout.
// Defaults to DefaultPageTimeout (30s) if not specified.
func WithPageTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// NewFetcher launches a headless Chrome browser and returns a Fetcher
// backed by it. Close must be called when the Fetcher is no longer
// needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout: DefaultPageTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	l := launcher.New().Headless(true).Leakless(true)
	u, err := l.Launch()
	if err != nil {
		return nil, spandoc.Errorf(spandoc.EINTERNAL, "launching browser: %v", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, spandoc.Errorf(spandoc.EINTERNAL, "connecting to browser: %v", err)
	}

	f.browser = browser
	f.launcher = l
	return f, nil
}

// Fetch navigates to the URL, waits for the page to load, and returns
// the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := f.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", spandoc.Errorf(spandoc.EINTERNAL, "opening page: %v", err)
	}
	defer page.Close()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", spandoc.Errorf(spandoc.EINTERNAL, "navigating to %s: %v", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		if ctx.Err() != nil {
			return "", spandoc.Errorf(spandoc.ETIMEOUT, "page load timed out for %s", url)
		}
		return "", spandoc.Errorf(spandoc.EINTERNAL, "waiting for %s to load: %v", url, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", spandoc.Errorf(spandoc.EINTERNAL, "reading rendered HTML: %v", err)
	}

	return html, nil
}

// Close shuts down the browser and its launcher process.
// Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	var err error
	if f.browser != nil {
		err = f.browser.Close()
		f.browser = nil
	}
	if f.launcher != nil {
		f.launcher.Kill()
		f.launcher = nil
	}
	return err
}
