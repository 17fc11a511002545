package spandoc

import "context"

// Fetcher retrieves raw HTML for a URL. Used when importing a document
// from the web and when locating spans inside a live page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
