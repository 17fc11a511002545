package mock

import "github.com/fwojciec/spandoc"

var _ spandoc.ContentExtractor = (*ContentExtractor)(nil)

// ContentExtractor is a mock implementation of spandoc.ContentExtractor.
type ContentExtractor struct {
	ExtractFn func(html string) (*spandoc.ExtractResult, error)
}

func (e *ContentExtractor) Extract(html string) (*spandoc.ExtractResult, error) {
	return e.ExtractFn(html)
}
