// Package readability provides a go-readability based implementation of
// spandoc.ContentExtractor. It is an alternative to the trafilatura
// extractor for pages where readability's heuristics work better.
package readability

import (
	"strings"

	"github.com/fwojciec/spandoc"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements spandoc.ContentExtractor at compile time.
var _ spandoc.ContentExtractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content as plain text.
func (e *Extractor) Extract(rawHTML string) (*spandoc.ExtractResult, error) {
	if rawHTML == "" {
		return nil, spandoc.Errorf(spandoc.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, err
	}

	return &spandoc.ExtractResult{
		Title: article.Title,
		Text:  article.TextContent,
	}, nil
}
