package trafilatura

import (
	"strings"

	"github.com/fwojciec/spandoc"
	"github.com/markusmobius/go-trafilatura"
)

// Ensure Extractor implements spandoc.ContentExtractor at compile time.
var _ spandoc.ContentExtractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract main content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content as plain text,
// with navigation, sidebars, and other boilerplate removed.
func (e *Extractor) Extract(rawHTML string) (*spandoc.ExtractResult, error) {
	if rawHTML == "" {
		return nil, spandoc.Errorf(spandoc.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, err
	}

	return &spandoc.ExtractResult{
		Title: result.Metadata.Title,
		Text:  result.ContentText,
	}, nil
}
