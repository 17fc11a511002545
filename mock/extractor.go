package mock

import (
	"context"

	"github.com/fwojciec/spandoc"
)

var _ spandoc.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of spandoc.Extractor.
type Extractor struct {
	ExtractFn func(ctx context.Context, chunkText string, prompt spandoc.Prompt) ([]spandoc.Candidate, error)
}

func (e *Extractor) Extract(ctx context.Context, chunkText string, prompt spandoc.Prompt) ([]spandoc.Candidate, error) {
	return e.ExtractFn(ctx, chunkText, prompt)
}
