package spandoc

import "context"

// TokenCounter counts tokens in text for a specific model. Used for run
// diagnostics so operators can see how much model context an extraction
// consumed.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
