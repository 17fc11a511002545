package pipeline

import (
	"context"
	"time"

	"github.com/fwojciec/spandoc"
)

// ExtractFunc is the signature for a chunk extraction function.
type ExtractFunc func(ctx context.Context, chunkText string, prompt spandoc.Prompt) ([]spandoc.Candidate, error)

// DefaultRetryDelays returns the backoff delays for extraction retries:
// 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// ExtractWithRetryDelays invokes extract with backoff retries. Model
// providers fail transiently (rate limits, overloaded backends), so each
// chunk gets len(delays) retries after the initial attempt. Invalid-input
// errors are not retried; they cannot succeed on a second attempt.
func ExtractWithRetryDelays(ctx context.Context, chunkText string, prompt spandoc.Prompt, extract ExtractFunc, delays []time.Duration) ([]spandoc.Candidate, error) {
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidates, err := extract(ctx, chunkText, prompt)
		if err == nil {
			return candidates, nil
		}
		lastErr = err

		if spandoc.ErrorCode(err) == spandoc.EINVALID {
			break
		}
		if attempt >= maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return nil, lastErr
}
