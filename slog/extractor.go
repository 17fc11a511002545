package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/spandoc"
)

// Ensure LoggingExtractor implements spandoc.Extractor.
var _ spandoc.Extractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps an Extractor with per-call logging.
type LoggingExtractor struct {
	next   spandoc.Extractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next spandoc.Extractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, logger: logger}
}

// Extract delegates to the wrapped extractor and logs the operation.
func (e *LoggingExtractor) Extract(ctx context.Context, chunkText string, prompt spandoc.Prompt) (candidates []spandoc.Candidate, err error) {
	defer func(begin time.Time) {
		e.logger.Info("extraction",
			"chunk_len", len(chunkText),
			"candidates", len(candidates),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.Extract(ctx, chunkText, prompt)
}
