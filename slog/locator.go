package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/spandoc"
)

// Ensure LoggingLocator implements spandoc.Locator.
var _ spandoc.Locator = (*LoggingLocator)(nil)

// LoggingLocator wraps a Locator with per-call logging. Misses are
// logged at debug level: a stale target is a normal outcome, not a
// fault worth alerting on.
type LoggingLocator struct {
	next   spandoc.Locator
	logger *slog.Logger
}

// NewLoggingLocator creates a new LoggingLocator.
func NewLoggingLocator(next spandoc.Locator, logger *slog.Logger) *LoggingLocator {
	return &LoggingLocator{next: next, logger: logger}
}

// Locate delegates to the wrapped locator and logs the outcome.
func (l *LoggingLocator) Locate(target string) (*spandoc.Position, error) {
	begin := time.Now()
	pos, err := l.next.Locate(target)

	if err != nil {
		level := slog.LevelInfo
		if spandoc.ErrorCode(err) == spandoc.ENOTFOUND {
			level = slog.LevelDebug
		}
		l.logger.Log(context.Background(), level, "locate miss",
			"target_len", len(target),
			"duration", time.Since(begin),
			"err", err,
		)
		return nil, err
	}

	l.logger.Info("locate hit",
		"strategy", string(pos.Strategy),
		"container", pos.Container,
		"duration", time.Since(begin),
	)
	return pos, nil
}
