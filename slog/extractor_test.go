package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fwojciec/spandoc"
	"github.com/fwojciec/spandoc/mock"
	spandocslog "github.com/fwojciec/spandoc/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("delegates and logs candidate count", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		next := &mock.Extractor{
			ExtractFn: func(ctx context.Context, chunkText string, prompt spandoc.Prompt) ([]spandoc.Candidate, error) {
				return []spandoc.Candidate{{Class: "claim", Text: "Solar is cheap."}}, nil
			},
		}

		ext := spandocslog.NewLoggingExtractor(next, logger)
		candidates, err := ext.Extract(context.Background(), "Solar is cheap.", spandoc.Prompt{Instruction: "extract claims"})

		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Contains(t, buf.String(), "extraction")
		assert.Contains(t, buf.String(), "candidates=1")
	})

	t.Run("logs the error from a failed extraction", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		next := &mock.Extractor{
			ExtractFn: func(context.Context, string, spandoc.Prompt) ([]spandoc.Candidate, error) {
				return nil, spandoc.Errorf(spandoc.EINTERNAL, "provider unavailable")
			},
		}

		ext := spandocslog.NewLoggingExtractor(next, logger)
		_, err := ext.Extract(context.Background(), "text", spandoc.Prompt{Instruction: "extract claims"})

		require.Error(t, err)
		assert.Contains(t, buf.String(), "provider unavailable")
	})
}

func TestLoggingLocator_Locate(t *testing.T) {
	t.Parallel()

	t.Run("logs the winning strategy on a hit", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		next := &mock.Locator{
			LocateFn: func(target string) (*spandoc.Position, error) {
				return &spandoc.Position{Start: 0, End: len(target), Container: "body", Strategy: spandoc.LocateDocument, Text: target}, nil
			},
		}

		loc := spandocslog.NewLoggingLocator(next, logger)
		pos, err := loc.Locate("stable baseline electricity")

		require.NoError(t, err)
		assert.Equal(t, spandoc.LocateDocument, pos.Strategy)
		assert.Contains(t, buf.String(), "locate hit")
		assert.Contains(t, buf.String(), "strategy=document")
	})

	t.Run("logs a miss at debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		next := &mock.Locator{
			LocateFn: func(string) (*spandoc.Position, error) {
				return nil, spandoc.Errorf(spandoc.ENOTFOUND, "target text not found in document")
			},
		}

		loc := spandocslog.NewLoggingLocator(next, logger)
		_, err := loc.Locate("gone text")

		require.Error(t, err)
		assert.Equal(t, spandoc.ENOTFOUND, spandoc.ErrorCode(err))
		assert.Contains(t, buf.String(), "level=DEBUG")
		assert.Contains(t, buf.String(), "locate miss")
	})
}
