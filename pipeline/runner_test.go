package pipeline_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/spandoc"
	"github.com/fwojciec/spandoc/mock"
	"github.com/fwojciec/spandoc/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// env wires a Runner to in-memory mock services and records persisted
// state.
type env struct {
	runner *pipeline.Runner

	mu         sync.Mutex
	runs       map[string]*spandoc.ExtractionRun
	entities   []*spandoc.Entity
	rejections map[string][]spandoc.Rejection
}

func newEnv(t *testing.T, doc *spandoc.Document, extractor spandoc.Extractor) *env {
	t.Helper()

	e := &env{
		runs:       make(map[string]*spandoc.ExtractionRun),
		rejections: make(map[string][]spandoc.Rejection),
	}

	docs := &mock.DocumentService{
		FindDocumentByIDFn: func(_ context.Context, id string) (*spandoc.Document, error) {
			if id != doc.ID {
				return nil, spandoc.Errorf(spandoc.ENOTFOUND, "document not found")
			}
			return doc, nil
		},
	}

	runs := &mock.RunService{
		CreateRunFn: func(_ context.Context, run *spandoc.ExtractionRun) error {
			e.mu.Lock()
			defer e.mu.Unlock()
			for _, existing := range e.runs {
				if existing.DocumentID == run.DocumentID && !existing.Status.Terminal() {
					return spandoc.Errorf(spandoc.ECONFLICT, "document already has an active run")
				}
			}
			run.ID = "run-1"
			run.Status = spandoc.RunPending
			snapshot := *run
			e.runs[run.ID] = &snapshot
			return nil
		},
		UpdateRunFn: func(_ context.Context, run *spandoc.ExtractionRun) error {
			e.mu.Lock()
			defer e.mu.Unlock()
			snapshot := *run
			e.runs[run.ID] = &snapshot
			return nil
		},
	}

	entities := &mock.EntityService{
		CreateEntitiesFn: func(_ context.Context, ents []*spandoc.Entity) error {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.entities = append(e.entities, ents...)
			return nil
		},
	}

	rejections := &mock.RejectionService{
		CreateRejectionsFn: func(_ context.Context, runID string, rejs []spandoc.Rejection) error {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.rejections[runID] = append(e.rejections[runID], rejs...)
			return nil
		},
	}

	aligner, err := spandoc.NewAligner(spandoc.DefaultAlignConfig())
	require.NoError(t, err)

	e.runner = &pipeline.Runner{
		Documents:   docs,
		Runs:        runs,
		Entities:    entities,
		Rejections:  rejections,
		Extractor:   extractor,
		Aligner:     aligner,
		Provider:    "mock",
		RetryDelays: []time.Duration{},
	}

	return e
}

func testDocument(text string) *spandoc.Document {
	canonical := spandoc.Canonicalize(text)
	return &spandoc.Document{
		ID:            "doc-1",
		CanonicalText: canonical,
		Fingerprint:   spandoc.FingerprintText(canonical),
	}
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	t.Run("completes with grounded entities", func(t *testing.T) {
		t.Parallel()

		doc := testDocument("Nuclear power provides stable baseline electricity. Wind output varies with weather.")
		extractor := &mock.Extractor{
			ExtractFn: func(_ context.Context, chunkText string, _ spandoc.Prompt) ([]spandoc.Candidate, error) {
				return []spandoc.Candidate{
					{Class: "claim", Text: "provides stable baseline electricity"},
					{Class: "claim", Text: "varies with weather"},
				}, nil
			},
		}
		e := newEnv(t, doc, extractor)

		run, err := e.runner.Run(context.Background(), "doc-1", spandoc.Prompt{Instruction: "extract claims"})
		require.NoError(t, err)

		assert.Equal(t, spandoc.RunCompleted, run.Status)
		assert.Equal(t, 2, run.EntitiesCount)
		assert.Equal(t, 1, run.ChunkCount)
		assert.Equal(t, len(doc.CanonicalText), run.DocumentLength)
		assert.Greater(t, run.ProcessingTime, time.Duration(0))

		require.Len(t, e.entities, 2)
		for _, ent := range e.entities {
			assert.Equal(t, "run-1", ent.RunID)
			assert.Equal(t, "doc-1", ent.DocumentID)
			assert.Equal(t, spandoc.AlignmentExact, ent.Alignment)
			assert.Equal(t, ent.Text, doc.CanonicalText[ent.Start:ent.End])
		}
	})

	t.Run("merges duplicates from overlapping chunks", func(t *testing.T) {
		t.Parallel()

		// A sentence straddling the chunk boundary is extracted from both
		// chunks; exactly one entity must survive.
		// Place the sentence inside the overlap region so both chunks
		// contain it in full.
		sentence := "The disputed passage sits squarely on the boundary."
		filler := strings.Repeat("Context sentence here. ", 18)
		doc := testDocument(filler + sentence + " " + filler)

		extractor := &mock.Extractor{
			ExtractFn: func(_ context.Context, chunkText string, _ spandoc.Prompt) ([]spandoc.Candidate, error) {
				if strings.Contains(chunkText, sentence) {
					return []spandoc.Candidate{{Class: "claim", Text: sentence}}, nil
				}
				return nil, nil
			},
		}
		e := newEnv(t, doc, extractor)
		e.runner.ChunkConfig = spandoc.ChunkConfig{MaxSize: 500, Overlap: 100}

		run, err := e.runner.Run(context.Background(), "doc-1", spandoc.Prompt{Instruction: "extract claims"})
		require.NoError(t, err)

		assert.Greater(t, run.ChunkCount, 1)
		require.Len(t, e.entities, 1)
		assert.Equal(t, sentence, e.entities[0].Text)
		assert.Equal(t, sentence, doc.CanonicalText[e.entities[0].Start:e.entities[0].End])
	})

	t.Run("completes with zero entities when nothing aligns", func(t *testing.T) {
		t.Parallel()

		doc := testDocument("Nuclear power provides stable baseline electricity.")
		extractor := &mock.Extractor{
			ExtractFn: func(_ context.Context, _ string, _ spandoc.Prompt) ([]spandoc.Candidate, error) {
				return []spandoc.Candidate{{Class: "claim", Text: "the moon is made of cheese"}}, nil
			},
		}
		e := newEnv(t, doc, extractor)

		run, err := e.runner.Run(context.Background(), "doc-1", spandoc.Prompt{Instruction: "extract claims"})
		require.NoError(t, err)

		// Zero surviving entities is a completed run, not an error.
		assert.Equal(t, spandoc.RunCompleted, run.Status)
		assert.Zero(t, run.EntitiesCount)
		assert.Equal(t, 1, run.RejectedCount)
		assert.Empty(t, e.entities)
		assert.Len(t, e.rejections["run-1"], 1)
	})

	t.Run("skips malformed candidates without aborting the batch", func(t *testing.T) {
		t.Parallel()

		doc := testDocument("Nuclear power provides stable baseline electricity.")
		extractor := &mock.Extractor{
			ExtractFn: func(_ context.Context, _ string, _ spandoc.Prompt) ([]spandoc.Candidate, error) {
				return []spandoc.Candidate{
					{Class: "", Text: "provides stable baseline electricity"},
					{Class: "claim", Text: ""},
					{Class: "claim", Text: "stable baseline"},
				}, nil
			},
		}
		e := newEnv(t, doc, extractor)

		run, err := e.runner.Run(context.Background(), "doc-1", spandoc.Prompt{Instruction: "extract claims"})
		require.NoError(t, err)

		assert.Equal(t, spandoc.RunCompleted, run.Status)
		assert.Equal(t, 1, run.EntitiesCount)
	})

	t.Run("extractor failure marks the run error with no persisted entities", func(t *testing.T) {
		t.Parallel()

		doc := testDocument("Nuclear power provides stable baseline electricity.")
		extractor := &mock.Extractor{
			ExtractFn: func(_ context.Context, _ string, _ spandoc.Prompt) ([]spandoc.Candidate, error) {
				return nil, spandoc.Errorf(spandoc.EINTERNAL, "provider unavailable")
			},
		}
		e := newEnv(t, doc, extractor)

		run, err := e.runner.Run(context.Background(), "doc-1", spandoc.Prompt{Instruction: "extract claims"})
		require.Error(t, err)

		assert.Equal(t, spandoc.RunError, run.Status)
		assert.Contains(t, run.ErrorMessage, "provider unavailable")
		assert.Empty(t, e.entities)

		stored := e.runs["run-1"]
		require.NotNil(t, stored)
		assert.Equal(t, spandoc.RunError, stored.Status)
	})

	t.Run("timeout discards aligned candidates and marks the run error", func(t *testing.T) {
		t.Parallel()

		doc := testDocument(strings.Repeat("A sentence to fill the document. ", 200))
		extractor := &mock.Extractor{
			ExtractFn: func(ctx context.Context, _ string, _ spandoc.Prompt) ([]spandoc.Candidate, error) {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(5 * time.Second):
					return []spandoc.Candidate{{Class: "claim", Text: "A sentence to fill the document."}}, nil
				}
			},
		}
		e := newEnv(t, doc, extractor)
		e.runner.ChunkConfig = spandoc.ChunkConfig{MaxSize: 500, Overlap: 50}
		e.runner.Timeout = 50 * time.Millisecond

		run, err := e.runner.Run(context.Background(), "doc-1", spandoc.Prompt{Instruction: "extract claims"})
		require.Error(t, err)

		assert.Equal(t, spandoc.ETIMEOUT, spandoc.ErrorCode(err))
		assert.Equal(t, spandoc.RunError, run.Status)
		assert.Empty(t, e.entities, "no partial entity set may be persisted")
	})

	t.Run("rejects a second concurrent run for the same document", func(t *testing.T) {
		t.Parallel()

		doc := testDocument("Nuclear power provides stable baseline electricity.")
		extractor := &mock.Extractor{
			ExtractFn: func(_ context.Context, _ string, _ spandoc.Prompt) ([]spandoc.Candidate, error) {
				return nil, nil
			},
		}
		e := newEnv(t, doc, extractor)

		// Seed an active run.
		e.runs["existing"] = &spandoc.ExtractionRun{ID: "existing", DocumentID: "doc-1", Status: spandoc.RunProcessing}

		_, err := e.runner.Run(context.Background(), "doc-1", spandoc.Prompt{Instruction: "extract claims"})
		require.Error(t, err)
		assert.Equal(t, spandoc.ECONFLICT, spandoc.ErrorCode(err))
	})

	t.Run("unknown document", func(t *testing.T) {
		t.Parallel()

		doc := testDocument("text")
		extractor := &mock.Extractor{}
		e := newEnv(t, doc, extractor)

		_, err := e.runner.Run(context.Background(), "missing", spandoc.Prompt{Instruction: "extract claims"})
		require.Error(t, err)
		assert.Equal(t, spandoc.ENOTFOUND, spandoc.ErrorCode(err))
	})

	t.Run("missing prompt instruction", func(t *testing.T) {
		t.Parallel()

		doc := testDocument("text")
		e := newEnv(t, doc, &mock.Extractor{})

		_, err := e.runner.Run(context.Background(), "doc-1", spandoc.Prompt{})
		require.Error(t, err)
		assert.Equal(t, spandoc.EINVALID, spandoc.ErrorCode(err))
	})

	t.Run("reports progress events", func(t *testing.T) {
		t.Parallel()

		doc := testDocument("Nuclear power provides stable baseline electricity.")
		extractor := &mock.Extractor{
			ExtractFn: func(_ context.Context, _ string, _ spandoc.Prompt) ([]spandoc.Candidate, error) {
				return nil, nil
			},
		}
		e := newEnv(t, doc, extractor)

		var mu sync.Mutex
		var events []pipeline.ProgressEvent
		e.runner.Progress = func(event pipeline.ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, event)
		}

		_, err := e.runner.Run(context.Background(), "doc-1", spandoc.Prompt{Instruction: "extract claims"})
		require.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()
		require.NotEmpty(t, events)
		assert.Equal(t, pipeline.ProgressStarted, events[0].Type)
		assert.Equal(t, pipeline.ProgressFinished, events[len(events)-1].Type)
	})
}

func TestExtractWithRetryDelays(t *testing.T) {
	t.Parallel()

	t.Run("retries transient failures", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		extract := func(_ context.Context, _ string, _ spandoc.Prompt) ([]spandoc.Candidate, error) {
			attempts++
			if attempts < 3 {
				return nil, spandoc.Errorf(spandoc.EINTERNAL, "overloaded")
			}
			return []spandoc.Candidate{{Class: "claim", Text: "ok"}}, nil
		}

		candidates, err := pipeline.ExtractWithRetryDelays(context.Background(), "text", spandoc.Prompt{}, extract, []time.Duration{0, 0, 0})
		require.NoError(t, err)
		assert.Len(t, candidates, 1)
		assert.Equal(t, 3, attempts)
	})

	t.Run("does not retry invalid input", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		extract := func(_ context.Context, _ string, _ spandoc.Prompt) ([]spandoc.Candidate, error) {
			attempts++
			return nil, spandoc.Errorf(spandoc.EINVALID, "bad prompt")
		}

		_, err := pipeline.ExtractWithRetryDelays(context.Background(), "text", spandoc.Prompt{}, extract, []time.Duration{0, 0})
		require.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("gives up after exhausting delays", func(t *testing.T) {
		t.Parallel()

		attempts := 0
		extract := func(_ context.Context, _ string, _ spandoc.Prompt) ([]spandoc.Candidate, error) {
			attempts++
			return nil, spandoc.Errorf(spandoc.EINTERNAL, "down")
		}

		_, err := pipeline.ExtractWithRetryDelays(context.Background(), "text", spandoc.Prompt{}, extract, []time.Duration{0, 0})
		require.Error(t, err)
		assert.Equal(t, 3, attempts)
	})
}
