package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/fwojciec/spandoc"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ProgressType indicates the type of progress event.
type ProgressType int

// Progress event types emitted during a run.
const (
	ProgressStarted ProgressType = iota
	ProgressChunkCompleted
	ProgressChunkFailed
	ProgressFinished
)

// ProgressEvent reports progress while chunks are dispatched.
type ProgressEvent struct {
	Type       ProgressType
	ChunkIndex int
	Completed  int
	Total      int
	Error      error
}

// ProgressFunc is a callback for reporting run progress.
type ProgressFunc func(event ProgressEvent)

// Runner executes extraction runs over documents. Chunk extraction and
// grounding run in parallel across a bounded worker pool; the merge is a
// barrier that starts only after every dispatched chunk has returned or
// failed. A run's entity set is all-or-nothing: any chunk failure or a
// run timeout discards every aligned-but-unmerged candidate and marks the
// run failed.
type Runner struct {
	Documents  spandoc.DocumentService
	Runs       spandoc.RunService
	Entities   spandoc.EntityService
	Rejections spandoc.RejectionService

	Extractor    spandoc.Extractor
	Aligner      *spandoc.Aligner
	TokenCounter spandoc.TokenCounter

	ChunkConfig spandoc.ChunkConfig
	MergeConfig spandoc.MergeConfig

	// Provider is recorded on the run for display purposes.
	Provider string

	// Concurrency bounds the worker pool. Defaults to 4.
	Concurrency int

	// Timeout bounds the whole chunk-dispatch-and-merge sequence. Zero
	// means no timeout.
	Timeout time.Duration

	// Limiter, if set, throttles extraction calls across workers.
	Limiter *rate.Limiter

	// RetryDelays overrides the extraction retry backoff. Nil uses
	// DefaultRetryDelays; an empty slice disables retries.
	RetryDelays []time.Duration

	// Progress, if set, receives events as chunks are processed.
	Progress ProgressFunc
}

// chunkResult holds the outcome of extracting and aligning one chunk.
type chunkResult struct {
	aligned  []spandoc.AlignedCandidate
	rejected []spandoc.Rejection
}

// Run executes one extraction over the document and returns the persisted
// run record. A second call while a run is pending or processing for the
// same document fails with ECONFLICT. The returned error is non-nil when
// the run failed; the run record then carries status error and the reason.
// A run that completes with zero surviving entities is a success, not an
// error.
func (r *Runner) Run(ctx context.Context, documentID string, prompt spandoc.Prompt) (*spandoc.ExtractionRun, error) {
	if err := prompt.Validate(); err != nil {
		return nil, err
	}

	doc, err := r.Documents.FindDocumentByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	run := &spandoc.ExtractionRun{
		DocumentID:     doc.ID,
		Provider:       r.Provider,
		Prompt:         prompt,
		DocumentLength: len(doc.CanonicalText),
	}
	if err := r.Runs.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	begin := time.Now()

	run.Status = spandoc.RunProcessing
	if err := r.Runs.UpdateRun(ctx, run); err != nil {
		return nil, err
	}

	entities, rejections, chunkCount, execErr := r.execute(ctx, doc, prompt)
	run.ChunkCount = chunkCount
	run.ProcessingTime = time.Since(begin)

	if execErr == nil {
		for _, e := range entities {
			e.RunID = run.ID
			e.DocumentID = doc.ID
		}
		if len(entities) > 0 {
			execErr = r.Entities.CreateEntities(ctx, entities)
		}
	}
	if execErr == nil && len(rejections) > 0 && r.Rejections != nil {
		execErr = r.Rejections.CreateRejections(ctx, run.ID, rejections)
	}

	if execErr != nil {
		run.Status = spandoc.RunError
		run.ErrorMessage = execErr.Error()
		// The timed context may already be done; the failure still has to
		// be recorded.
		if err := r.Runs.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
			return run, err
		}
		return run, execErr
	}

	run.Status = spandoc.RunCompleted
	run.EntitiesCount = len(entities)
	run.RejectedCount = len(rejections)
	if r.TokenCounter != nil {
		if tokens, err := r.TokenCounter.CountTokens(ctx, doc.CanonicalText); err == nil {
			run.TokenCount = tokens
		}
	}
	if err := r.Runs.UpdateRun(ctx, run); err != nil {
		return run, err
	}

	return run, nil
}

// execute plans chunks, fans extraction and grounding out over the worker
// pool, waits for the barrier, and merges. It returns the merged entities
// and collected rejections, or the first chunk error.
func (r *Runner) execute(ctx context.Context, doc *spandoc.Document, prompt spandoc.Prompt) ([]*spandoc.Entity, []spandoc.Rejection, int, error) {
	cfg := r.ChunkConfig
	if cfg.MaxSize == 0 {
		cfg = spandoc.DefaultChunkConfig()
	}
	chunks, err := spandoc.PlanChunks(doc.CanonicalText, cfg)
	if err != nil {
		return nil, nil, 0, err
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	delays := r.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}

	total := len(chunks)
	if r.Progress != nil {
		r.Progress(ProgressEvent{Type: ProgressStarted, Total: total})
	}

	// Workers write to disjoint indices; no shared mutable state beyond
	// the read-only canonical text and prompt.
	results := make([]chunkResult, total)
	var completed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, chunk := range chunks {
		g.Go(func() error {
			if r.Limiter != nil {
				if err := r.Limiter.Wait(gctx); err != nil {
					return err
				}
			}

			candidates, err := ExtractWithRetryDelays(gctx, chunk.Text(doc.CanonicalText), prompt, r.Extractor.Extract, delays)
			if err != nil {
				if r.Progress != nil {
					r.Progress(ProgressEvent{Type: ProgressChunkFailed, ChunkIndex: chunk.Index, Completed: int(completed.Load()), Total: total, Error: err})
				}
				return spandoc.Errorf(spandoc.EINTERNAL, "chunk %d extraction failed: %s", chunk.Index, err)
			}

			// Malformed candidates are skipped individually; they never
			// abort the batch.
			valid := make([]spandoc.Candidate, 0, len(candidates))
			for _, cand := range candidates {
				if cand.Validate() != nil {
					continue
				}
				cand.ChunkIndex = chunk.Index
				valid = append(valid, cand)
			}

			aligned, rejected := r.Aligner.Align(chunk.Text(doc.CanonicalText), valid)
			results[chunk.Index] = chunkResult{aligned: aligned, rejected: rejected}

			if r.Progress != nil {
				r.Progress(ProgressEvent{Type: ProgressChunkCompleted, ChunkIndex: chunk.Index, Completed: int(completed.Add(1)), Total: total})
			}
			return nil
		})
	}

	// Barrier: merging must not begin until every dispatched chunk has
	// returned or failed.
	if err := g.Wait(); err != nil {
		if r.Progress != nil {
			r.Progress(ProgressEvent{Type: ProgressFinished, Completed: int(completed.Load()), Total: total, Error: err})
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(gctx.Err(), context.DeadlineExceeded) {
			return nil, nil, total, spandoc.Errorf(spandoc.ETIMEOUT, "run timed out after %s", r.Timeout)
		}
		return nil, nil, total, err
	}

	aligned := make([][]spandoc.AlignedCandidate, total)
	var rejections []spandoc.Rejection
	for i, res := range results {
		aligned[i] = res.aligned
		rejections = append(rejections, res.rejected...)
	}

	mergeCfg := r.MergeConfig
	if mergeCfg.OverlapRatio == 0 {
		mergeCfg = spandoc.DefaultMergeConfig()
	}
	entities, err := spandoc.Merge(chunks, aligned, mergeCfg)
	if err != nil {
		return nil, nil, total, err
	}

	if r.Progress != nil {
		r.Progress(ProgressEvent{Type: ProgressFinished, Completed: total, Total: total})
	}

	return entities, rejections, total, nil
}
