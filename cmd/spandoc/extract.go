package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fwojciec/spandoc"
	"github.com/fwojciec/spandoc/pipeline"
)

// timePrecision rounds processing durations for display.
const timePrecision = 10 * time.Millisecond

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	prompt := spandoc.Prompt{Instruction: c.Instruction}

	if c.Examples != "" {
		raw, err := os.ReadFile(c.Examples)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return err
		}
		if err := json.Unmarshal(raw, &prompt.Examples); err != nil {
			fmt.Fprintf(deps.Stderr, "error: invalid examples file: %v\n", err)
			return spandoc.Errorf(spandoc.EINVALID, "invalid examples file %q: %v", c.Examples, err)
		}
	}

	deps.Runner.Progress = func(event pipeline.ProgressEvent) {
		switch event.Type {
		case pipeline.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "  Planned %d chunks\n", event.Total)
		case pipeline.ProgressChunkCompleted:
			fmt.Fprintf(deps.Stdout, "  chunk %d/%d done\n", event.Completed, event.Total)
		case pipeline.ProgressChunkFailed:
			fmt.Fprintf(deps.Stderr, "  chunk %d failed: %v\n", event.ChunkIndex, event.Error)
		case pipeline.ProgressFinished:
			// Summary printed below from the run record.
		}
	}

	run, err := deps.Runner.Run(deps.Ctx, c.ID, prompt)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Run %s completed: %d entities, %d rejected, %d chunks in %s\n",
		run.ID, run.EntitiesCount, run.RejectedCount, run.ChunkCount, run.ProcessingTime.Round(timePrecision))
	if run.TokenCount > 0 {
		fmt.Fprintf(deps.Stdout, "  %d tokens\n", run.TokenCount)
	}
	return nil
}
