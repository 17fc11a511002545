package main

import (
	"fmt"

	"github.com/fwojciec/spandoc"
)

// Run executes the runs command.
func (c *RunsCmd) Run(deps *Dependencies) error {
	runs, err := deps.Runs.FindRuns(deps.Ctx, spandoc.RunFilter{DocumentID: &c.ID})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No runs found for this document.")
		return nil
	}

	for _, run := range runs {
		fmt.Fprintf(deps.Stdout, "%s  %-10s  %-7s  %d entities, %d rejected, %d chunks\n",
			run.ID, run.Status, run.Provider, run.EntitiesCount, run.RejectedCount, run.ChunkCount)
		if run.ErrorMessage != "" {
			fmt.Fprintf(deps.Stdout, "    error: %s\n", run.ErrorMessage)
		}
	}

	return nil
}
