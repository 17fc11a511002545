package main

import (
	"fmt"

	"github.com/fwojciec/spandoc"
)

// Run executes the rejections command.
func (c *RejectionsCmd) Run(deps *Dependencies) error {
	rejections, err := deps.Rejections.FindRejectionsByRun(deps.Ctx, c.RunID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
		return err
	}

	if len(rejections) == 0 {
		fmt.Fprintln(deps.Stdout, "No rejected candidates for this run.")
		return nil
	}

	for _, r := range rejections {
		fmt.Fprintf(deps.Stdout, "%.3f  %s: %q\n", r.BestScore, r.Class, r.Text)
	}

	return nil
}
