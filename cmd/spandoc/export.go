package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fwojciec/spandoc"
)

// Run executes the export command.
func (c *ExportCmd) Run(deps *Dependencies) error {
	valid := true
	entities, err := deps.Entities.FindEntities(deps.Ctx, spandoc.EntityFilter{
		DocumentID: &c.ID,
		Valid:      &valid,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
		return err
	}

	var w io.Writer = deps.Stdout
	if c.Output != "-" {
		f, err := os.Create(c.Output)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return err
		}
		defer f.Close()
		w = f
	}

	if err := spandoc.WriteEntities(w, entities); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
		return err
	}

	if c.Output != "-" {
		fmt.Fprintf(deps.Stdout, "Exported %d entities to %s\n", len(entities), c.Output)
	}
	return nil
}
