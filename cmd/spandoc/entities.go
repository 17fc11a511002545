package main

import (
	"fmt"

	"github.com/fwojciec/spandoc"
)

// Run executes the entities command.
func (c *EntitiesCmd) Run(deps *Dependencies) error {
	filter := spandoc.EntityFilter{}
	if c.Doc != "" {
		filter.DocumentID = &c.Doc
	}
	if c.RunID != "" {
		filter.RunID = &c.RunID
	}
	if c.Class != "" {
		filter.Class = &c.Class
	}
	if !c.Invalid {
		valid := true
		filter.Valid = &valid
	}

	entities, err := deps.Entities.FindEntities(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
		return err
	}

	if len(entities) == 0 {
		fmt.Fprintln(deps.Stdout, "No entities found.")
		return nil
	}

	for _, e := range entities {
		marker := ""
		if !e.Valid {
			marker = "  [invalid]"
		}
		fmt.Fprintf(deps.Stdout, "%s  [%d,%d)  %-7s  %.2f  %s: %q%s\n",
			e.ID, e.Start, e.End, e.Alignment, e.Confidence, e.Class, e.Text, marker)
	}

	return nil
}
