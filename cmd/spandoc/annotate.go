package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fwojciec/spandoc"
	spandochtml "github.com/fwojciec/spandoc/html"
)

// Run executes the annotate command.
func (c *AnnotateCmd) Run(deps *Dependencies) error {
	valid := true
	entities, err := deps.Entities.FindEntities(deps.Ctx, spandoc.EntityFilter{
		DocumentID: &c.ID,
		Valid:      &valid,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
		return err
	}

	var rawHTML string
	if c.File != "" {
		raw, err := os.ReadFile(c.File)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return err
		}
		rawHTML = string(raw)
	} else {
		url := c.URL
		if url == "" {
			doc, err := deps.Documents.FindDocumentByID(deps.Ctx, c.ID)
			if err != nil {
				fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
				return err
			}
			url = doc.SourceURL
		}
		if url == "" {
			fmt.Fprintf(deps.Stderr, "error: no page to annotate; pass --url or --file\n")
			return spandoc.Errorf(spandoc.EINVALID, "no page to annotate")
		}

		rawHTML, err = deps.Fetcher.Fetch(deps.Ctx, url)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
			return err
		}
	}

	annotated, err := spandochtml.Annotate(rawHTML, entities)
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

	if _, err := io.WriteString(w, annotated); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}

	if c.Output != "-" {
		fmt.Fprintf(deps.Stdout, "Annotated %d entities into %s\n", len(entities), c.Output)
	}
	return nil
}
