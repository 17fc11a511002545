package main

import (
	"fmt"
	"os"

	"github.com/fwojciec/spandoc"
)

// Run executes the reimport command.
func (c *ReimportCmd) Run(deps *Dependencies) error {
	var raw string

	if c.File != "" {
		content, err := os.ReadFile(c.File)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return err
		}
		raw = string(content)
	} else {
		doc, err := deps.Documents.FindDocumentByID(deps.Ctx, c.ID)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
			return err
		}
		if doc.SourceURL == "" {
			fmt.Fprintf(deps.Stderr, "error: document has no source URL; use --file\n")
			return spandoc.Errorf(spandoc.EINVALID, "document %q has no source URL", c.ID)
		}

		rawHTML, err := deps.Fetcher.Fetch(deps.Ctx, doc.SourceURL)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
			return err
		}
		result, err := deps.Content.Extract(rawHTML)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
			return err
		}
		raw = result.Text
	}

	doc, err := deps.Documents.Reimport(deps.Ctx, c.ID, raw)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
		return err
	}

	if doc.ID == c.ID {
		fmt.Fprintln(deps.Stdout, "Content unchanged")
		return nil
	}

	fmt.Fprintf(deps.Stdout, "Content changed: new version %s (entities of %s marked invalid)\n", doc.ID, c.ID)
	return nil
}
