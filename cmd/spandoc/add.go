package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/spandoc"
)

// Run executes the add command.
func (c *AddCmd) Run(deps *Dependencies) error {
	doc := &spandoc.Document{Title: c.Title}

	if c.URL {
		rawHTML, err := deps.Fetcher.Fetch(deps.Ctx, c.Source)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
			return err
		}

		result, err := deps.Content.Extract(rawHTML)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
			return err
		}

		doc.SourceURL = c.Source
		doc.CanonicalText = result.Text
		if doc.Title == "" {
			doc.Title = result.Title
		}
	} else {
		raw, err := os.ReadFile(c.Source)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return err
		}

		doc.CanonicalText = string(raw)
		if doc.Title == "" {
			doc.Title = filepath.Base(c.Source)
		}
	}

	if err := deps.Documents.CreateDocument(deps.Ctx, doc); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Added document %q (%s), %d characters\n", doc.Title, doc.ID, len(doc.CanonicalText))
	return nil
}
