package main

import (
	"fmt"

	"github.com/fwojciec/spandoc"
)

// Run executes the docs command.
func (c *DocsCmd) Run(deps *Dependencies) error {
	docs, err := deps.Documents.FindDocuments(deps.Ctx, spandoc.DocumentFilter{})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
		return err
	}

	if len(docs) == 0 {
		fmt.Fprintln(deps.Stdout, "No documents found. Use 'spandoc add' to import one.")
		return nil
	}

	for _, doc := range docs {
		title := doc.Title
		if title == "" {
			title = doc.SourceURL
		}
		version := ""
		if doc.ParentID != nil {
			version = fmt.Sprintf("  (version of %s)", *doc.ParentID)
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %d chars%s\n", doc.ID, title, len(doc.CanonicalText), version)
	}

	return nil
}
