package main

import (
	"fmt"
	"os"

	"github.com/fwojciec/spandoc"
)

// Run executes the locate command.
func (c *LocateCmd) Run(deps *Dependencies) error {
	entity, err := deps.Entities.FindEntityByID(deps.Ctx, c.EntityID)
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
			doc, err := deps.Documents.FindDocumentByID(deps.Ctx, entity.DocumentID)
			if err != nil {
				fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
				return err
			}
			url = doc.SourceURL
		}
		if url == "" {
			fmt.Fprintf(deps.Stderr, "error: no page to search; pass --url or --file\n")
			return spandoc.Errorf(spandoc.EINVALID, "no page to search")
		}

		rawHTML, err = deps.Fetcher.Fetch(deps.Ctx, url)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
			return err
		}
	}

	locator, err := deps.NewLocator(rawHTML, c.Exclude)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
		return err
	}

	pos, err := locator.Locate(entity.Text)
	if err != nil {
		// A stale page is a normal outcome, not a failure.
		if spandoc.ErrorCode(err) == spandoc.ENOTFOUND {
			fmt.Fprintln(deps.Stdout, "Not found: the text is no longer present in the page")
			return nil
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", spandoc.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Found via %s strategy\n  container: %s\n  offsets:   [%d,%d)\n  text:      %q\n",
		pos.Strategy, pos.Container, pos.Start, pos.End, pos.Text)
	return nil
}
