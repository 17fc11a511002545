package spandoc

// ExtractResult holds readable content pulled from an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// Text is the main content as plain text with boilerplate (nav,
	// footer, sidebar, ads) removed. It is raw extractor output; callers
	// canonicalize it before fingerprinting or grounding.
	Text string
}

// ContentExtractor extracts main content from HTML pages, removing
// boilerplate. Used when importing a document from a URL rather than a
// plain-text file.
type ContentExtractor interface {
	Extract(html string) (*ExtractResult, error)
}
