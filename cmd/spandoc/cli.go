package main

import (
	"context"
	"io"
	"time"

	"github.com/fwojciec/spandoc"
	"github.com/fwojciec/spandoc/pipeline"
	"github.com/fwojciec/spandoc/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx        context.Context
	Stdout     io.Writer
	Stderr     io.Writer
	DB         *sqlite.DB
	Documents  spandoc.DocumentService
	Runs       spandoc.RunService
	Entities   spandoc.EntityService
	Rejections spandoc.RejectionService
	Fetcher    spandoc.Fetcher
	Content    spandoc.ContentExtractor
	Runner     *pipeline.Runner

	// NewLocator builds a Locator over fetched HTML. Indirected so tests
	// can substitute a mock.
	NewLocator func(rawHTML, exclude string) (spandoc.Locator, error)
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool `short:"v" help:"Log service calls to stderr"`

	Add        AddCmd        `cmd:"" help:"Import a document from a file or URL"`
	Reimport   ReimportCmd   `cmd:"" help:"Re-import a document's source, creating a new version on change"`
	Docs       DocsCmd       `cmd:"" help:"List documents"`
	Extract    ExtractCmd    `cmd:"" help:"Run a grounded extraction over a document"`
	Runs       RunsCmd       `cmd:"" help:"List extraction runs for a document"`
	Entities   EntitiesCmd   `cmd:"" help:"List grounded entities"`
	Rejections RejectionsCmd `cmd:"" help:"List rejected candidates for a run"`
	Export     ExportCmd     `cmd:"" help:"Export a document's entities as JSON lines"`
	Locate     LocateCmd     `cmd:"" help:"Find an entity's text in a live page"`
	Annotate   AnnotateCmd   `cmd:"" help:"Insert highlight anchors for a document's entities into a page"`
	Delete     DeleteCmd     `cmd:"" help:"Delete a document and everything derived from it"`
}

// AddCmd is the "add" subcommand.
type AddCmd struct {
	Source    string `arg:"" help:"File path, or URL with --url"`
	URL       bool   `short:"u" help:"Treat source as a URL and extract main content"`
	Title     string `short:"t" help:"Document title (defaults to extracted title or file name)"`
	Render    bool   `help:"Fetch the URL with a headless browser (for JavaScript-rendered pages)"`
	Extractor string `default:"trafilatura" enum:"trafilatura,readability" help:"Main-content extraction engine"`
}

// ReimportCmd is the "reimport" subcommand.
type ReimportCmd struct {
	ID        string `arg:"" help:"Document ID"`
	File      string `short:"f" help:"Read new content from a file instead of refetching the source URL"`
	Render    bool   `help:"Refetch with a headless browser (for JavaScript-rendered pages)"`
	Extractor string `default:"trafilatura" enum:"trafilatura,readability" help:"Main-content extraction engine"`
}

// DocsCmd is the "docs" subcommand.
type DocsCmd struct{}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	ID           string        `arg:"" help:"Document ID"`
	Instruction  string        `arg:"" help:"Extraction instruction for the model"`
	Examples     string        `short:"e" help:"Path to a JSON file of few-shot examples"`
	Provider     string        `default:"gemini" enum:"gemini,openai" help:"Extraction provider"`
	FuzzyFloor   float64       `default:"0.85" help:"Similarity floor for fuzzy alignment"`
	PartialFloor float64       `default:"0.5" help:"Similarity floor for partial alignment"`
	ChunkSize    int           `default:"4000" help:"Maximum chunk size in characters"`
	Overlap      int           `default:"400" help:"Overlap between adjacent chunks"`
	Concurrency  int           `short:"c" default:"4" help:"Concurrent chunk extraction limit"`
	Timeout      time.Duration `default:"5m" help:"Overall run timeout"`
	RPS          float64       `default:"0" help:"Extraction rate limit in requests per second (0 = unlimited)"`
}

// RunsCmd is the "runs" subcommand.
type RunsCmd struct {
	ID string `arg:"" help:"Document ID"`
}

// EntitiesCmd is the "entities" subcommand.
type EntitiesCmd struct {
	Doc     string `short:"d" help:"Filter by document ID"`
	RunID   string `short:"r" name:"run" help:"Filter by run ID"`
	Class   string `help:"Filter by class label"`
	Invalid bool   `help:"Include entities invalidated by a reimport"`
}

// RejectionsCmd is the "rejections" subcommand.
type RejectionsCmd struct {
	RunID string `arg:"" help:"Run ID"`
}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	ID     string `arg:"" help:"Document ID"`
	Output string `short:"o" default:"-" help:"Output file (- for stdout)"`
}

// LocateCmd is the "locate" subcommand.
type LocateCmd struct {
	EntityID string `arg:"" help:"Entity ID"`
	URL      string `help:"Page URL (defaults to the document's source URL)"`
	File     string `short:"f" help:"Read the page from a file instead of fetching"`
	Exclude  string `help:"CSS selector for regions to ignore"`
	Render   bool   `help:"Fetch the page with a headless browser (for JavaScript-rendered pages)"`
}

// AnnotateCmd is the "annotate" subcommand.
type AnnotateCmd struct {
	ID     string `arg:"" help:"Document ID"`
	URL    string `help:"Page URL (defaults to the document's source URL)"`
	File   string `short:"f" help:"Read the page from a file instead of fetching"`
	Render bool   `help:"Fetch the page with a headless browser (for JavaScript-rendered pages)"`
	Output string `short:"o" default:"-" help:"Output file for the annotated HTML (- for stdout)"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	ID    string `arg:"" help:"Document ID"`
	Force bool   `help:"Confirm deletion"`
}
