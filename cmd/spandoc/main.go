package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/spandoc"
	"github.com/fwojciec/spandoc/gemini"
	"github.com/fwojciec/spandoc/goquery"
	spandochttp "github.com/fwojciec/spandoc/http"
	spandocopenai "github.com/fwojciec/spandoc/openai"
	"github.com/fwojciec/spandoc/pipeline"
	"github.com/fwojciec/spandoc/readability"
	"github.com/fwojciec/spandoc/rod"
	spandocslog "github.com/fwojciec/spandoc/slog"
	"github.com/fwojciec/spandoc/sqlite"
	"github.com/fwojciec/spandoc/trafilatura"
	openaigo "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	DocumentService spandoc.DocumentService
	RunService      spandoc.RunService
	EntityService   spandoc.EntityService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("spandoc"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'spandoc --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logLevel := slog.LevelError
	if cli.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel}))

	// Open database
	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set SPANDOC_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	// Wire core services into dependencies
	m.DocumentService = sqlite.NewDocumentService(m.DB)
	m.RunService = sqlite.NewRunService(m.DB)
	m.EntityService = sqlite.NewEntityService(m.DB)
	deps.DB = m.DB
	deps.Documents = m.DocumentService
	deps.Runs = m.RunService
	deps.Entities = m.EntityService
	deps.Rejections = sqlite.NewRejectionService(m.DB)
	deps.Fetcher = spandochttp.NewFetcher()
	deps.Content = trafilatura.NewExtractor()
	if cli.Add.Extractor == "readability" || cli.Reimport.Extractor == "readability" {
		deps.Content = readability.NewExtractor()
	}

	// JavaScript-rendered pages need a real browser; everything else goes
	// through the plain HTTP fetcher.
	if cli.Add.Render || cli.Reimport.Render || cli.Locate.Render || cli.Annotate.Render {
		browser, err := rod.NewFetcher()
		if err != nil {
			fmt.Fprintln(stderr, "Hint: --render requires Chrome or Chromium to be installed")
			return fmt.Errorf("failed to launch browser: %w", err)
		}
		defer browser.Close()
		deps.Fetcher = browser
	}
	deps.NewLocator = func(rawHTML, exclude string) (spandoc.Locator, error) {
		loc, err := goquery.NewLocator(rawHTML, exclude)
		if err != nil {
			return nil, err
		}
		return spandocslog.NewLoggingLocator(loc, logger), nil
	}

	if cmd == "extract" {
		extractor, err := newExtractor(ctx, cli.Extract.Provider, stderr)
		if err != nil {
			return err
		}

		aligner, err := spandoc.NewAligner(spandoc.AlignConfig{
			FuzzyFloor:   cli.Extract.FuzzyFloor,
			PartialFloor: cli.Extract.PartialFloor,
			MinLength:    spandoc.DefaultMinLength,
		})
		if err != nil {
			return err
		}

		deps.Runner = &pipeline.Runner{
			Documents:   deps.Documents,
			Runs:        deps.Runs,
			Entities:    deps.Entities,
			Rejections:  deps.Rejections,
			Extractor:   spandocslog.NewLoggingExtractor(extractor, logger),
			Aligner:     aligner,
			ChunkConfig: spandoc.ChunkConfig{MaxSize: cli.Extract.ChunkSize, Overlap: cli.Extract.Overlap},
			MergeConfig: spandoc.DefaultMergeConfig(),
			Provider:    cli.Extract.Provider,
			Concurrency: cli.Extract.Concurrency,
			Timeout:     cli.Extract.Timeout,
		}
		if cli.Extract.RPS > 0 {
			deps.Runner.Limiter = rate.NewLimiter(rate.Limit(cli.Extract.RPS), 1)
		}

		if cli.Extract.Provider == "gemini" {
			// Token counting is diagnostic only; a tokenizer setup
			// failure should not block extraction.
			if tc, err := gemini.NewTokenCounter(tokenizerModel); err == nil {
				deps.Runner.TokenCounter = tc
			}
		}
	}

	return kongCtx.Run(deps)
}

// tokenizerModel is used for token counting run diagnostics.
const tokenizerModel = "gemini-2.5-flash"

// newExtractor builds the provider-specific extraction client.
func newExtractor(ctx context.Context, provider string, stderr io.Writer) (spandoc.Extractor, error) {
	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "OPENAI_API_KEY environment variable not set")
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
		client := openaigo.NewClient(option.WithAPIKey(apiKey))
		return spandocopenai.NewExtractor(client, ""), nil

	default:
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
			return nil, fmt.Errorf("GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		return gemini.NewExtractor(client), nil
	}
}

func defaultDBPath() string {
	if path := os.Getenv("SPANDOC_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "spandoc.db"
	}
	dir := filepath.Join(home, ".spandoc")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "spandoc.db")
}
