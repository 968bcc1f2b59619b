// Package cli contains the recipegest batch commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dgallion1/recipegest/internal/config"
	"github.com/dgallion1/recipegest/internal/extract"
	"github.com/dgallion1/recipegest/internal/page"
	"github.com/dgallion1/recipegest/internal/parser"
	"github.com/dgallion1/recipegest/internal/store"
)

// app carries flag values and the loaded configuration for one invocation.
type app struct {
	input      string
	output     string
	sink       string
	db         string
	vocabulary string
	workers    int
	verbose    bool

	cfg config.Config
	log *slog.Logger
}

// NewRootCmd builds the command tree. Each call returns fresh state, so tests
// can run commands side by side.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "recipegest",
		Short: "Turn OCR'd recipe pages into structured recipe records",
		Long: `recipegest groups consecutive OCR pages into recipes and extracts
structured fields (name, times, servings, ingredients, instructions, notes,
nutrition, tags) from each one.

Example usage:
  recipegest bundles                       # Show how pages group into recipes
  recipegest bundles --json                # Same, as a JSON plan
  recipegest structure --output recipes    # Extract and persist every recipe
  recipegest classify ocr_results/p12.md   # Explain how one page is classified`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.input, "input", "", "directory of OCR page files (default $INPUT_DIR or ocr_results)")
	f.StringVar(&a.output, "output", "", "directory for JSON records (default $OUTPUT_DIR or recipes_structured)")
	f.StringVar(&a.sink, "sink", "", "record sink: file or sqlite (default $SINK or file)")
	f.StringVar(&a.db, "db", "", "SQLite database for the sqlite sink (default $SQLITE_PATH or recipes.db)")
	f.StringVar(&a.vocabulary, "vocabulary", "", "YAML tag vocabulary overriding the built-in tables")
	f.IntVar(&a.workers, "workers", 0, "concurrent extractions (default $MAX_CONCURRENT_EXTRACT)")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newStructureCmd(a), newBundlesCmd(a), newClassifyCmd(a))
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.InputDir = a.input
	}
	if flags.Changed("output") {
		cfg.OutputDir = a.output
	}
	if flags.Changed("sink") {
		cfg.Sink = a.sink
	}
	if flags.Changed("db") {
		cfg.SQLitePath = a.db
	}
	if flags.Changed("vocabulary") {
		cfg.VocabularyPath = a.vocabulary
	}
	if flags.Changed("workers") && a.workers > 0 {
		cfg.MaxConcurrentExtract = a.workers
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	a.cfg = cfg
	a.log = cfg.NewLogger(cmd.ErrOrStderr())
	a.log.Debug("configuration loaded",
		"input_dir", cfg.InputDir,
		"sink", cfg.Sink,
		"workers", cfg.MaxConcurrentExtract,
	)
	return nil
}

func (a *app) parserOptions() parser.Options {
	return parser.Options{PDFFallbackPdftotext: a.cfg.PDFFallbackPdftotext}
}

func (a *app) extractor() (*extract.Extractor, error) {
	var vocab *extract.Vocabulary
	if a.cfg.VocabularyPath != "" {
		v, err := extract.LoadVocabulary(a.cfg.VocabularyPath)
		if err != nil {
			return nil, err
		}
		vocab = v
	}
	return extract.NewExtractor(vocab, extract.NewStats(0)), nil
}

func (a *app) openSink(ctx context.Context) (store.RecipeSink, error) {
	switch a.cfg.Sink {
	case config.SinkSQLite:
		return store.OpenSQLite(ctx, a.cfg.SQLitePath)
	default:
		return store.NewFileSink(a.cfg.OutputDir)
	}
}

// readPages reads every page in the input directory. Unreadable files are
// logged and skipped.
func (a *app) readPages(ctx context.Context) ([]page.Document, error) {
	src := store.NewDirSource(a.cfg.InputDir, a.parserOptions())
	ids, err := src.List(ctx)
	if err != nil {
		return nil, err
	}
	var docs []page.Document
	for _, id := range ids {
		pages, err := src.Read(ctx, id)
		if err != nil {
			a.log.Warn("skipping unreadable file", "file", id, "error", err)
			continue
		}
		docs = append(docs, pages...)
	}
	return docs, nil
}
