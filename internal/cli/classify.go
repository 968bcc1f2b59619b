package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/recipegest/internal/aggregate"
	"github.com/dgallion1/recipegest/internal/extract"
	"github.com/dgallion1/recipegest/internal/parser"
)

func newClassifyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <file>",
		Short: "Explain how each page of one file is classified",
		Long: `Report the title, continuation signals, new-recipe signals and
ending marker the aggregator sees for every page of a single file.

With --extract, also print the record each resulting recipe would produce.`,
		Args: cobra.ExactArgs(1),
		RunE: a.runClassify,
	}
	cmd.Flags().Bool("json", false, "output as JSON")
	cmd.Flags().Bool("extract", false, "also print the extracted records")
	return cmd
}

type classifyReport struct {
	Pages   []aggregate.Signals `json:"pages"`
	Recipes []extract.Recipe    `json:"recipes,omitempty"`
}

func (a *app) runClassify(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	jsonOutput, _ := cmd.Flags().GetBool("json")
	withExtract, _ := cmd.Flags().GetBool("extract")

	path := args[0]
	p, err := parser.ForFile(path, a.parserOptions())
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	docs, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	var report classifyReport
	for _, d := range docs {
		report.Pages = append(report.Pages, aggregate.Classify(d))
	}
	if withExtract {
		ex, err := a.extractor()
		if err != nil {
			return err
		}
		for _, b := range aggregate.Aggregate(docs) {
			rec := ex.Extract(b)
			if err := extract.Validate(&rec); err != nil {
				return err
			}
			report.Recipes = append(report.Recipes, rec)
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	for _, s := range report.Pages {
		printSignals(out, s)
	}
	for _, r := range report.Recipes {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", data)
	}
	return nil
}

func printSignals(out io.Writer, s aggregate.Signals) {
	list := func(names []string) string {
		if len(names) == 0 {
			return "-"
		}
		return strings.Join(names, ", ")
	}
	fmt.Fprintln(out, s.ID)
	fmt.Fprintf(out, "  title:        %s\n", s.Title)
	fmt.Fprintf(out, "  continuation: %t (%s)\n", s.Continuation, list(s.ContinuationSignals))
	fmt.Fprintf(out, "  new recipe:   %s\n", list(s.NewRecipeSignals))
	fmt.Fprintf(out, "  ending:       %t\n", s.Ending)
}
