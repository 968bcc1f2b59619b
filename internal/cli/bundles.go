package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/recipegest/internal/aggregate"
	"github.com/dgallion1/recipegest/internal/store"
)

func newBundlesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundles",
		Short: "Show how pages group into recipes",
		Long: `Group the input pages into recipes without extracting anything.

Examples:
  recipegest bundles                          # Summary plus multi-page recipes
  recipegest bundles --json                   # Full plan as JSON
  recipegest bundles --save-mapping plan.json # Write the plan to a file
  recipegest bundles --unified-dir unified    # Write one combined text file per recipe`,
		Args: cobra.NoArgs,
		RunE: a.runBundles,
	}
	cmd.Flags().Bool("json", false, "output the plan as JSON")
	cmd.Flags().String("save-mapping", "", "write the plan as JSON to this file")
	cmd.Flags().String("unified-dir", "", "write each recipe's combined page text into this directory")
	return cmd
}

func (a *app) runBundles(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	jsonOutput, _ := cmd.Flags().GetBool("json")
	mappingPath, _ := cmd.Flags().GetString("save-mapping")
	unifiedDir, _ := cmd.Flags().GetString("unified-dir")

	docs, err := a.readPages(ctx)
	if err != nil {
		return err
	}
	bundles := aggregate.Aggregate(docs)
	plan := aggregate.Summarize(bundles)

	if mappingPath != "" {
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(mappingPath, data, 0o644); err != nil {
			return fmt.Errorf("saving mapping: %w", err)
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(plan); err != nil {
			return err
		}
	} else {
		printPlan(out, plan)
		if mappingPath != "" {
			fmt.Fprintf(out, "Saved mapping to: %s\n", mappingPath)
		}
	}

	if unifiedDir == "" {
		return nil
	}
	td, err := store.NewTextDir(unifiedDir)
	if err != nil {
		return err
	}
	for _, b := range bundles {
		name, err := td.Put(ctx, b.Title, b.Text())
		if err != nil {
			return fmt.Errorf("writing %s: %w", b.Title, err)
		}
		if !jsonOutput {
			pages := ""
			if len(b.Pages) > 1 {
				pages = fmt.Sprintf(" (%d pages)", len(b.Pages))
			}
			fmt.Fprintf(out, "  Created: %s%s\n", name, pages)
		}
	}
	return nil
}

func printPlan(out io.Writer, plan aggregate.Plan) {
	fmt.Fprintf(out, "Found %d recipes:\n\n", plan.Summary.Total)
	fmt.Fprintf(out, "Multi-page recipes: %d\n", plan.Summary.MultiPage)
	fmt.Fprintf(out, "Single-page recipes: %d\n\n", plan.Summary.SinglePage)

	if plan.Summary.MultiPage == 0 {
		return
	}
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "MULTI-PAGE RECIPES:")
	fmt.Fprintln(out, rule)
	i := 0
	for _, r := range plan.Recipes {
		if len(r.Files) < 2 {
			continue
		}
		i++
		status := "?"
		if r.Complete {
			status = "✓"
		}
		fmt.Fprintf(out, "%3d. [%s] %s\n", i, status, r.Title)
		fmt.Fprintf(out, "     Files: %s\n", strings.Join(r.Files, ", "))
	}
	fmt.Fprintln(out)
}
