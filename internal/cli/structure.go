package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/recipegest/internal/config"
	"github.com/dgallion1/recipegest/internal/pipeline"
	"github.com/dgallion1/recipegest/internal/store"
	"github.com/dgallion1/recipegest/internal/textnorm"
)

func newStructureCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "structure",
		Short: "Extract and persist a structured record for every recipe",
		Long: `Read all pages from the input directory, group them into recipes,
extract each recipe's fields and persist one record per recipe.

A file that cannot be read or a record that cannot be written is reported
and skipped; the rest of the batch still runs.`,
		Args: cobra.NoArgs,
		RunE: a.runStructure,
	}
}

func (a *app) runStructure(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	ex, err := a.extractor()
	if err != nil {
		return err
	}
	sink, err := a.openSink(ctx)
	if err != nil {
		return fmt.Errorf("opening sink: %w", err)
	}
	defer sink.Close()

	job := pipeline.NewJob(store.NewDirSource(a.cfg.InputDir, a.parserOptions()))
	pipeline.NewWorker(ex, sink, a.log, a.cfg.MaxConcurrentExtract).Process(ctx, job)
	snap := job.Snapshot()

	fmt.Fprintf(out, "Processing %d recipes from %d pages...\n\n", snap.Progress.TotalBundles, snap.Progress.TotalPages)

	var failed []pipeline.RecordResult
	n := len(snap.Results)
	for i, r := range snap.Results {
		if r.Failed() {
			failed = append(failed, r)
			fmt.Fprintf(out, "[%d/%d] %-50s FAILED\n", i+1, n, textnorm.Truncate(r.Title, 50))
			continue
		}
		fmt.Fprintf(out, "[%d/%d] %-50s (%d ing, %d steps, %d tags)\n",
			i+1, n, textnorm.Truncate(r.Name, 50), r.Ingredients, r.Instructions, r.Tags)
	}

	if len(failed) > 0 {
		fmt.Fprintf(out, "\nFailures (%d):\n", len(failed))
		for _, r := range failed {
			fmt.Fprintf(out, "  %s: %s\n", r.Title, r.Error)
		}
	}

	dest := a.cfg.OutputDir
	if a.cfg.Sink == config.SinkSQLite {
		dest = a.cfg.SQLitePath
	}
	fmt.Fprintf(out, "\nDone! Stored %d of %d recipes in %s\n", snap.Progress.RecipesStored, snap.Progress.TotalBundles, dest)

	if snap.Status == pipeline.StatusFailed {
		if len(snap.Progress.Errors) > 0 {
			return fmt.Errorf("structuring failed: %s", snap.Progress.Errors[len(snap.Progress.Errors)-1])
		}
		return fmt.Errorf("structuring failed")
	}
	return nil
}
