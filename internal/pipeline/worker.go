package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/recipegest/internal/aggregate"
	"github.com/dgallion1/recipegest/internal/extract"
	"github.com/dgallion1/recipegest/internal/page"
	"github.com/dgallion1/recipegest/internal/store"
)

// Worker runs the structuring pipeline for a job.
type Worker struct {
	extractor *extract.Extractor
	sink      store.RecipeSink
	log       *slog.Logger

	maxConcurrentExtract int
}

func NewWorker(extractor *extract.Extractor, sink store.RecipeSink, log *slog.Logger, maxExtract int) *Worker {
	if maxExtract <= 0 {
		maxExtract = 1
	}
	return &Worker{
		extractor:            extractor,
		sink:                 sink,
		log:                  log,
		maxConcurrentExtract: maxExtract,
	}
}

// Process reads every page of the job's source, groups pages into bundles,
// then extracts and persists one record per bundle. A failure on one file or
// one record is recorded on the job and the run continues.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)
	src := job.Source()

	// Phase 1: Read
	job.SetStatus(StatusReading, "reading")
	ids, err := src.List(ctx)
	if err != nil {
		log.Error("list pages failed", "error", err)
		job.AddError(fmt.Sprintf("list: %s", err))
		job.SetStatus(StatusFailed, "reading")
		return
	}

	var docs []page.Document
	hadErrors := false
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			job.AddError(err.Error())
			job.SetStatus(StatusFailed, "reading")
			return
		}
		pages, err := src.Read(ctx, id)
		if err != nil {
			log.Error("read failed", "file", id, "error", err)
			job.AddError(fmt.Sprintf("read %s: %s", id, err))
			job.AddResults(RecordResult{Title: id, Pages: []string{id}, Error: err.Error()})
			hadErrors = true
			continue
		}
		docs = append(docs, pages...)
	}
	job.SetTotals(len(ids), len(docs), -1)

	if len(docs) == 0 {
		log.Warn("no pages read", "files", len(ids))
		job.AddError("no readable pages")
		job.SetStatus(StatusFailed, "reading")
		return
	}

	// Phase 2: Aggregate. Strictly sequential.
	job.SetStatus(StatusAggregating, "aggregating")
	bundles := aggregate.Aggregate(docs)
	job.SetTotals(-1, -1, len(bundles))
	log.Info("aggregated pages", "pages", len(docs), "bundles", len(bundles))

	// Phase 3: Extract with bounded concurrency, then persist in bundle order
	// so colliding names are suffixed the same way on every run.
	job.SetStatus(StatusExtracting, "extracting")
	results := make([]RecordResult, len(bundles))
	recs := make([]extract.Recipe, len(bundles))
	var g errgroup.Group
	g.SetLimit(w.maxConcurrentExtract)
	for i, b := range bundles {
		g.Go(func() error {
			results[i], recs[i] = w.structure(ctx, b)
			return nil
		})
	}
	// Per-record failures live in results, never in the group error.
	_ = g.Wait()

	for i := range results {
		if !results[i].Failed() {
			w.persist(ctx, &results[i], recs[i])
		}
		job.MarkProcessed(results[i].Key != "")
	}

	stored := 0
	for _, r := range results {
		if r.Failed() {
			log.Error("record failed", "title", r.Title, "error", r.Error)
			job.AddError(fmt.Sprintf("%s: %s", r.Title, r.Error))
			hadErrors = true
			continue
		}
		stored++
	}
	job.AddResults(results...)
	log.Info("structuring complete", "stored", stored, "total", len(bundles))

	if hadErrors && stored > 0 {
		job.SetStatus(StatusPartial, "done")
	} else if hadErrors {
		job.SetStatus(StatusFailed, "extracting")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
}

// structure extracts and validates one bundle.
func (w *Worker) structure(ctx context.Context, b page.Bundle) (RecordResult, extract.Recipe) {
	res := RecordResult{Title: b.Title, Pages: b.PageIDs(), Complete: b.Complete}
	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return res, extract.Recipe{}
	}

	rec := w.extractor.Extract(b)
	res.Name = rec.Name
	if err := extract.Validate(&rec); err != nil {
		res.Error = err.Error()
		return res, extract.Recipe{}
	}
	res.Ingredients = len(rec.Ingredients) + len(rec.IngredientGroups.All())
	res.Instructions = len(rec.Instructions)
	res.Tags = len(rec.Tags)
	return res, rec
}

func (w *Worker) persist(ctx context.Context, res *RecordResult, rec extract.Recipe) {
	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return
	}
	key, err := w.sink.Put(ctx, rec)
	if err != nil {
		res.Error = fmt.Sprintf("store: %s", err)
		return
	}
	res.Key = key
}
