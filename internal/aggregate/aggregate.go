package aggregate

import (
	"slices"

	"github.com/dgallion1/recipegest/internal/page"
	"github.com/dgallion1/recipegest/internal/textnorm"
)

// State is the fold accumulator: bundles already closed plus the one bundle
// still accepting pages. The zero value is the empty state.
type State struct {
	Closed []page.Bundle
	Open   *page.Bundle
}

// Step feeds one page into the fold. A page opens a new bundle when nothing is
// open yet, or when it is not a continuation and yields a title; otherwise it
// is appended to the open bundle. Step never mutates s.
func Step(s State, doc page.Document) State {
	title := ExtractTitle(doc)
	ending := HasEnding(doc)

	if s.Open == nil || (!IsContinuation(doc) && title != "") {
		closed := s.Closed
		if s.Open != nil {
			closed = append(slices.Clip(closed), *s.Open)
		}
		if title == "" {
			title = textnorm.Stem(doc.ID)
		}
		return State{
			Closed: closed,
			Open: &page.Bundle{
				Title:    title,
				Complete: ending,
				Pages:    []page.Document{doc},
			},
		}
	}

	open := *s.Open
	open.Pages = append(slices.Clip(open.Pages), doc)
	open.Complete = open.Complete || ending
	return State{Closed: s.Closed, Open: &open}
}

// Finish closes the open bundle, if any, and returns every bundle in order.
func Finish(s State) []page.Bundle {
	if s.Open == nil {
		return s.Closed
	}
	return append(slices.Clip(s.Closed), *s.Open)
}

// Aggregate folds an ordered page stream into bundles. Every page lands in
// exactly one bundle and page order is preserved.
func Aggregate(docs []page.Document) []page.Bundle {
	var s State
	for _, d := range docs {
		s = Step(s, d)
	}
	return Finish(s)
}

// PlanEntry describes one bundle in an aggregation plan.
type PlanEntry struct {
	Title    string   `json:"title"`
	Files    []string `json:"files"`
	Complete bool     `json:"complete"`
}

// PlanSummary counts bundles by page count.
type PlanSummary struct {
	Total      int `json:"total"`
	MultiPage  int `json:"multi_page"`
	SinglePage int `json:"single_page"`
}

// Plan is the reviewable grouping produced before extraction.
type Plan struct {
	Recipes []PlanEntry `json:"recipes"`
	Summary PlanSummary `json:"summary"`
}

// Summarize turns bundles into a plan for review.
func Summarize(bundles []page.Bundle) Plan {
	plan := Plan{Recipes: make([]PlanEntry, 0, len(bundles))}
	for _, b := range bundles {
		plan.Recipes = append(plan.Recipes, PlanEntry{
			Title:    b.Title,
			Files:    b.PageIDs(),
			Complete: b.Complete,
		})
		if len(b.Pages) > 1 {
			plan.Summary.MultiPage++
		} else {
			plan.Summary.SinglePage++
		}
	}
	plan.Summary.Total = len(bundles)
	return plan
}
