// Package aggregate groups an ordered stream of OCR pages into per-recipe
// bundles. Each page is classified as a continuation of the open bundle or the
// start of a new recipe, and bundles are marked complete once any page shows
// an ending marker.
package aggregate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/recipegest/internal/page"
	"github.com/dgallion1/recipegest/internal/textnorm"
)

var (
	stepNumber       = regexp.MustCompile(`^(\d+)[.)]`)
	stepHeading      = regexp.MustCompile(`^(?:#{2,6}\s*steps?\b|steps?\s+\d)`)
	instructionLabel = regexp.MustCompile(`\bsteps?\b|instruction|direction`)
	ingredientsHead  = regexp.MustCompile(`(?m)^\s*#{1,3}\s*ingredients?\b`)
	capitalizedH1    = regexp.MustCompile(`^\s*#\s+\p{Lu}`)
	endingHeading    = regexp.MustCompile(`(?m)^\s*#{1,6}\s*(?:notes?|nutrition)\b`)
	recipeFor        = regexp.MustCompile(`(?i)RECIPE FOR:\s*(.+)`)
	noisePrefix      = regexp.MustCompile(`^W/\s*`)
)

// Steps 1 and 2 read like short ingredient lists, so only step 3 and up count.
const minContinuationStep = 3

var cookingOpeners = []string{
	"once ", "pour ", "add ", "cook ", "stir ", "heat ", "mix ", "place ", "meanwhile",
}

// signal is one named heuristic over a page's lines.
type signal struct {
	name  string
	match func(lines []string) bool
}

var continuationSignals = []signal{
	{"numbered_step", func(lines []string) bool {
		m := stepNumber.FindStringSubmatch(firstLine(lines))
		if m == nil {
			return false
		}
		n, err := strconv.Atoi(m[1])
		return err == nil && n >= minContinuationStep
	}},
	{"cooking_verb", func(lines []string) bool {
		first := strings.ToLower(firstLine(lines))
		for _, p := range cookingOpeners {
			if strings.HasPrefix(first, p) {
				return true
			}
		}
		return false
	}},
	{"lowercase_start", func(lines []string) bool {
		return textnorm.StartsLower(firstLine(lines))
	}},
	{"step_heading", func(lines []string) bool {
		for _, l := range textnorm.Head(lines, 5) {
			l = strings.ToLower(strings.TrimSpace(l))
			if level, _ := textnorm.Heading(l); level == 1 {
				return false
			}
			if stepHeading.MatchString(l) {
				return true
			}
		}
		return false
	}},
	{"bare_link", func(lines []string) bool {
		if !textnorm.IsLink(firstLine(lines)) {
			return false
		}
		for _, l := range textnorm.Head(lines, 10) {
			if textnorm.IsHeading(l, 6) {
				return false
			}
		}
		return true
	}},
}

var newRecipeSignals = []signal{
	{"title_heading", func(lines []string) bool {
		for _, l := range textnorm.Head(lines, 3) {
			level, text := textnorm.Heading(l)
			if level == 0 || level > 2 {
				continue
			}
			if !instructionLabel.MatchString(strings.ToLower(text)) {
				return true
			}
		}
		return false
	}},
	{"prep_and_cook_time", func(lines []string) bool {
		head := textnorm.HeadLower(lines, 5)
		return strings.Contains(head, "prep time") && strings.Contains(head, "cook time")
	}},
	{"ingredients_heading", func(lines []string) bool {
		return ingredientsHead.MatchString(textnorm.HeadLower(lines, 5))
	}},
	{"recipe_for", func(lines []string) bool {
		return strings.Contains(textnorm.HeadLower(lines, 5), "recipe for:")
	}},
	{"capitalized_h1", func(lines []string) bool {
		return len(lines) > 0 && capitalizedH1.MatchString(lines[0])
	}},
}

func firstLine(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[0])
}

func matching(signals []signal, lines []string) []string {
	var names []string
	for _, s := range signals {
		if s.match(lines) {
			names = append(names, s.name)
		}
	}
	return names
}

// IsContinuation reports whether the page extends the previous recipe. Any
// new-recipe signal overrides every continuation signal.
func IsContinuation(doc page.Document) bool {
	lines := textnorm.Lines(doc.Text)
	for _, s := range newRecipeSignals {
		if s.match(lines) {
			return false
		}
	}
	for _, s := range continuationSignals {
		if s.match(lines) {
			return true
		}
	}
	return false
}

// HasEnding reports whether the page looks like the last page of a recipe.
func HasEnding(doc page.Document) bool {
	lower := strings.ToLower(doc.Text)
	if endingHeading.MatchString(lower) {
		return true
	}
	tail := textnorm.Tail(lower, 500)
	switch {
	case strings.Contains(tail, "calories:"):
		return true
	case strings.Contains(tail, "serving:") &&
		(strings.Contains(tail, "calories") || strings.Contains(tail, "carbohydrates")):
		return true
	case strings.Contains(tail, "find it online:"), strings.Contains(tail, "recipe from"):
		return true
	case strings.Contains(tail, "can be made") && strings.Contains(tail, "ahead"):
		return true
	}
	return false
}

// ExtractTitle finds a best-effort title in the first ten lines of a page:
// a "RECIPE FOR:" marker, then a level-1 heading, then the first plain line
// that is not a link, image or markup. It returns "" when nothing fits.
func ExtractTitle(doc page.Document) string {
	lines := textnorm.Head(textnorm.Lines(doc.Text), 10)

	for _, l := range lines {
		if m := recipeFor.FindStringSubmatch(l); m != nil {
			if t := strings.TrimSpace(m[1]); t != "" {
				return t
			}
		}
	}
	for _, l := range lines {
		if level, text := textnorm.Heading(l); level == 1 && text != "" {
			return text
		}
	}
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" || textnorm.IsLink(l) || textnorm.IsImage(l) || textnorm.IsMarkupOnly(l) {
			continue
		}
		if strings.ContainsRune("|!-*#", rune(l[0])) {
			continue
		}
		if l = noisePrefix.ReplaceAllString(l, ""); len(l) > 3 {
			return l
		}
	}
	return ""
}

// Signals is the per-page classification report.
type Signals struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Continuation        bool     `json:"continuation"`
	Ending              bool     `json:"ending"`
	ContinuationSignals []string `json:"continuation_signals"`
	NewRecipeSignals    []string `json:"new_recipe_signals"`
}

// Classify reports every signal that fired for one page.
func Classify(doc page.Document) Signals {
	lines := textnorm.Lines(doc.Text)
	cont := matching(continuationSignals, lines)
	fresh := matching(newRecipeSignals, lines)
	if cont == nil {
		cont = []string{}
	}
	if fresh == nil {
		fresh = []string{}
	}
	return Signals{
		ID:                  doc.ID,
		Title:               ExtractTitle(doc),
		Continuation:        len(cont) > 0 && len(fresh) == 0,
		Ending:              HasEnding(doc),
		ContinuationSignals: cont,
		NewRecipeSignals:    fresh,
	}
}
