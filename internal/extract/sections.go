package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dgallion1/recipegest/internal/textnorm"
)

const (
	minIngredient = 3
	minStep       = 10
	maxGroupLabel = 50
)

var (
	ingredientsStart  = regexp.MustCompile(`^#{1,3}\s*ingredients?`)
	instructionsStart = regexp.MustCompile(`^#{1,3}\s*(?:instructions?|directions?|method|preparation|steps?)`)
	instructionsLabel = regexp.MustCompile(`^(?:instructions?|directions?|method|preparation|steps?):?$`)
	instructionsEnd   = regexp.MustCompile(`^#{1,3}\s*(?:notes?|tips?|nutrition|equipment)`)
	firstStep         = regexp.MustCompile(`^1\s*[.)]\s*\w`)
	stepOnlyHeading   = regexp.MustCompile(`^#{1,3}\s*step\s*\d+`)
	notesStart        = regexp.MustCompile(`^#{1,3}\s*(?:notes?|tips?|cook.?s?\s*notes?|variations?)`)
	notesEnd          = regexp.MustCompile(`^#{1,3}\s*(?:nutrition|equipment)`)

	measurement      = regexp.MustCompile(`(?i)\d+\s*(?:c\.|cup|tsp|tbs|tbsp|oz|lb|pound|teaspoon|tablespoon|inch|clove|sprig)`)
	instructionVerbs = regexp.MustCompile(`^(?:In |Add |Heat |Pour |Cook |Place |Season |Transfer )`)
)

// ingredientSet collects ingredient rows, routing them into the active group
// when one is open.
type ingredientSet struct {
	flat    []string
	groups  Groups
	current int // index into groups, -1 when no group is open
}

func newIngredientSet() *ingredientSet {
	return &ingredientSet{flat: []string{}, current: -1}
}

// open starts (or resumes) the named group. An empty name closes the active
// group so later rows go to the flat list.
func (s *ingredientSet) open(name string) {
	if name == "" {
		s.current = -1
		return
	}
	for i, g := range s.groups {
		if g.Name == name {
			s.current = i
			return
		}
	}
	s.groups = append(s.groups, Group{Name: name})
	s.current = len(s.groups) - 1
}

func (s *ingredientSet) add(item string) {
	if s.current >= 0 {
		s.groups[s.current].Items = append(s.groups[s.current].Items, item)
		return
	}
	s.flat = append(s.flat, item)
}

func (s *ingredientSet) empty() bool {
	return len(s.flat) == 0 && len(s.groups.All()) == 0
}

// result drops empty groups, then keeps the groups only when two or more are
// populated. A single group is folded back into the flat list.
func (s *ingredientSet) result() ([]string, Groups) {
	var populated Groups
	for _, g := range s.groups {
		if len(g.Items) > 0 {
			populated = append(populated, g)
		}
	}
	switch len(populated) {
	case 0:
		return s.flat, nil
	case 1:
		return append(s.flat, populated[0].Items...), nil
	default:
		return s.flat, populated
	}
}

func extractIngredients(text string) ([]string, Groups) {
	lines := textnorm.Lines(text)
	set := newIngredientSet()
	scanIngredientSection(lines, set)
	if set.empty() {
		scanHandwritten(lines, newFallbackSet(set))
	}
	return set.result()
}

// scanIngredientSection reads a marked-up "Ingredients" section.
func scanIngredientSection(lines []string, set *ingredientSet) {
	in := false
	for _, line := range lines {
		l := strings.TrimSpace(line)
		lower := strings.ToLower(l)

		if ingredientsStart.MatchString(lower) || lower == "ingredients" || lower == "ingredients:" {
			in = true
			continue
		}
		if in && (instructionsStart.MatchString(lower) || instructionsLabel.MatchString(lower)) {
			return
		}
		if !in || l == "" || textnorm.IsImage(l) || textnorm.IsTableSeparator(l) {
			continue
		}

		if strings.HasPrefix(l, "###") || (strings.HasSuffix(l, ":") && len(l) < maxGroupLabel) {
			set.open(strings.TrimSpace(strings.TrimSuffix(strings.TrimLeft(l, "#"), ":")))
			continue
		}

		item := textnorm.StripListPrefix(l)
		if textnorm.RuneLen(item) < minIngredient || strings.HasPrefix(item, "#") {
			continue
		}
		if il := strings.ToLower(item); strings.Contains(il, "cook mode") || strings.Contains(il, "screen") {
			continue
		}
		if strings.Contains(item, "|") {
			for _, cell := range textnorm.SplitTableRow(item) {
				set.add(cell)
			}
			continue
		}
		set.add(item)
	}
}

// fallbackSet wraps an ingredient set for handwritten transcripts, where
// group labels are all-caps lines that read better title-cased.
type fallbackSet struct {
	*ingredientSet
	caser cases.Caser
}

func newFallbackSet(set *ingredientSet) *fallbackSet {
	return &fallbackSet{ingredientSet: set, caser: cases.Title(language.English)}
}

// scanHandwritten reads "RECIPE FOR:" card transcripts, which carry no
// section headings. Lines with a quantity and unit are ingredients, often in
// two columns; short all-caps lines label groups.
func scanHandwritten(lines []string, set *fallbackSet) {
	in := false
	for i, line := range lines {
		l := strings.TrimSpace(line)

		if strings.Contains(strings.ToUpper(line), "RECIPE FOR:") {
			in = true
			continue
		}
		if !in {
			continue
		}

		if len(l) > 100 && instructionVerbs.MatchString(l) {
			return
		}
		if (l == "" || l == "DSS") && i > 5 {
			if l == "" && longLineAhead(lines, i) {
				return
			}
			continue
		}
		if strings.Contains(strings.ToUpper(l), "PREPARATION TIME") {
			return
		}
		if l == "" || l == "DSS" {
			continue
		}

		switch {
		case measurement.MatchString(l):
			addColumns(set.ingredientSet, l)
		case textnorm.IsAllCaps(l) && len(l) < 30:
			set.open(set.caser.String(l))
		case set.current >= 0 && len(l) > 3:
			addColumns(set.ingredientSet, l)
		}
	}
}

// longLineAhead reports whether either of the two lines after i is a long
// prose line, which marks the end of the ingredient block.
func longLineAhead(lines []string, i int) bool {
	end := min(i+3, len(lines))
	for _, next := range lines[i+1 : end] {
		if n := strings.TrimSpace(next); n != "" && len(n) > 80 {
			return true
		}
	}
	return false
}

func addColumns(set *ingredientSet, line string) {
	for _, part := range textnorm.SplitColumns(line) {
		if len(part) > 3 {
			set.add(part)
		}
	}
}

func extractInstructions(text string) []string {
	lines := textnorm.Lines(text)
	out := []string{}

	start := -1
	for i, line := range lines {
		lower := strings.ToLower(strings.TrimSpace(line))
		if instructionsStart.MatchString(lower) || instructionsLabel.MatchString(lower) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		for i, line := range lines {
			if firstStep.MatchString(strings.TrimSpace(line)) {
				start = i
				break
			}
		}
	}
	if start < 0 {
		return out
	}

	for _, line := range lines[start:] {
		l := strings.TrimSpace(line)
		lower := strings.ToLower(l)

		if instructionsEnd.MatchString(lower) {
			break
		}
		if instructionsStart.MatchString(lower) || instructionsLabel.MatchString(lower) {
			continue
		}
		if l == "" || textnorm.IsImage(l) || stepOnlyHeading.MatchString(lower) {
			continue
		}
		if step := textnorm.StripListPrefix(l); textnorm.RuneLen(step) >= minStep {
			out = append(out, step)
		}
	}
	return out
}

func extractNotes(text string) []string {
	var notes []string
	in := false
	for _, line := range textnorm.Lines(text) {
		l := strings.TrimSpace(line)
		lower := strings.ToLower(l)

		if notesStart.MatchString(lower) {
			in = true
			continue
		}
		if in && notesEnd.MatchString(lower) {
			break
		}
		if !in || l == "" || textnorm.IsImage(l) {
			continue
		}
		if note := textnorm.StripListPrefix(l); textnorm.RuneLen(note) >= minStep {
			notes = append(notes, note)
		}
	}
	return notes
}
