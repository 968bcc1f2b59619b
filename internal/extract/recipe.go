// Package extract turns one aggregated recipe text into a structured record.
// Every field extractor is a pure function over the text that either finds a
// value or reports it absent; extraction as a whole never fails.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/dgallion1/recipegest/internal/page"
)

// Recipe is the structured record persisted for one bundle. Optional fields
// are omitted when absent. Ingredients, instructions and tags are always
// present; category is always present and null until a later pass fills it.
type Recipe struct {
	Name             string            `json:"name"`
	Source           string            `json:"source,omitempty"`
	Description      string            `json:"description,omitempty"`
	PrepTime         string            `json:"prep_time,omitempty"`
	CookTime         string            `json:"cook_time,omitempty"`
	TotalTime        string            `json:"total_time,omitempty"`
	Servings         string            `json:"servings,omitempty"`
	Ingredients      []string          `json:"ingredients"`
	IngredientGroups Groups            `json:"ingredient_groups,omitempty"`
	Instructions     []string          `json:"instructions"`
	Notes            []string          `json:"notes,omitempty"`
	Nutrition        map[string]string `json:"nutrition,omitempty"`
	Category         *string           `json:"category"`
	Tags             []string          `json:"tags"`
}

// Group is one labelled ingredient sub-list, e.g. "Sauce".
type Group struct {
	Name  string
	Items []string
}

// Groups keeps ingredient groups in source order. It encodes as a JSON object
// whose keys appear in that order.
type Groups []Group

// Get returns the items of the named group.
func (g Groups) Get(name string) ([]string, bool) {
	for _, grp := range g {
		if grp.Name == name {
			return grp.Items, true
		}
	}
	return nil, false
}

// Names lists group names in order.
func (g Groups) Names() []string {
	names := make([]string, len(g))
	for i, grp := range g {
		names[i] = grp.Name
	}
	return names
}

// All flattens every group's items in order.
func (g Groups) All() []string {
	var all []string
	for _, grp := range g {
		all = append(all, grp.Items...)
	}
	return all
}

func (g Groups) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, grp := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(grp.Name)
		if err != nil {
			return nil, err
		}
		items := grp.Items
		if items == nil {
			items = []string{}
		}
		val, err := json.Marshal(items)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (g *Groups) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*g = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("ingredient groups: expected object, got %v", tok)
	}
	var out Groups
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("ingredient groups: expected key, got %v", tok)
		}
		var items []string
		if err := dec.Decode(&items); err != nil {
			return fmt.Errorf("ingredient groups %q: %w", name, err)
		}
		out = append(out, Group{Name: name, Items: items})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*g = out
	return nil
}

// Extractor runs the field extractors and the tagger.
type Extractor struct {
	vocab *Vocabulary
	stats *Stats
}

// NewExtractor returns an extractor using vocab for tags; nil means the
// built-in vocabulary. stats may be nil.
func NewExtractor(vocab *Vocabulary, stats *Stats) *Extractor {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Extractor{vocab: vocab, stats: stats}
}

// Extract structures one bundle.
func (e *Extractor) Extract(b page.Bundle) Recipe {
	return e.ExtractText(b.Text(), b.SourceName())
}

// ExtractText structures an already-joined recipe text. sourceName is the
// last-resort name when the text has no usable title.
func (e *Extractor) ExtractText(text, sourceName string) Recipe {
	start := time.Now()
	defer func() {
		if e.stats != nil {
			e.stats.Record(time.Since(start))
		}
	}()

	name := extractName(text, sourceName)
	ingredients, groups := extractIngredients(text)
	instructions := extractInstructions(text)
	times := extractTimes(text)

	r := Recipe{
		Name:             name,
		Source:           extractSource(text),
		Description:      extractDescription(text),
		PrepTime:         times.prep,
		CookTime:         times.cook,
		TotalTime:        times.total,
		Servings:         extractServings(text),
		Ingredients:      ingredients,
		IngredientGroups: groups,
		Instructions:     instructions,
		Notes:            extractNotes(text),
		Nutrition:        extractNutrition(text),
	}
	r.Tags = e.vocab.Tags(name, slices.Concat(ingredients, groups.All()), instructions, text)
	return r
}
