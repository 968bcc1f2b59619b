package extract

import (
	"fmt"
	"strings"

	"github.com/dgallion1/recipegest/internal/textnorm"
)

// ValidationError reports a record that breaks the persisted-record shape.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid recipe: %s %s", e.Field, e.Reason)
}

// Validate checks a record before it is persisted and normalizes the parts it
// can fix: list fields are made non-nil, the description is clamped, blank
// optional strings are cleared and category is reset to null.
func Validate(r *Recipe) error {
	if r == nil {
		return &ValidationError{Field: "recipe", Reason: "is nil"}
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return &ValidationError{Field: "name", Reason: "is empty"}
	}

	for _, s := range []*string{&r.Source, &r.Description, &r.PrepTime, &r.CookTime, &r.TotalTime, &r.Servings} {
		*s = strings.TrimSpace(*s)
	}
	r.Description = textnorm.Truncate(r.Description, maxDescription)

	if r.Ingredients == nil {
		r.Ingredients = []string{}
	}
	if r.Instructions == nil {
		r.Instructions = []string{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if len(r.Notes) == 0 {
		r.Notes = nil
	}
	if len(r.Nutrition) == 0 {
		r.Nutrition = nil
	}
	if len(r.IngredientGroups) == 1 {
		r.Ingredients = append(r.Ingredients, r.IngredientGroups[0].Items...)
		r.IngredientGroups = nil
	}
	if len(r.IngredientGroups) == 0 {
		r.IngredientGroups = nil
	}
	for _, g := range r.IngredientGroups {
		if strings.TrimSpace(g.Name) == "" {
			return &ValidationError{Field: "ingredient_groups", Reason: "has an unnamed group"}
		}
	}
	r.Category = nil
	return nil
}
