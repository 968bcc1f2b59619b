package extract

import (
	"errors"
	"strings"
	"testing"
)

func validRecipe() Recipe {
	return Recipe{
		Name:         "Lentil Soup",
		Ingredients:  []string{"1 cup lentils"},
		Instructions: []string{"Simmer for 30 minutes."},
		Tags:         []string{"soup"},
	}
}

func TestValidate_ValidPasses(t *testing.T) {
	r := validRecipe()
	if err := Validate(&r); err != nil {
		t.Errorf("expected valid recipe to pass, got %v", err)
	}
}

func TestValidate_NilRecipe(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Error("expected nil recipe to fail validation")
	}
}

func TestValidate_EmptyName(t *testing.T) {
	for _, name := range []string{"", "   ", "\n"} {
		r := validRecipe()
		r.Name = name
		err := Validate(&r)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("name=%q: expected *ValidationError, got %v", name, err)
		}
		if verr.Field != "name" {
			t.Errorf("name=%q: expected field %q, got %q", name, "name", verr.Field)
		}
	}
}

func TestValidate_FillsNilLists(t *testing.T) {
	r := Recipe{Name: "Toast"}
	if err := Validate(&r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Ingredients == nil || r.Instructions == nil || r.Tags == nil {
		t.Errorf("expected non-nil ingredients, instructions and tags, got %#v", r)
	}
}

func TestValidate_ClampsDescription(t *testing.T) {
	r := validRecipe()
	r.Description = strings.Repeat("é", 600)
	if err := Validate(&r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len([]rune(r.Description)); n != 500 {
		t.Errorf("expected description clamped to 500 runes, got %d", n)
	}
}

func TestValidate_ResetsCategory(t *testing.T) {
	r := validRecipe()
	c := "Soups"
	r.Category = &c
	if err := Validate(&r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Category != nil {
		t.Errorf("expected category to be reset to nil, got %q", *r.Category)
	}
}

func TestValidate_DropsEmptyOptionals(t *testing.T) {
	r := validRecipe()
	r.Notes = []string{}
	r.Nutrition = map[string]string{}
	r.Servings = "  "
	if err := Validate(&r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Notes != nil || r.Nutrition != nil || r.Servings != "" {
		t.Errorf("expected empty optionals cleared, got notes=%v nutrition=%v servings=%q", r.Notes, r.Nutrition, r.Servings)
	}
}

func TestValidate_SingleGroupFlattened(t *testing.T) {
	r := validRecipe()
	r.IngredientGroups = Groups{{Name: "Sauce", Items: []string{"1 cup stock"}}}
	if err := Validate(&r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.IngredientGroups != nil {
		t.Errorf("expected groups flattened, got %v", r.IngredientGroups)
	}
	if len(r.Ingredients) != 2 || r.Ingredients[1] != "1 cup stock" {
		t.Errorf("expected group items appended to ingredients, got %v", r.Ingredients)
	}
}

func TestValidate_UnnamedGroup(t *testing.T) {
	r := validRecipe()
	r.IngredientGroups = Groups{{Name: "Sauce", Items: []string{"a"}}, {Name: " ", Items: []string{"b"}}}
	if err := Validate(&r); err == nil {
		t.Error("expected unnamed group to fail validation")
	}
}
