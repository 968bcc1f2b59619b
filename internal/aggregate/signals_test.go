package aggregate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsContinuation(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"step three", "3. Add the garlic and cook for 2 minutes.", true},
		{"step twelve", "12) Let rest.", true},
		{"step one is ambiguous", "1. 2 cups flour", false},
		{"step two is ambiguous", "2. 1 tsp salt", false},
		{"cooking verb", "Pour the batter into the pan.", true},
		{"meanwhile", "Meanwhile, toast the nuts.", true},
		{"lowercase start", "and bake until golden.", true},
		{"step heading", "## Step 4\nFold in the cheese.", true},
		{"step line", "Step 5 Bake for 30 minutes.", true},
		{"step heading after h1", "# Tart\n## Step 1\nRoll the dough.", false},
		{"bare link", "https://example.com/r/123\nBake 20 minutes.", true},
		{"link with heading", "https://example.com/r/123\n# Lemon Bars", false},
		{"title heading overrides", "stir well\n# Pesto Pasta", false},
		{"step h2 is not a title", "## Step 6\nadd the basil", true},
		{"steps heading", "## Steps\n1. Rinse the lentils and drain.", true},
		{"step line plural", "Steps 3 to 5 can be done ahead.", true},
		{"ingredients heading overrides", "3. Stir.\n## Ingredients\n- salt", false},
		{"prep and cook times override", "add salt\nPrep Time: 10 min\nCook Time: 20 min", false},
		{"recipe for overrides", "mix well\nRECIPE FOR: Stew", false},
		{"capitalized h1", "# Roast Chicken", false},
		{"plain title", "Lemon Chicken\nServes 4", false},
		{"empty", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsContinuation(doc("x.txt", tc.text)))
		})
	}
}

func TestHasEnding(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"notes heading", "Bake.\n## Notes\nKeeps well.", true},
		{"nutrition heading", "Bake.\n### Nutrition", true},
		{"calories in tail", "Serve.\nCalories: 320", true},
		{"serving with carbohydrates", "Per serving: 12g carbohydrates", true},
		{"find it online", "Find it online: https://example.com", true},
		{"recipe from", "Recipe from Grandma's kitchen", true},
		{"make ahead", "The sauce can be made 2 days ahead.", true},
		{"can be made without ahead", "This can be made with tofu.", false},
		{"plain step", "4. Serve with rice.", false},
		{"calories outside tail", "calories: 100\n" + strings.Repeat("x", 600), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HasEnding(doc("x.txt", tc.text)))
		})
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"recipe for wins", "# Family Favorites\nRECIPE FOR: Grandma's Stew", "Grandma's Stew"},
		{"h1", "![photo](img.jpg)\n# Lentil Soup\nServes 4", "Lentil Soup"},
		{"h2 is not a title", "## Ingredients\nBean Salad", "Bean Salad"},
		{"noise prefix", "W/ Lemon Chicken", "Lemon Chicken"},
		{"skips noise lines", "https://example.com\n![img](a.png)\n---\n| a | b |\n- salt\nBean Salad", "Bean Salad"},
		{"short lines skipped", "ok\nTofu Scramble", "Tofu Scramble"},
		{"nothing usable", "https://example.com\n---\n- 1 cup", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractTitle(doc("x.txt", tc.text)))
		})
	}
}

func TestClassify(t *testing.T) {
	s := Classify(doc("p4.txt", "## Step 4\nFold in the cheese."))
	assert.Equal(t, "p4.txt", s.ID)
	assert.True(t, s.Continuation)
	assert.Equal(t, []string{"step_heading"}, s.ContinuationSignals)
	assert.Empty(t, s.NewRecipeSignals)
	assert.False(t, s.Ending)

	s = Classify(doc("p1.txt", "# Roast Chicken\n## Ingredients"))
	assert.False(t, s.Continuation)
	assert.Equal(t, []string{"title_heading", "ingredients_heading", "capitalized_h1"}, s.NewRecipeSignals)
	assert.Equal(t, "Roast Chicken", s.Title)
}
