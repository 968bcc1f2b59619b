package extract

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule maps one tag to the keywords that trigger it. A rule is skipped when
// any tag in SuppressedBy was already assigned.
type Rule struct {
	Tag          string   `yaml:"tag"`
	Keywords     []string `yaml:"keywords"`
	SuppressedBy []string `yaml:"suppressed_by,omitempty"`
}

// Vocabulary is the controlled tag set. Proteins, dish types and cuisines are
// independent tables; meal types are tried in priority order and exactly one
// is assigned, falling back to DefaultMeal; flags are independent booleans
// evaluated after everything else.
type Vocabulary struct {
	Proteins    []Rule `yaml:"proteins"`
	DishTypes   []Rule `yaml:"dish_types"`
	Cuisines    []Rule `yaml:"cuisines"`
	MealTypes   []Rule `yaml:"meal_types"`
	DefaultMeal string `yaml:"default_meal"`
	Flags       []Rule `yaml:"flags"`
}

// DefaultVocabulary returns the built-in tag tables.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		Proteins: []Rule{
			{Tag: "chicken", Keywords: []string{"chicken", "poultry"}},
			{Tag: "beef", Keywords: []string{"beef", "steak", "short rib"}},
			{Tag: "pork", Keywords: []string{"pork", "bacon", "pancetta", "prosciutto"}},
			{Tag: "fish", Keywords: []string{"salmon", "cod", "halibut", "tilapia", "snapper", "bass", "fish"}},
			{Tag: "seafood", Keywords: []string{"shrimp", "prawn", "scallop", "mussel", "clam", "crab", "lobster", "squid"}},
			{Tag: "turkey", Keywords: []string{"turkey"}},
			{Tag: "lamb", Keywords: []string{"lamb"}},
			{Tag: "tofu", Keywords: []string{"tofu"}},
		},
		DishTypes: []Rule{
			{Tag: "soup", Keywords: []string{"soup", "broth"}},
			{Tag: "stew", Keywords: []string{"stew", "braised", "braise"}},
			{Tag: "salad", Keywords: []string{"salad"}},
			{Tag: "pasta", Keywords: []string{"pasta", "spaghetti", "penne", "pappardelle", "noodle", "orzo"}},
			{Tag: "stir-fry", Keywords: []string{"stir fry", "stir-fry", "wok"}},
			{Tag: "roast", Keywords: []string{"roast", "roasted"}},
			{Tag: "grilled", Keywords: []string{"grill", "grilled"}},
			{Tag: "skillet", Keywords: []string{"skillet"}},
			{Tag: "one-pot", Keywords: []string{"one-pot", "one pot", "dutch oven"}},
			{Tag: "slow cooker", Keywords: []string{"slow cooker", "crock pot", "crockpot"}},
			{Tag: "casserole", Keywords: []string{"casserole", "bake"}},
		},
		Cuisines: []Rule{
			{Tag: "italian", Keywords: []string{"italian", "parmesan", "parmigiano", "bolognese", "carbonara", "pesto"}},
			{Tag: "mexican", Keywords: []string{"mexican", "taco", "salsa", "cilantro", "jalapeño", "chipotle", "cumin"}},
			{Tag: "asian", Keywords: []string{"asian", "soy sauce", "sesame", "ginger", "bok choy"}},
			{Tag: "chinese", Keywords: []string{"chinese", "hoisin", "oyster sauce", "five spice"}},
			{Tag: "thai", Keywords: []string{"thai", "fish sauce", "thai basil", "coconut milk curry"}},
			{Tag: "indian", Keywords: []string{"indian", "curry", "garam masala", "turmeric", "tikka", "masala", "vindaloo"}},
			{Tag: "korean", Keywords: []string{"korean", "gochujang", "kimchi", "galbi"}},
			{Tag: "mediterranean", Keywords: []string{"mediterranean", "olive oil", "feta", "hummus"}},
			{Tag: "cajun", Keywords: []string{"cajun", "creole", "jambalaya", "gumbo", "andouille"}},
			{Tag: "french", Keywords: []string{"french", "bourguignon", "provençal", "herbes de provence"}},
			{Tag: "southern", Keywords: []string{"southern", "grits", "cornbread"}},
		},
		MealTypes: []Rule{
			{Tag: "dessert", Keywords: []string{"dessert", "cake", "pie", "cookie", "chocolate", "sweet"}},
			{Tag: "breakfast", Keywords: []string{"breakfast", "brunch", "egg", "pancake"}},
			{Tag: "appetizer", Keywords: []string{"appetizer", "dip", "snack", "starter"}},
			{Tag: "side dish", Keywords: []string{"side dish", "side"}},
		},
		DefaultMeal: "dinner",
		Flags: []Rule{
			{
				Tag:          "vegetarian",
				Keywords:     []string{"vegetarian", "veggie", "meatless"},
				SuppressedBy: []string{"chicken", "beef", "pork", "lamb", "turkey"},
			},
			{Tag: "vegan", Keywords: []string{"vegan"}},
			{Tag: "healthy", Keywords: []string{"healthy", "low-calorie", "light"}},
			{Tag: "comfort food", Keywords: []string{"comfort food", "hearty", "cozy"}},
			{Tag: "quick", Keywords: []string{"quick", "easy", "30 min", "20 min", "15 min"}},
			{Tag: "spicy", Keywords: []string{"spicy", "hot sauce", "chili", "cayenne", "jalapeño"}},
			{Tag: "creamy", Keywords: []string{"creamy", "cream", "cheese"}},
		},
	}
}

// LoadVocabulary reads a YAML vocabulary file. Sections the file leaves out
// keep their built-in tables.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	vocab := DefaultVocabulary()
	if err := yaml.Unmarshal(data, vocab); err != nil {
		return nil, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}
	if strings.TrimSpace(vocab.DefaultMeal) == "" {
		return nil, fmt.Errorf("vocabulary %s: default_meal must not be empty", path)
	}
	for _, section := range [][]Rule{vocab.Proteins, vocab.DishTypes, vocab.Cuisines, vocab.MealTypes, vocab.Flags} {
		for i, r := range section {
			if r.Tag == "" || len(r.Keywords) == 0 {
				return nil, fmt.Errorf("vocabulary %s: rule %d needs a tag and at least one keyword", path, i)
			}
		}
	}
	return vocab, nil
}

// matches reports whether any keyword is a substring of the case-folded text.
func (r Rule) matches(text string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Tags derives the sorted, de-duplicated tag set for a recipe. It reads only
// its arguments, so concurrent calls are safe.
func (v *Vocabulary) Tags(name string, ingredients, instructions []string, text string) []string {
	all := strings.ToLower(name + " " + strings.Join(ingredients, " ") + " " +
		strings.Join(instructions, " ") + " " + text)

	tags := map[string]bool{}
	for _, table := range [][]Rule{v.Proteins, v.DishTypes, v.Cuisines} {
		for _, r := range table {
			if r.matches(all) {
				tags[r.Tag] = true
			}
		}
	}

	meal := v.DefaultMeal
	for _, r := range v.MealTypes {
		if r.matches(all) {
			meal = r.Tag
			break
		}
	}
	tags[meal] = true

	for _, r := range v.Flags {
		if r.matches(all) && !suppressed(r, tags) {
			tags[r.Tag] = true
		}
	}

	out := make([]string, 0, len(tags))
	for t := range tags {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

func suppressed(r Rule, tags map[string]bool) bool {
	for _, s := range r.SuppressedBy {
		if tags[s] {
			return true
		}
	}
	return false
}
