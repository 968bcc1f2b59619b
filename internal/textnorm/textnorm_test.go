package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeading(t *testing.T) {
	tests := []struct {
		line  string
		level int
		text  string
	}{
		{"# Lentil Soup", 1, "Lentil Soup"},
		{"## Ingredients", 2, "Ingredients"},
		{"  ### Sauce ###", 3, "Sauce"},
		{"#", 1, ""},
		{"#hashtag", 0, ""},
		{"####### too deep", 0, ""},
		{"plain text", 0, ""},
	}
	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			level, text := Heading(tc.line)
			assert.Equal(t, tc.level, level)
			assert.Equal(t, tc.text, text)
		})
	}
}

func TestStripListPrefix(t *testing.T) {
	assert.Equal(t, "2 cups flour", StripListPrefix("- 2 cups flour"))
	assert.Equal(t, "Add the garlic.", StripListPrefix("3. Add the garlic."))
	assert.Equal(t, "Stir well.", StripListPrefix("2) Stir well."))
	assert.Equal(t, "salt", StripListPrefix("• salt"))
	assert.Equal(t, "2 cups flour", StripListPrefix("2 cups flour"))
}

func TestLineClassifiers(t *testing.T) {
	assert.True(t, IsLink("https://www.example.com/recipe"))
	assert.False(t, IsLink("see https://example.com"))
	assert.True(t, IsImage("![img-0.jpeg](img-0.jpeg)"))
	assert.True(t, IsMarkupOnly("|---|---|"))
	assert.True(t, IsMarkupOnly("***"))
	assert.False(t, IsMarkupOnly("1 cup"))
	assert.False(t, IsMarkupOnly(""))
	assert.True(t, IsTableSeparator("| --- | --- |"))
	assert.False(t, IsTableSeparator("| 1 cup | flour |"))
}

func TestSplitTableRow(t *testing.T) {
	assert.Equal(t, []string{"1 cup rice", "2 cups water"}, SplitTableRow("| 1 cup rice | 2 cups water |"))
	assert.Empty(t, SplitTableRow("|---|---|"))
}

func TestSplitColumns(t *testing.T) {
	assert.Equal(t, []string{"2 c. flour", "1 tsp salt"}, SplitColumns("2 c. flour     1 tsp salt"))
	assert.Equal(t, []string{"1 lb beef", "3 cloves garlic"}, SplitColumns("1 lb beef\t3 cloves garlic"))
	assert.Equal(t, []string{"1 onion, diced"}, SplitColumns("1 onion, diced"))
}

func TestCaseHelpers(t *testing.T) {
	assert.True(t, IsAllCaps("TURNIP PUREE"))
	assert.False(t, IsAllCaps("Turnip"))
	assert.False(t, IsAllCaps("123"))
	assert.True(t, StartsLower("and then stir"))
	assert.False(t, StartsLower("And then"))
	assert.False(t, StartsLower(""))
}

func TestRuneHelpers(t *testing.T) {
	assert.Equal(t, "crè", Truncate("crème", 3))
	assert.Equal(t, "me", Tail("crème", 2))
	assert.Equal(t, "abc", Tail("abc", 10))
	assert.Equal(t, 5, RuneLen("crème"))
}

func TestStem(t *testing.T) {
	assert.Equal(t, "Lentil Soup", Stem("Lentil Soup.txt"))
	assert.Equal(t, "scan", Stem("pages/scan.pdf#p002"))
	assert.Equal(t, "IMG_0042", Stem("IMG_0042.md"))
}

func TestNormalizeAndLines(t *testing.T) {
	got := Normalize("a  \r\nb c\t\r\n")
	assert.Equal(t, "a\nb c\n", got)
	assert.Equal(t, []string{"a", "b c"}, Lines(got))
	assert.Nil(t, Lines("  \n "))
}
