package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/recipegest/internal/aggregate"
	"github.com/dgallion1/recipegest/internal/extract"
)

func setupCLITest(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"RECIPEGEST_CONFIG", "SINK", "VOCABULARY_PATH", "LOG_LEVEL", "LOG_FORMAT", "MAX_CONCURRENT_EXTRACT"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	pages := map[string]string{
		"page_001.md":  "# Lentil Soup\n\n## Ingredients\n\n- 1 cup lentils\n- 4 cups stock\n\n## Instructions\n\n1. Rinse the lentils well.",
		"page_002.txt": "3. Simmer for 20 minutes.\n4. Serve hot.\n5. Season to taste.\n## Notes\n- Freezes well for a month.",
		"page_003.txt": "RECIPE FOR: Cornbread\n1 c. cornmeal\n2 tbsp butter",
		"readme.csv":   "ignored",
	}
	for name, body := range pages {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStructure_FileSink(t *testing.T) {
	input := setupCLITest(t)
	output := filepath.Join(t.TempDir(), "out")

	out, err := run(t, "structure", "--input", input, "--output", output, "--workers", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Processing 2 recipes from 3 pages")
	assert.Contains(t, out, "[1/2] Lentil Soup")
	assert.Contains(t, out, "(2 ing, ")
	assert.Contains(t, out, "[2/2] Cornbread")
	assert.Contains(t, out, "Stored 2 of 2 recipes")
	assert.NotContains(t, out, "Failures")

	data, err := os.ReadFile(filepath.Join(output, "Lentil Soup.json"))
	require.NoError(t, err)
	var rec extract.Recipe
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, []string{"1 cup lentils", "4 cups stock"}, rec.Ingredients)
	assert.Contains(t, string(data), `"category": null`)
}

func TestStructure_SQLiteSink(t *testing.T) {
	input := setupCLITest(t)
	db := filepath.Join(t.TempDir(), "recipes.db")

	out, err := run(t, "structure", "--input", input, "--sink", "sqlite", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Stored 2 of 2 recipes in "+db)

	_, err = os.Stat(db)
	assert.NoError(t, err)
}

func TestStructure_EmptyInputFails(t *testing.T) {
	setupCLITest(t)
	_, err := run(t, "structure", "--input", t.TempDir(), "--output", t.TempDir())
	assert.ErrorContains(t, err, "no readable pages")
}

func TestStructure_BadSink(t *testing.T) {
	input := setupCLITest(t)
	_, err := run(t, "structure", "--input", input, "--sink", "s3")
	assert.ErrorContains(t, err, "SINK")
}

func TestStructure_Vocabulary(t *testing.T) {
	input := setupCLITest(t)
	output := t.TempDir()
	vocab := filepath.Join(t.TempDir(), "vocab.yaml")
	body := "default_meal: supper\nproteins: []\ndish_types: []\ncuisines: []\nmeal_types: []\nflags: []\n"
	require.NoError(t, os.WriteFile(vocab, []byte(body), 0o644))

	_, err := run(t, "structure", "--input", input, "--output", output, "--vocabulary", vocab)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(output, "Cornbread.json"))
	require.NoError(t, err)
	var rec extract.Recipe
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, []string{"supper"}, rec.Tags)
}

func TestBundles_Text(t *testing.T) {
	input := setupCLITest(t)
	out, err := run(t, "bundles", "--input", input)
	require.NoError(t, err)

	assert.Contains(t, out, "Found 2 recipes:")
	assert.Contains(t, out, "Multi-page recipes: 1")
	assert.Contains(t, out, "Single-page recipes: 1")
	assert.Contains(t, out, "[✓] Lentil Soup")
	assert.Contains(t, out, "Files: page_001.md, page_002.txt")
}

func TestBundles_JSONAndMapping(t *testing.T) {
	input := setupCLITest(t)
	mapping := filepath.Join(t.TempDir(), "plan.json")

	out, err := run(t, "bundles", "--input", input, "--json", "--save-mapping", mapping)
	require.NoError(t, err)

	var plan aggregate.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Equal(t, 2, plan.Summary.Total)
	require.Len(t, plan.Recipes, 2)
	assert.Equal(t, "Cornbread", plan.Recipes[1].Title)
	assert.False(t, plan.Recipes[1].Complete)

	saved, err := os.ReadFile(mapping)
	require.NoError(t, err)
	var fromFile aggregate.Plan
	require.NoError(t, json.Unmarshal(saved, &fromFile))
	assert.Equal(t, plan, fromFile)
}

func TestBundles_UnifiedDir(t *testing.T) {
	input := setupCLITest(t)
	unified := filepath.Join(t.TempDir(), "unified")

	out, err := run(t, "bundles", "--input", input, "--unified-dir", unified)
	require.NoError(t, err)
	assert.Contains(t, out, "Created: Lentil Soup.txt (2 pages)")

	data, err := os.ReadFile(filepath.Join(unified, "Lentil Soup.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "1. Rinse the lentils well.\n\n3. Simmer for 20 minutes.")
}

func TestClassify(t *testing.T) {
	input := setupCLITest(t)

	out, err := run(t, "classify", filepath.Join(input, "page_002.txt"))
	require.NoError(t, err)
	assert.Contains(t, out, "page_002.txt")
	assert.Contains(t, out, "continuation: true (numbered_step)")
	assert.Contains(t, out, "ending:       true")
}

func TestClassify_JSONWithExtract(t *testing.T) {
	input := setupCLITest(t)

	out, err := run(t, "classify", "--json", "--extract", filepath.Join(input, "page_003.txt"))
	require.NoError(t, err)

	var report classifyReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Pages, 1)
	assert.Equal(t, "Cornbread", report.Pages[0].Title)
	assert.Contains(t, report.Pages[0].NewRecipeSignals, "recipe_for")
	require.Len(t, report.Recipes, 1)
	assert.Equal(t, "Cornbread", report.Recipes[0].Name)
}

func TestClassify_RequiresOneArg(t *testing.T) {
	setupCLITest(t)
	_, err := run(t, "classify")
	assert.Error(t, err)
}
