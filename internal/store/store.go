// Package store holds the two I/O collaborators of a structuring run: a page
// source that lists and reads page text in a stable order, and a write-once
// recipe sink that names records after their title.
package store

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/recipegest/internal/extract"
	"github.com/dgallion1/recipegest/internal/page"
)

// ErrNotFound is returned when a page or record key does not exist.
var ErrNotFound = errors.New("not found")

// PageSource lists page identifiers in lexicographic order and reads the pages
// behind one identifier. A PDF identifier may yield several pages.
type PageSource interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, id string) ([]page.Document, error)
}

// RecipeSink persists records under a key derived from the recipe name. Put
// never overwrites: on collision the key gets a " (n)" suffix.
type RecipeSink interface {
	Put(ctx context.Context, r extract.Recipe) (string, error)
	Get(ctx context.Context, key string) (extract.Recipe, error)
	List(ctx context.Context) ([]string, error)
	Close() error
}

const maxNameLen = 80

var (
	unsafeChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// SafeName turns a recipe name into a storage key: characters that are unsafe
// in file names are removed, "&" becomes "and", whitespace is collapsed and
// long names are cut at a word boundary.
func SafeName(name string) string {
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, "&amp;", "and")
	name = strings.ReplaceAll(name, "&", "and")
	name = strings.TrimSpace(whitespace.ReplaceAllString(name, " "))
	if r := []rune(name); len(r) > maxNameLen {
		cut := string(r[:maxNameLen])
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
		name = strings.TrimSpace(cut)
	}
	name = strings.Trim(name, ".")
	if name == "" {
		return "recipe"
	}
	return name
}

// candidateKey returns the n-th key to try for base: base itself, then
// "base (1)", "base (2)" and so on.
func candidateKey(base string, n int) string {
	if n == 0 {
		return base
	}
	return base + " (" + strconv.Itoa(n) + ")"
}

// validKey rejects keys that could escape a sink's namespace.
func validKey(key string) bool {
	return key != "" && key == strings.TrimSpace(key) &&
		!strings.ContainsAny(key, `/\`) && key != "." && key != ".."
}
