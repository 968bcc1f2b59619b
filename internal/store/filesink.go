package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dgallion1/recipegest/internal/extract"
)

// FileSink writes one pretty-printed JSON file per recipe. Files are created
// with O_EXCL, so concurrent writers never overwrite each other.
type FileSink struct {
	dir string
}

func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

func (s *FileSink) Put(ctx context.Context, r extract.Recipe) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode recipe: %w", err)
	}
	data = append(data, '\n')

	return createExclusive(ctx, s.dir, SafeName(r.Name), ".json", data)
}

func (s *FileSink) Get(ctx context.Context, key string) (extract.Recipe, error) {
	var r extract.Recipe
	if !validKey(key) {
		return r, fmt.Errorf("get %q: %w", key, ErrNotFound)
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return r, fmt.Errorf("get %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return r, fmt.Errorf("get %q: %w", key, err)
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("decode %q: %w", key, err)
	}
	return r, nil
}

func (s *FileSink) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}
	keys := []string{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), ".json"))
	}
	slices.Sort(keys)
	return keys, nil
}

func (s *FileSink) Close() error { return nil }

func (s *FileSink) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// createExclusive writes data to dir/<key><ext> under the first free
// candidate key and returns that key.
func createExclusive(ctx context.Context, dir, base, ext string, data []byte) (string, error) {
	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		key := candidateKey(base, n)
		path := filepath.Join(dir, key+ext)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", key, err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("write %s: %w", key, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", key, err)
		}
		return key, nil
	}
}

// TextDir writes combined bundle text, one file per recipe, named like
// records are.
type TextDir struct {
	dir string
}

func NewTextDir(dir string) (*TextDir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create unified dir: %w", err)
	}
	return &TextDir{dir: dir}, nil
}

// Put writes text under a key derived from title and returns the file name.
func (t *TextDir) Put(ctx context.Context, title, text string) (string, error) {
	key, err := createExclusive(ctx, t.dir, SafeName(title), ".txt", []byte(text))
	if err != nil {
		return "", err
	}
	return key + ".txt", nil
}
