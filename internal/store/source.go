package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/dgallion1/recipegest/internal/page"
	"github.com/dgallion1/recipegest/internal/parser"
)

// DirSource reads page files from one directory. Unsupported extensions and
// subdirectories are ignored.
type DirSource struct {
	Dir  string
	Opts parser.Options
}

func NewDirSource(dir string, opts parser.Options) *DirSource {
	return &DirSource{Dir: dir, Opts: opts}
}

func (s *DirSource) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.Dir, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !parser.IsSupportedExtension(e.Name()) {
			continue
		}
		ids = append(ids, e.Name())
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *DirSource) Read(ctx context.Context, id string) ([]page.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validKey(id) {
		return nil, fmt.Errorf("read %q: %w", id, ErrNotFound)
	}
	p, err := parser.ForFile(id, s.Opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.Dir, id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", id, err)
	}
	defer f.Close()

	docs, err := p.Parse(f, id)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", id, err)
	}
	return docs, nil
}

// MemSource serves uploaded files held in memory.
type MemSource struct {
	mu    sync.Mutex
	files map[string][]byte
	opts  parser.Options
}

func NewMemSource(opts parser.Options) *MemSource {
	return &MemSource{files: make(map[string][]byte), opts: opts}
}

// Add stores one file. A later Add with the same name replaces it.
func (s *MemSource) Add(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = data
}

// Len reports how many files are held.
func (s *MemSource) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// Bytes returns all file contents concatenated in list order.
func (s *MemSource) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var buf bytes.Buffer
	for _, id := range s.sortedLocked() {
		buf.Write(s.files[id])
	}
	return buf.Bytes()
}

func (s *MemSource) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked(), nil
}

func (s *MemSource) sortedLocked() []string {
	ids := make([]string, 0, len(s.files))
	for id := range s.files {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *MemSource) Read(ctx context.Context, id string) ([]page.Document, error) {
	s.mu.Lock()
	data, ok := s.files[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("read %q: %w", id, ErrNotFound)
	}
	p, err := parser.ForFile(id, s.opts)
	if err != nil {
		return nil, err
	}
	docs, err := p.Parse(bytes.NewReader(data), id)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", id, err)
	}
	return docs, nil
}
