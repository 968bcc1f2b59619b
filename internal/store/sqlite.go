package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dgallion1/recipegest/internal/extract"
)

// SQLiteSink stores recipes as JSON documents in a single SQLite table.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a recipe database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time; INSERT OR IGNORE keeps key claims atomic.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteSink{db: db}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS recipes (
	key TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_recipes_name ON recipes(name);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *SQLiteSink) Put(ctx context.Context, r extract.Recipe) (string, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode recipe: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	base := SafeName(r.Name)
	for n := 0; ; n++ {
		key := candidateKey(base, n)
		res, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO recipes (key, name, body, created_at) VALUES (?, ?, ?, ?)`,
			key, r.Name, string(body), now)
		if err != nil {
			return "", fmt.Errorf("insert %s: %w", key, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return "", fmt.Errorf("insert %s: %w", key, err)
		}
		if affected == 1 {
			return key, nil
		}
	}
}

func (s *SQLiteSink) Get(ctx context.Context, key string) (extract.Recipe, error) {
	var r extract.Recipe
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM recipes WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("get %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return r, fmt.Errorf("get %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return r, fmt.Errorf("decode %q: %w", key, err)
	}
	return r, nil
}

func (s *SQLiteSink) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM recipes ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
