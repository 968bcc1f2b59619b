package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/recipegest/internal/config"
	"github.com/dgallion1/recipegest/internal/extract"
	"github.com/dgallion1/recipegest/internal/pipeline"
	"github.com/dgallion1/recipegest/internal/store"
)

const testKey = "test-key"

type upload struct {
	name string
	body string
}

func newTestServer(t *testing.T) (*Server, store.RecipeSink) {
	t.Helper()
	cfg := config.Config{
		APIKey:               testKey,
		WorkerCount:          1,
		MaxQueueSize:         4,
		MaxConcurrentExtract: 2,
		MaxUploadBytes:       1 << 20,
		JobTTL:               time.Hour,
	}
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	sink, err := store.NewFileSink(t.TempDir())
	require.NoError(t, err)

	stats := extract.NewStats(time.Hour)
	orch := pipeline.NewOrchestrator(cfg, extract.NewExtractor(nil, stats), sink, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	return NewServer(orch, stats, log, cfg), sink
}

func multipartBody(t *testing.T, field string, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := mw.CreateFormFile(field, f.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(t *testing.T, srv http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req.Header.Set("Authorization", "Bearer "+testKey)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recipes", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/recipes", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid api key")
}

func TestStructureEndToEnd(t *testing.T) {
	srv, _ := newTestServer(t)

	body, ct := multipartBody(t, "files",
		upload{"page_002.txt", "3. Simmer for 20 minutes.\n4. Serve hot with bread.\n5. Enjoy.\n## Notes\n- Freezes well for a month."},
		upload{"page_001.md", "# Lentil Soup\n\n## Ingredients\n\n- 1 cup lentils\n- 4 cups stock\n\n## Instructions\n\n1. Rinse the lentils well."},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/structure", body)
	req.Header.Set("Content-Type", ct)
	rec := do(t, srv, req)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var accepted struct {
		JobID   string `json:"job_id"`
		Files   int    `json:"files"`
		PollURL string `json:"poll_url"`
	}
	decode(t, rec, &accepted)
	assert.Equal(t, 2, accepted.Files)
	require.NotEmpty(t, accepted.JobID)

	var snap pipeline.JobSnapshot
	require.Eventually(t, func() bool {
		rec := do(t, srv, httptest.NewRequest(http.MethodGet, accepted.PollURL, nil))
		if rec.Code != http.StatusOK {
			return false
		}
		decode(t, rec, &snap)
		return snap.Status == pipeline.StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	require.Len(t, snap.Results, 1)
	assert.Equal(t, []string{"page_001.md", "page_002.txt"}, snap.Results[0].Pages)
	assert.True(t, snap.Results[0].Complete)
	assert.NotEmpty(t, snap.ContentHash)

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/recipes", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Recipes []string `json:"recipes"`
	}
	decode(t, rec, &list)
	assert.Equal(t, []string{"Lentil Soup"}, list.Recipes)

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/recipes/"+url.PathEscape("Lentil Soup"), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got extract.Recipe
	decode(t, rec, &got)
	assert.Equal(t, "Lentil Soup", got.Name)
	assert.Equal(t, []string{"1 cup lentils", "4 cups stock"}, got.Ingredients)
	assert.Contains(t, rec.Body.String(), `"category":null`)
}

func TestStructureRejectsUnsupported(t *testing.T) {
	srv, _ := newTestServer(t)
	body, ct := multipartBody(t, "files", upload{"scan.png", "binary"})
	req := httptest.NewRequest(http.MethodPost, "/api/structure", body)
	req.Header.Set("Content-Type", ct)
	rec := do(t, srv, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported file type")
}

func TestStructureRejectsDuplicateNames(t *testing.T) {
	srv, sink := newTestServer(t)
	body, ct := multipartBody(t, "files",
		upload{"page_001.txt", "# Pancakes\n## Ingredients\n- 1 cup flour"},
		upload{"scans/page_001.txt", "# Waffles\n## Ingredients\n- 2 eggs"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/structure", body)
	req.Header.Set("Content-Type", ct)
	rec := do(t, srv, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "duplicate file name: page_001.txt")

	keys, err := sink.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStructureRequiresFiles(t *testing.T) {
	srv, _ := newTestServer(t)
	body, ct := multipartBody(t, "files")
	req := httptest.NewRequest(http.MethodPost, "/api/structure", body)
	req.Header.Set("Content-Type", ct)
	rec := do(t, srv, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStructureStatusNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/structure/nope/status", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRecipeWithSuffix(t *testing.T) {
	srv, sink := newTestServer(t)
	ctx := context.Background()
	r := extract.Recipe{Name: "Pancakes", Ingredients: []string{}, Instructions: []string{}, Tags: []string{}}
	_, err := sink.Put(ctx, r)
	require.NoError(t, err)
	key, err := sink.Put(ctx, r)
	require.NoError(t, err)
	require.Equal(t, "Pancakes (1)", key)

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/recipes/Pancakes%20(1)", nil))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/recipes/Waffles", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClassify(t *testing.T) {
	srv, _ := newTestServer(t)
	body, ct := multipartBody(t, "file", upload{"page.md", "# Bean Chili\n\n## Ingredients\n\n- 2 cans beans\n\n## Notes\n\nBetter the next day."})
	req := httptest.NewRequest(http.MethodPost, "/api/classify", body)
	req.Header.Set("Content-Type", ct)
	rec := do(t, srv, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Pages []struct {
			Title            string   `json:"title"`
			Continuation     bool     `json:"continuation"`
			Ending           bool     `json:"ending"`
			NewRecipeSignals []string `json:"new_recipe_signals"`
		} `json:"pages"`
		Plan struct {
			Summary struct {
				Total int `json:"total"`
			} `json:"summary"`
		} `json:"plan"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Pages, 1)
	assert.Equal(t, "Bean Chili", resp.Pages[0].Title)
	assert.False(t, resp.Pages[0].Continuation)
	assert.True(t, resp.Pages[0].Ending)
	assert.Contains(t, resp.Pages[0].NewRecipeSignals, "ingredients_heading")
	assert.Equal(t, 1, resp.Plan.Summary.Total)
}

func TestExtractStats(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/stats/extract", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Stats extract.StatsSnapshot `json:"stats"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, 0, resp.Stats.Count)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"page.md":              "page.md",
		"../../etc/passwd.txt": "passwd.txt",
		`C:\scans\page_01.txt`: "page_01.txt",
		"":                     "unnamed",
		"..":                   "_",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}
