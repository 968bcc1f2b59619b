package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/recipegest/internal/parser"
	"github.com/dgallion1/recipegest/internal/pipeline"
	"github.com/dgallion1/recipegest/internal/store"
	"github.com/go-chi/chi/v5"
)

// handleStructure accepts a batch of page files as one run. Files are
// processed in name order, so upload names should sort in page order.
func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	src := store.NewMemSource(parser.Options{PDFFallbackPdftotext: s.cfg.PDFFallbackPdftotext})
	var total int64
	seen := make(map[string]bool, len(files))
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !parser.IsSupportedExtension(filename) {
			jsonError(w, fmt.Sprintf("unsupported file type: %s (%s)", filepath.Ext(filename), filename), http.StatusBadRequest)
			return
		}
		// Pages are keyed by name; a second file with the same name would
		// silently replace the first.
		if seen[filename] {
			jsonError(w, "duplicate file name: "+filename, http.StatusBadRequest)
			return
		}
		seen[filename] = true
		data, err := readUpload(fh, s.cfg.MaxUploadBytes-total)
		if err != nil {
			jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		total += int64(len(data))
		src.Add(filename, data)
	}

	job := pipeline.NewJob(src)
	job.ContentHash = pipeline.ContentHashHex(src.Bytes())

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"files":    src.Len(),
		"poll_url": fmt.Sprintf("/api/structure/%s/status", job.ID),
	})
}

func (s *Server) handleStructureStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// readUpload reads one multipart file, failing once it exceeds limit bytes.
func readUpload(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s", fh.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s", fh.Filename)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("upload exceeds max size")
	}
	return data, nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
