package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/dgallion1/recipegest/internal/aggregate"
	"github.com/dgallion1/recipegest/internal/parser"
)

// handleClassify reports the aggregator signals for each page of one file,
// plus the bundles those pages would form on their own.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	uploads := r.MultipartForm.File["file"]
	if len(uploads) == 0 {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}
	header := uploads[0]

	filename := sanitizeFilename(header.Filename)
	p, err := parser.ForFile(filename, parser.Options{PDFFallbackPdftotext: s.cfg.PDFFallbackPdftotext})
	if err != nil {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := readUpload(header, s.cfg.MaxUploadBytes)
	if err != nil {
		jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	docs, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		jsonError(w, "parse: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	signals := make([]aggregate.Signals, 0, len(docs))
	for _, d := range docs {
		signals = append(signals, aggregate.Classify(d))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"filename": filename,
		"pages":    signals,
		"plan":     aggregate.Summarize(aggregate.Aggregate(docs)),
	})
}
