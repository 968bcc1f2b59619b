package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/dgallion1/recipegest/internal/store"
	"github.com/go-chi/chi/v5"
)

// handleListRecipes lists the keys of all persisted records.
func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	keys, err := s.orchestrator.Sink().List(r.Context())
	if err != nil {
		jsonError(w, "failed to list recipes: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"recipes": keys, "count": len(keys)})
}

// handleGetRecipe returns one persisted record as stored.
func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	// chi hands back the raw segment when the client escaped characters
	// such as parentheses.
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}

	rec, err := s.orchestrator.Sink().Get(r.Context(), key)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "recipe not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to read recipe: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}
