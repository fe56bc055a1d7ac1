package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/idrange"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/vectorstore"
)

const (
	defaultSearchResults = 5
	maxSearchResults     = 50
)

// LibraryHandler answers similarity searches over an owner's ingested documents.
type LibraryHandler struct {
	vectors vectorstore.Store
}

func NewLibraryHandler(vectors vectorstore.Store) *LibraryHandler {
	return &LibraryHandler{vectors: vectors}
}

type searchRequest struct {
	Query      string `json:"query"`
	NResults   int    `json:"n_results"`
	DocumentID *int64 `json:"document_id,omitempty"`
}

func (h *LibraryHandler) Search(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	n := req.NResults
	if n <= 0 {
		n = defaultSearchResults
	}
	if n > maxSearchResults {
		n = maxSearchResults
	}

	var where map[string]any
	if req.DocumentID != nil {
		where = map[string]any{"document_id": *req.DocumentID}
	}

	coll, err := h.vectors.GetOrCreateCollection(r.Context(), idrange.Namespace(ownerID))
	if err != nil {
		slog.Error("failed to open library collection", "owner_id", ownerID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	results, err := coll.Query(r.Context(), []string{req.Query}, n, where)
	if err != nil {
		slog.Error("library search failed", "owner_id", ownerID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	matches := []vectorstore.Match{}
	if len(results) > 0 && results[0] != nil {
		matches = results[0]
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": matches, "count": len(matches)})
}
