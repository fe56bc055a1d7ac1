package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/document"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/idrange"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/models"
)

type DocumentService interface {
	Upload(ctx context.Context, ownerID int64, filename string, data io.Reader) (*models.Document, error)
	Get(ctx context.Context, ownerID, id int64) (*models.Document, error)
	List(ctx context.Context, ownerID int64, limit, offset int) ([]models.Document, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

type DocumentHandler struct {
	svc DocumentService
}

func NewDocumentHandler(svc DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB max
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	doc, err := h.svc.Upload(r.Context(), ownerID, header.Filename, file)
	if err != nil {
		writeDocumentError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)

	docs, err := h.svc.List(r.Context(), ownerID, limit, offset)
	if err != nil {
		writeDocumentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": docs, "count": len(docs)})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "document")
	if !ok {
		return
	}

	doc, err := h.svc.Get(r.Context(), ownerID, id)
	if err != nil {
		writeDocumentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "document")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), ownerID, id); err != nil {
		writeDocumentError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeDocumentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, document.ErrNotFound):
		writeError(w, http.StatusNotFound, "document not found")
	case errors.Is(err, document.ErrUnsupportedType):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, document.ErrIngestInProgress), errors.Is(err, idrange.ErrRangeInFlight):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("document request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
