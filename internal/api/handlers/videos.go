package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/models"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/video"
)

type VideoService interface {
	Create(ctx context.Context, ownerID int64, title, prompt string) (*models.Video, error)
	Get(ctx context.Context, ownerID, id int64) (*video.Detail, error)
	List(ctx context.Context, ownerID int64, limit, offset int) ([]models.Video, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

type VideoHandler struct {
	svc VideoService
}

func NewVideoHandler(svc VideoService) *VideoHandler {
	return &VideoHandler{svc: svc}
}

type createVideoRequest struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "title and prompt are required")
		return
	}

	v, err := h.svc.Create(r.Context(), ownerID, req.Title, req.Prompt)
	if err != nil {
		writeVideoError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, v)
}

func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)

	videos, err := h.svc.List(r.Context(), ownerID, limit, offset)
	if err != nil {
		writeVideoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"videos": videos, "count": len(videos)})
}

func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "video")
	if !ok {
		return
	}

	d, err := h.svc.Get(r.Context(), ownerID, id)
	if err != nil {
		writeVideoError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "video")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), ownerID, id); err != nil {
		writeVideoError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeVideoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, video.ErrNotFound):
		writeError(w, http.StatusNotFound, "video not found")
	case errors.Is(err, video.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("video request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
