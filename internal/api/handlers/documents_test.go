package handlers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/document"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/idrange"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/models"
)

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestDocumentUpload(t *testing.T) {
	svc := &fakeDocuments{doc: &models.Document{ID: 3, OwnerID: 1, Name: "notes.pdf", Status: models.DocStatusUploaded}}
	h := NewDocumentHandler(svc)

	body, ct := multipartBody(t, "notes.pdf", "%PDF-1.4")
	req := ownerRequest(http.MethodPost, "/api/v1/documents", body.Bytes(), 1, "")
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "notes.pdf", svc.uploadedName)
	assert.Equal(t, "%PDF-1.4", svc.uploadedBody)
	assert.Contains(t, rec.Body.String(), `"status":"uploaded"`)
	assert.NotContains(t, rec.Body.String(), "storage_path")
}

func TestDocumentUploadRequiresFile(t *testing.T) {
	h := NewDocumentHandler(&fakeDocuments{})
	req := ownerRequest(http.MethodPost, "/api/v1/documents", nil, 1, "")
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{document.ErrNotFound, http.StatusNotFound},
		{document.ErrUnsupportedType, http.StatusBadRequest},
		{document.ErrIngestInProgress, http.StatusConflict},
		{fmt.Errorf("allocate range: %w", idrange.ErrRangeInFlight), http.StatusConflict},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := NewDocumentHandler(&fakeDocuments{err: tt.err})
			rec := httptest.NewRecorder()
			h.Delete(rec, ownerRequest(http.MethodDelete, "/api/v1/documents/4", nil, 1, "4"))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestDocumentDelete(t *testing.T) {
	svc := &fakeDocuments{}
	h := NewDocumentHandler(svc)

	rec := httptest.NewRecorder()
	h.Delete(rec, ownerRequest(http.MethodDelete, "/api/v1/documents/4", nil, 1, "4"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []int64{4}, svc.deleted)

	rec = httptest.NewRecorder()
	h.Delete(rec, ownerRequest(http.MethodDelete, "/api/v1/documents/abc", nil, 1, "abc"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentListAndGet(t *testing.T) {
	svc := &fakeDocuments{
		doc:  &models.Document{ID: 2, Name: "a.pdf", Status: models.DocStatusCompleted},
		docs: []models.Document{{ID: 2, Name: "a.pdf"}},
	}
	h := NewDocumentHandler(svc)

	rec := httptest.NewRecorder()
	h.List(rec, ownerRequest(http.MethodGet, "/api/v1/documents?limit=500", nil, 1, ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, svc.gotLimit)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = httptest.NewRecorder()
	h.Get(rec, ownerRequest(http.MethodGet, "/api/v1/documents/2", nil, 1, itoa(2)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"a.pdf"`)
}

func TestDocumentRequiresOwner(t *testing.T) {
	h := NewDocumentHandler(&fakeDocuments{})
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
