package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/vectorstore"
)

func TestLibrarySearch(t *testing.T) {
	coll := &fakeCollection{matches: [][]vectorstore.Match{{
		{ID: "id7", Document: "mitochondria", Metadata: map[string]any{"page": 0}, Distance: 0.1},
	}}}
	store := &fakeStore{coll: coll}
	h := NewLibraryHandler(store)

	rec := httptest.NewRecorder()
	h.Search(rec, ownerRequest(http.MethodPost, "/api/v1/library/search", []byte(`{"query":"cells","document_id":3}`), 12, ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user_12", store.opened)
	assert.Equal(t, defaultSearchResults, coll.gotN)
	assert.Equal(t, map[string]any{"document_id": int64(3)}, coll.gotWhere)
	assert.Contains(t, rec.Body.String(), `"id":"id7"`)
}

func TestLibrarySearchValidation(t *testing.T) {
	h := NewLibraryHandler(&fakeStore{coll: &fakeCollection{}})

	rec := httptest.NewRecorder()
	h.Search(rec, ownerRequest(http.MethodPost, "/api/v1/library/search", []byte(`{"query":"  "}`), 1, ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	coll := &fakeCollection{}
	h = NewLibraryHandler(&fakeStore{coll: coll})
	rec = httptest.NewRecorder()
	h.Search(rec, ownerRequest(http.MethodPost, "/api/v1/library/search", []byte(`{"query":"x","n_results":1000}`), 1, ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxSearchResults, coll.gotN)
	assert.Nil(t, coll.gotWhere)
	assert.Contains(t, rec.Body.String(), `"results":[]`)
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler(map[string]Check{
		"database": func(ctx context.Context) error { return nil },
	})
	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"database":"ok"}}`, rec.Body.String())

	h = NewHealthHandler(map[string]Check{
		"database":  func(ctx context.Context) error { return nil },
		"video_api": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	rec = httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"video_api":"unhealthy: connection refused"`)

	rec = httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
