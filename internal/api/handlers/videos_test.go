package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/models"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/video"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/videoapi"
)

func TestVideoCreate(t *testing.T) {
	svc := &fakeVideos{created: &models.Video{ID: 5, Title: "Cells", Prompt: "explain mitosis", Status: models.VideoStatusUploaded}}
	h := NewVideoHandler(svc)

	rec := httptest.NewRecorder()
	h.Create(rec, ownerRequest(http.MethodPost, "/api/v1/videos", []byte(`{"title":" Cells ","prompt":"explain mitosis"}`), 1, ""))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, [2]string{"Cells", "explain mitosis"}, svc.gotArgs)
	assert.Contains(t, rec.Body.String(), `"status":"uploaded"`)
}

func TestVideoCreateRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{name: "bad json", body: "{", want: http.StatusBadRequest},
		{name: "missing prompt", body: `{"title":"x"}`, want: http.StatusBadRequest},
		{name: "prompt too long", body: `{"title":"x","prompt":"y"}`, err: fmt.Errorf("%w: prompt is 300 tokens", video.ErrInvalidInput), want: http.StatusBadRequest},
		{name: "store failure", body: `{"title":"x","prompt":"y"}`, err: fmt.Errorf("insert: boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewVideoHandler(&fakeVideos{err: tt.err})
			rec := httptest.NewRecorder()
			h.Create(rec, ownerRequest(http.MethodPost, "/api/v1/videos", []byte(tt.body), 1, ""))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestVideoGetIncludesJob(t *testing.T) {
	svc := &fakeVideos{detail: &video.Detail{
		Video: &models.Video{ID: 5, Status: models.VideoStatusProcessing, CeleryTaskID: ptr("task-5")},
		Job:   &videoapi.StatusResponse{Status: "PROGRESS", Message: "rendering"},
	}}
	h := NewVideoHandler(svc)

	rec := httptest.NewRecorder()
	h.Get(rec, ownerRequest(http.MethodGet, "/api/v1/videos/5", nil, 1, "5"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"celery_task_id":"task-5"`)
	assert.Contains(t, rec.Body.String(), `"job":{`)
}

func TestVideoNotFoundAndDelete(t *testing.T) {
	rec := httptest.NewRecorder()
	NewVideoHandler(&fakeVideos{err: video.ErrNotFound}).Get(rec, ownerRequest(http.MethodGet, "/api/v1/videos/9", nil, 1, "9"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc := &fakeVideos{}
	rec = httptest.NewRecorder()
	NewVideoHandler(svc).Delete(rec, ownerRequest(http.MethodDelete, "/api/v1/videos/9", nil, 1, "9"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []int64{9}, svc.deleted)
}

func TestVideoList(t *testing.T) {
	svc := &fakeVideos{created: &models.Video{ID: 1, Title: "a"}}
	rec := httptest.NewRecorder()
	NewVideoHandler(svc).List(rec, ownerRequest(http.MethodGet, "/api/v1/videos", nil, 1, ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
}
