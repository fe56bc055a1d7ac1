package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/models"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/tenant"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/vectorstore"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/video"
)

type webhookCall struct {
	id     int64
	status string
	url    string
}

type fakeRecorder struct {
	calls []webhookCall
	err   error
}

func (f *fakeRecorder) ApplyWebhook(ctx context.Context, id int64, status, artifactURL string) error {
	f.calls = append(f.calls, webhookCall{id: id, status: status, url: artifactURL})
	return f.err
}

type fakeDocuments struct {
	uploadedName string
	uploadedBody string
	doc          *models.Document
	docs         []models.Document
	err          error
	deleted      []int64
	gotLimit     int
}

func (f *fakeDocuments) Upload(ctx context.Context, ownerID int64, filename string, data io.Reader) (*models.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(data)
	f.uploadedName, f.uploadedBody = filename, string(b)
	return f.doc, nil
}

func (f *fakeDocuments) Get(ctx context.Context, ownerID, id int64) (*models.Document, error) {
	return f.doc, f.err
}

func (f *fakeDocuments) List(ctx context.Context, ownerID int64, limit, offset int) ([]models.Document, error) {
	f.gotLimit = limit
	return f.docs, f.err
}

func (f *fakeDocuments) Delete(ctx context.Context, ownerID, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeVideos struct {
	created *models.Video
	detail  *video.Detail
	err     error
	deleted []int64
	gotArgs [2]string
}

func (f *fakeVideos) Create(ctx context.Context, ownerID int64, title, prompt string) (*models.Video, error) {
	f.gotArgs = [2]string{title, prompt}
	return f.created, f.err
}

func (f *fakeVideos) Get(ctx context.Context, ownerID, id int64) (*video.Detail, error) {
	return f.detail, f.err
}

func (f *fakeVideos) List(ctx context.Context, ownerID int64, limit, offset int) ([]models.Video, error) {
	if f.created == nil {
		return nil, f.err
	}
	return []models.Video{*f.created}, f.err
}

func (f *fakeVideos) Delete(ctx context.Context, ownerID, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeCollection struct {
	name     string
	gotWhere map[string]any
	gotN     int
	matches  [][]vectorstore.Match
}

func (c *fakeCollection) Name() string { return c.name }

func (c *fakeCollection) Upsert(ctx context.Context, ids []string, metadatas []map[string]any, documents []string) error {
	return nil
}

func (c *fakeCollection) Delete(ctx context.Context, ids []string) error { return nil }

func (c *fakeCollection) Query(ctx context.Context, texts []string, n int, where map[string]any) ([][]vectorstore.Match, error) {
	c.gotN, c.gotWhere = n, where
	return c.matches, nil
}

func (c *fakeCollection) Count(ctx context.Context) (int, error) { return 0, nil }

type fakeStore struct {
	coll   *fakeCollection
	opened string
}

func (s *fakeStore) GetOrCreateCollection(ctx context.Context, name string) (vectorstore.Collection, error) {
	s.opened = name
	return s.coll, nil
}

func (s *fakeStore) DeleteCollection(ctx context.Context, name string) error { return nil }

// ownerRequest builds a request as RequireOwner would hand it on, with the chi id
// parameter set when id is non-empty.
func ownerRequest(method, target string, body []byte, owner int64, id string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := tenant.WithOwner(req.Context(), owner)
	if id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func ptr[T any](v T) *T { return &v }

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
