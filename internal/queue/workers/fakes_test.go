package workers

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/cache"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/document"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/models"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/queue"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/vectorstore"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/video"
	"github.com/garethbreeze1993/MCQ-Generator-AI/internal/videoapi"
	"github.com/garethbreeze1993/MCQ-Generator-AI/pkg/chunker"
	"github.com/garethbreeze1993/MCQ-Generator-AI/pkg/textextract"
)

// --- videos ---

type dispatch struct {
	status        string
	correlationID string
}

type fakeVideoStore struct {
	mu         sync.Mutex
	videos     map[int64]*models.Video
	processing int
	dispatches []dispatch
	retryIDs   []int64
	listErr    error
}

func newFakeVideoStore(videos ...*models.Video) *fakeVideoStore {
	f := &fakeVideoStore{videos: map[int64]*models.Video{}}
	for _, v := range videos {
		f.videos[v.ID] = v
	}
	return f
}

func (f *fakeVideoStore) Get(ctx context.Context, id int64) (*models.Video, error) {
	v, ok := f.videos[id]
	if !ok {
		return nil, video.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVideoStore) MarkRetry(ctx context.Context, id int64) (*models.Video, error) {
	v, ok := f.videos[id]
	if !ok {
		return nil, video.ErrNotFound
	}
	v.Status = models.VideoStatusRetry
	cp := *v
	return &cp, nil
}

func (f *fakeVideoStore) CountByStatus(ctx context.Context, status string) (int, error) {
	return f.processing, nil
}

func (f *fakeVideoStore) SaveDispatch(ctx context.Context, id int64, from, status, correlationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatches = append(f.dispatches, dispatch{status: status, correlationID: correlationID})
	v, ok := f.videos[id]
	if !ok {
		return video.ErrNotFound
	}
	if v.Status != from {
		return video.ErrDispatchSuperseded
	}
	v.Status = status
	v.CeleryTaskID = &correlationID
	return nil
}

// complete applies what the webhook would write.
func (f *fakeVideoStore) complete(id int64, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.videos[id]
	v.Status = models.VideoStatusCompleted
	v.SThreeURL = &url
}

func (f *fakeVideoStore) ListIDsByStatus(ctx context.Context, status string) ([]int64, error) {
	return f.retryIDs, f.listErr
}

type fakeVideoAPI struct {
	online      bool
	message     string
	generateErr error
	requests    []videoapi.GenerateRequest
	onGenerate  func()
}

func (f *fakeVideoAPI) IsOnline(ctx context.Context) bool { return f.online }

func (f *fakeVideoAPI) Generate(ctx context.Context, in videoapi.GenerateRequest) (string, error) {
	f.requests = append(f.requests, in)
	if f.onGenerate != nil {
		f.onGenerate()
	}
	return f.message, f.generateErr
}

type delayed struct {
	payload queue.VideoGeneratePayload
	delay   time.Duration
}

type fakeVideoQueue struct {
	delayed  []delayed
	enqueued []queue.VideoGeneratePayload
	failFor  map[int64]bool
	delayErr error
}

func (q *fakeVideoQueue) EnqueueVideoGenerateIn(p queue.VideoGeneratePayload, d time.Duration) error {
	if q.delayErr != nil {
		return q.delayErr
	}
	q.delayed = append(q.delayed, delayed{payload: p, delay: d})
	return nil
}

func (q *fakeVideoQueue) EnqueueVideoGenerate(p queue.VideoGeneratePayload) error {
	if q.failFor[p.VideoID] {
		return errors.New("enqueue refused")
	}
	q.enqueued = append(q.enqueued, p)
	return nil
}

type fakeNotifier struct {
	alerts []*models.Video
}

func (n *fakeNotifier) NotifyAPIDown(ctx context.Context, v *models.Video) error {
	n.alerts = append(n.alerts, v)
	return nil
}

// --- documents ---

type txOp struct {
	op     string
	status string
	endID  int64
}

type fakeTx struct {
	ops []txOp
}

func (t *fakeTx) SetStatus(ctx context.Context, id int64, status string) error {
	t.ops = append(t.ops, txOp{op: "status", status: status})
	return nil
}

func (t *fakeTx) CompleteRange(ctx context.Context, doc *models.Document, endID int64) error {
	t.ops = append(t.ops, txOp{op: "range", endID: endID})
	return nil
}

type fakeDocStore struct {
	doc        *models.Document
	rng        *models.DocumentEmbeddingRange
	count      int
	committed  []txOp
	failedWith *int64
}

func (f *fakeDocStore) GetWithRange(ctx context.Context, id int64) (*models.Document, *models.DocumentEmbeddingRange, error) {
	if f.doc == nil || f.doc.ID != id {
		return nil, nil, document.ErrNotFound
	}
	return f.doc, f.rng, nil
}

// InTx keeps the transaction's writes only when fn succeeds.
func (f *fakeDocStore) InTx(ctx context.Context, fn func(document.Tx) error) error {
	tx := &fakeTx{}
	if err := fn(tx); err != nil {
		return err
	}
	f.committed = append(f.committed, tx.ops...)
	return nil
}

func (f *fakeDocStore) MarkFailed(ctx context.Context, doc *models.Document, lastAttemptedID int64) error {
	f.failedWith = &lastAttemptedID
	f.rng = nil
	return nil
}

func (f *fakeDocStore) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	return f.count, nil
}

type upsertCall struct {
	ids       []string
	documents []string
	metadatas []map[string]any
}

type fakeCollection struct {
	name       string
	upserts    []upsertCall
	deletes    [][]string
	failUpsert int // 1-based call that fails, 0 never
	counted    int
}

func (c *fakeCollection) Name() string { return c.name }

func (c *fakeCollection) Upsert(ctx context.Context, ids []string, metadatas []map[string]any, documents []string) error {
	if c.failUpsert == len(c.upserts)+1 {
		return errors.New("vector store unavailable")
	}
	c.upserts = append(c.upserts, upsertCall{ids: ids, documents: documents, metadatas: metadatas})
	return nil
}

func (c *fakeCollection) Delete(ctx context.Context, ids []string) error {
	c.deletes = append(c.deletes, ids)
	return nil
}

func (c *fakeCollection) Query(ctx context.Context, texts []string, n int, where map[string]any) ([][]vectorstore.Match, error) {
	return nil, nil
}

func (c *fakeCollection) Count(ctx context.Context) (int, error) {
	c.counted++
	n := 0
	for _, u := range c.upserts {
		n += len(u.ids)
	}
	return n, nil
}

type fakeVectorStore struct {
	collections map[string]*fakeCollection
	dropped     []string
	failUpsert  int
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{collections: map[string]*fakeCollection{}}
}

func (s *fakeVectorStore) GetOrCreateCollection(ctx context.Context, name string) (vectorstore.Collection, error) {
	c, ok := s.collections[name]
	if !ok {
		c = &fakeCollection{name: name, failUpsert: s.failUpsert}
		s.collections[name] = c
	}
	return c, nil
}

func (s *fakeVectorStore) DeleteCollection(ctx context.Context, name string) error {
	delete(s.collections, name)
	s.dropped = append(s.dropped, name)
	return nil
}

// pipeChunker splits on "|" so tests control exactly how many chunks a page yields.
type pipeChunker struct{}

func (pipeChunker) Chunk(text string) []chunker.TextChunk {
	var out []chunker.TextChunk
	for _, p := range strings.Split(text, "|") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, chunker.TextChunk{Content: p, Index: len(out)})
		}
	}
	return out
}

type slicePages struct {
	pages  []string
	next   int
	closed bool
}

func (s *slicePages) Next() (textextract.Page, error) {
	if s.next >= len(s.pages) {
		return textextract.Page{}, io.EOF
	}
	p := textextract.Page{Number: s.next, Content: s.pages[s.next]}
	s.next++
	return p, nil
}

func (s *slicePages) Close() error {
	s.closed = true
	return nil
}

type fakeLocker struct {
	held     map[string]bool
	released []string
}

func newFakeLocker() *fakeLocker { return &fakeLocker{held: map[string]bool{}} }

func (l *fakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if l.held[key] {
		return nil, cache.ErrLockHeld
	}
	l.held[key] = true
	return func() {
		delete(l.held, key)
		l.released = append(l.released, key)
	}, nil
}
