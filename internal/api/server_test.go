package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buzzboard/internal/llm"
	"github.com/buzzboard/internal/promo"
	"github.com/buzzboard/internal/scraper"
	"github.com/buzzboard/internal/worker"
)

type fakeQueue struct {
	items []promo.QueueItem
}

func (q *fakeQueue) Add(ctx context.Context, item promo.QueueItem) (promo.QueueItem, error) {
	item.ID = fmt.Sprintf("q%d", len(q.items)+1)
	item.Status = promo.StatusPending
	q.items = append(q.items, item)
	return item, nil
}

func (q *fakeQueue) List(ctx context.Context) ([]promo.QueueItem, error) { return q.items, nil }

func (q *fakeQueue) ClaimOldest(ctx context.Context) (*promo.QueueItem, error) { return nil, nil }

func (q *fakeQueue) SetStatus(ctx context.Context, id, status string) error {
	for i := range q.items {
		if q.items[i].ID == id {
			q.items[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("queue item %s not found", id)
}

func (q *fakeQueue) Delete(ctx context.Context, id string) error {
	for i := range q.items {
		if q.items[i].ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("queue item %s not found", id)
}

type fakeThreads struct {
	threads []promo.Thread
	updated map[string][]promo.TranscriptTurn
}

func (s *fakeThreads) Insert(ctx context.Context, thread promo.Thread) (promo.Thread, error) {
	thread.ID = fmt.Sprintf("thread-%d", len(s.threads)+1)
	s.threads = append(s.threads, thread)
	return thread, nil
}

func (s *fakeThreads) List(ctx context.Context) ([]promo.Thread, error) { return s.threads, nil }

func (s *fakeThreads) Get(ctx context.Context, id string) (*promo.Thread, error) {
	for i := range s.threads {
		if s.threads[i].ID == id {
			return &s.threads[i], nil
		}
	}
	return nil, nil
}

func (s *fakeThreads) Latest(ctx context.Context) (*promo.Thread, error) { return nil, nil }

func (s *fakeThreads) Random(ctx context.Context) (*promo.Thread, error) { return nil, nil }

func (s *fakeThreads) UpdateTranscript(ctx context.Context, id string, transcript []promo.TranscriptTurn) error {
	if s.updated == nil {
		s.updated = map[string][]promo.TranscriptTurn{}
	}
	s.updated[id] = transcript
	return nil
}

func (s *fakeThreads) Delete(ctx context.Context, id string) error {
	for i := range s.threads {
		if s.threads[i].ID == id {
			s.threads = append(s.threads[:i], s.threads[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("thread %s not found", id)
}

type fakeWorker struct {
	advanceOutcome  worker.Outcome
	extendOutcome   worker.Outcome
	generateOutcome worker.Outcome
	lastSelection   string
}

func (w *fakeWorker) AdvanceQueue(ctx context.Context) (worker.Outcome, error) {
	return w.advanceOutcome, nil
}

func (w *fakeWorker) ExtendThread(ctx context.Context, selection string) (worker.Outcome, error) {
	w.lastSelection = selection
	return w.extendOutcome, nil
}

func (w *fakeWorker) GenerateFromURL(ctx context.Context, url string) (worker.Outcome, error) {
	return w.generateOutcome, nil
}

type fakeGenerator struct {
	turns []promo.TranscriptTurn
}

func (g *fakeGenerator) Append(ctx context.Context, contextLines []string, productInfo string, image *llm.ImagePart) ([]promo.TranscriptTurn, error) {
	return g.turns, nil
}

type fakeHype struct{}

func (h *fakeHype) Analyze(ctx context.Context, inputText string) (promo.HypeAnalysis, error) {
	return promo.HypeAnalysis{
		ProductName: "テスト商品",
		KeyFeatures: "- 安い",
		CastProfiles: []promo.CastProfile{
			{Name: "おでん", Role: "冷静オタク", ShortDescription: "最初は疑ってる"},
		},
	}, nil
}

func (h *fakeHype) Transcript(ctx context.Context, analysis promo.HypeAnalysis) ([]promo.TranscriptTurn, error) {
	return []promo.TranscriptTurn{
		{ID: "t1", SpeakerName: "おでん", SpeakerAttribute: "一般ユーザー", Content: "マジか"},
	}, nil
}

type fakePages struct {
	title string
	text  string
}

func (p *fakePages) Fetch(ctx context.Context, url string) (*scraper.Page, error) {
	return &scraper.Page{Title: p.title, Text: p.text}, nil
}

func (p *fakePages) FetchTitle(ctx context.Context, url string) (string, error) {
	if p.title == "" {
		return "", fmt.Errorf("no title found at %s", url)
	}
	return p.title, nil
}

type testEnv struct {
	server  *Server
	queue   *fakeQueue
	threads *fakeThreads
	worker  *fakeWorker
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		queue:   &fakeQueue{},
		threads: &fakeThreads{},
		worker:  &fakeWorker{},
	}
	env.server = NewServer(Config{
		Port:          8890,
		AdminUser:     "admin",
		AdminPassword: "secret",
		CronKey:       "cron-key",
	}, env.queue, env.threads, env.worker,
		&fakeGenerator{turns: []promo.TranscriptTurn{{ID: "new-1", SpeakerName: "新顔", Content: "それな"}}},
		&fakeHype{},
		&fakePages{title: "加湿器X", text: "商品ページの本文テキストです。"})
	return env
}

func (e *testEnv) do(method, target string, body string, decorate func(*http.Request)) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echoContentType, "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	e.server.echo.ServeHTTP(rec, req)
	return rec
}

const echoContentType = "Content-Type"

func asAdmin(req *http.Request) { req.SetBasicAuth("admin", "secret") }

func asCron(req *http.Request) { req.Header.Set("Authorization", "Bearer cron-key") }

func TestHealth(t *testing.T) {
	env := newTestServer(t)
	rec := env.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRoutesRequireBasicAuth(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(http.MethodGet, "/api/topic-queue", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/topic-queue", "", func(r *http.Request) {
		r.SetBasicAuth("admin", "wrong")
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/topic-queue", "", asAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCronRoutesRequireBearerKey(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(http.MethodGet, "/api/cron/create-thread", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/cron/create-thread", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer wrong")
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/cron/create-thread", "", asCron)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateQueueItem(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(http.MethodPost, "/api/topic-queue", `{"url":""}`, asAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/topic-queue",
		`{"url":"https://example.com/item","affiliate_url":"https://afl.example.com/x","context":" セール中 "}`, asAdmin)
	require.Equal(t, http.StatusCreated, rec.Code)

	var item promo.QueueItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, "https://example.com/item", item.URL)
	assert.Equal(t, "セール中", item.Context)
	assert.Equal(t, promo.StatusPending, item.Status)
}

func TestUpdateQueueItemOnlyAcceptsPending(t *testing.T) {
	env := newTestServer(t)
	env.queue.items = []promo.QueueItem{{ID: "q1", Status: promo.StatusDone}}

	rec := env.do(http.MethodPatch, "/api/topic-queue/q1", `{"status":"done"}`, asAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPatch, "/api/topic-queue/q1", `{"status":"pending"}`, asAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, promo.StatusPending, env.queue.items[0].Status)

	rec = env.do(http.MethodPatch, "/api/topic-queue/missing", `{"status":"pending"}`, asAdmin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetThread(t *testing.T) {
	env := newTestServer(t)
	env.threads.threads = []promo.Thread{{ID: "thread-1", ProductName: "【話題】テスト"}}

	rec := env.do(http.MethodGet, "/api/threads/thread-1", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/threads/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAppendComments(t *testing.T) {
	env := newTestServer(t)
	env.threads.threads = []promo.Thread{{
		ID:          "thread-1",
		ProductName: "【話題】テスト",
		Transcript:  []promo.TranscriptTurn{{ID: "t1", SpeakerName: "既存", Content: "買った"}},
	}}

	rec := env.do(http.MethodPost, "/api/threads/thread-1/comments", `{}`, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		NewComments []promo.TranscriptTurn `json:"new_comments"`
		Transcript  []promo.TranscriptTurn `json:"transcript"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Len(t, payload.NewComments, 1)
	assert.Len(t, payload.Transcript, 2)
	assert.Len(t, env.threads.updated["thread-1"], 2)
}

func TestGenerateThread(t *testing.T) {
	env := newTestServer(t)
	env.worker.generateOutcome = worker.Outcome{Status: worker.StatusScrapeFailed, Detail: "status 403"}

	rec := env.do(http.MethodPost, "/api/threads/generate", `{"target_url":""}`, asAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Scrape failures surface as a 200 payload the admin UI can react to.
	rec = env.do(http.MethodPost, "/api/threads/generate", `{"target_url":"https://example.com"}`, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	var outcome worker.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, worker.StatusScrapeFailed, outcome.Status)
}

func TestCreateHype(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(http.MethodPost, "/api/threads/hype", `{"text_content":"短い"}`, asAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/threads/hype",
		`{"text_content":"これは十分に長い商品説明テキストです。"}`, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code)

	var thread promo.Thread
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &thread))
	assert.Equal(t, "テスト商品", thread.ProductName)
	require.Len(t, thread.CastProfiles, 1)
	assert.Len(t, thread.Transcript, 1)
}

func TestFetchTitle(t *testing.T) {
	env := newTestServer(t)

	rec := env.do(http.MethodGet, "/api/fetch-title", "", asAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/fetch-title?url=not-a-url", "", asAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/fetch-title?url=https%3A%2F%2Fexample.com", "", asAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "加湿器X")
}

func TestCronExtendUsesLatestSelection(t *testing.T) {
	env := newTestServer(t)
	env.worker.extendOutcome = worker.Outcome{Status: worker.StatusExtended, ThreadID: "thread-1", Added: 2}

	rec := env.do(http.MethodGet, "/api/cron/extend-thread", "", asCron)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, worker.SelectLatest, env.worker.lastSelection)
}
