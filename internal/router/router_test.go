package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/deppfellow/inquiry-intake/internal/config"
	"github.com/deppfellow/inquiry-intake/internal/errs"
	"github.com/deppfellow/inquiry-intake/internal/handler"
	"github.com/deppfellow/inquiry-intake/internal/lib/email"
	"github.com/deppfellow/inquiry-intake/internal/lib/job"
	"github.com/deppfellow/inquiry-intake/internal/model"
	"github.com/deppfellow/inquiry-intake/internal/server"
	"github.com/deppfellow/inquiry-intake/internal/service"
	"github.com/deppfellow/inquiry-intake/internal/sqlerr"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const admin = "admin@example.com"

type memoryStore struct {
	mu      sync.Mutex
	records map[string]model.Inquiry
}

func (s *memoryStore) Create(_ context.Context, inquiry *model.Inquiry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[inquiry.ID] = *inquiry
	return nil
}

func (s *memoryStore) GetByID(_ context.Context, id string) (*model.Inquiry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inquiry, ok := s.records[id]
	if !ok {
		return nil, &sqlerr.NotFound{Table: "inquiries", Err: pgx.ErrNoRows}
	}
	return &inquiry, nil
}

// queue hands out sequential message ids and keeps the published payloads
// the way the worker would receive them.
type queue struct {
	mu     sync.Mutex
	bodies [][]byte
	err    error
}

func (q *queue) PublishNotification(_ context.Context, msg model.NotificationMessage) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.bodies = append(q.bodies, body)
	return "msg-" + string(rune('0'+len(q.bodies))), nil
}

type outbox struct {
	mu   sync.Mutex
	sent []email.Message
	to   []string
}

func (o *outbox) SendInquiryReceived(_ context.Context, to string, inquiry model.Inquiry) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, email.ComposeInquiryReceived(inquiry))
	o.to = append(o.to, to)
	return "email", nil
}

type testEnv struct {
	router *echo.Echo
	store  *memoryStore
	queue  *queue
	outbox *outbox
	worker *service.NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zerolog.Nop()
	cfg := &config.Config{
		Primary: config.Primary{Env: "test"},
		Server:  config.ServerConfig{CORSAllowedOrigins: []string{"*"}},
		Inquiry: config.InquiryConfig{
			TableName:  "inquiries",
			AdminEmail: admin,
		},
		Observability: config.DefaultObservabilityConfig(),
	}
	srv := &server.Server{Config: cfg, Logger: &logger}

	env := &testEnv{
		store:  &memoryStore{records: map[string]model.Inquiry{}},
		queue:  &queue{},
		outbox: &outbox{},
	}
	env.worker = service.NewNotificationService(env.outbox, &logger)

	services := &service.Services{
		Inquiry:      service.NewInquiryService(env.store, env.queue, admin, &logger),
		Notification: env.worker,
	}
	env.router = NewRouter(srv, handler.NewHandlers(srv, services))
	return env
}

func (env *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	contentType := ""
	if body != "" {
		contentType = echo.MIMEApplicationJSON
	}
	return env.doWithContentType(method, path, body, contentType)
}

func (env *testEnv) doWithContentType(method, path, body, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestWholesaleInquiryEndToEnd(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/inquiries/new", `{"inquiryType":"wholesale","inquiries":["widget-A","widget-B"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp model.CreateInquiryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Inquiry.ID)
	assert.Equal(t, "wholesale", resp.Inquiry.InquiryType)
	assert.Equal(t, []string{"widget-A", "widget-B"}, resp.Inquiry.InquiryItems)
	assert.Equal(t, "msg-1", resp.MessageID)

	assert.Equal(t, resp.Inquiry, env.store.records[resp.Inquiry.ID])

	require.Len(t, env.queue.bodies, 1)
	results := env.worker.ProcessBatch(context.Background(), []job.Record{{Body: env.queue.bodies[0]}})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, resp.Inquiry.ID, results[0].InquiryID)

	require.Len(t, env.outbox.sent, 1)
	assert.Equal(t, []string{admin}, env.outbox.to)
	assert.Equal(t, "New inquiry received", env.outbox.sent[0].Subject)
	assert.Equal(t, "New inquiry received: wholesale Items: widget-A, widget-B", env.outbox.sent[0].Text)

	rec = env.do(http.MethodGet, "/inquiries/"+resp.Inquiry.ID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var fetched model.Inquiry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, resp.Inquiry, fetched)
}

func TestCreateInquiryWithoutJSONContentType(t *testing.T) {
	for _, contentType := range []string{echo.MIMETextPlain, ""} {
		env := newTestEnv(t)

		rec := env.doWithContentType(http.MethodPost, "/inquiries/new",
			`{"inquiryType":"wholesale","inquiries":["widget-A","widget-B"]}`, contentType)
		require.Equal(t, http.StatusOK, rec.Code, "content type %q: %s", contentType, rec.Body.String())

		var resp model.CreateInquiryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "wholesale", resp.Inquiry.InquiryType)
		assert.Equal(t, []string{"widget-A", "widget-B"}, resp.Inquiry.InquiryItems)
		assert.Len(t, env.queue.bodies, 1)
	}
}

func TestCreateInquiryEmptyItems(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/inquiries/new", `{"inquiryType":"wholesale","inquiries":[]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.JSONEq(t, `[]`, string(mustField(t, rec.Body.Bytes(), "inquiry", "inquiryItems")))

	results := env.worker.ProcessBatch(context.Background(), []job.Record{{Body: env.queue.bodies[0]}})
	require.NoError(t, results[0].Err)
	assert.Equal(t, "New inquiry received: wholesale Items: ", env.outbox.sent[0].Text)
}

func TestCreateInquiryValidation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{name: "missing type", body: `{"inquiries":["apples"]}`, wantField: "inquiryType"},
		{name: "missing items", body: `{"inquiryType":"wholesale"}`, wantField: "inquiries"},
		{name: "malformed json", body: `{"inquiryType":`},
		{name: "wrong item type", body: `{"inquiryType":"wholesale","inquiries":[1,2]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			rec := env.do(http.MethodPost, "/inquiries/new", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var httpErr errs.HTTPError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &httpErr))
			assert.Equal(t, "BAD_REQUEST", httpErr.Code)
			if tt.wantField != "" {
				require.Len(t, httpErr.Errors, 1)
				assert.Equal(t, tt.wantField, httpErr.Errors[0].Field)
				assert.Equal(t, "is required", httpErr.Errors[0].Error)
			}

			assert.Empty(t, env.store.records)
			assert.Empty(t, env.queue.bodies)
		})
	}
}

func TestCreateInquiryQueueFailure(t *testing.T) {
	env := newTestEnv(t)
	env.queue.err = errors.New("redis: connection refused")

	rec := env.do(http.MethodPost, "/inquiries/new", `{"inquiryType":"wholesale","inquiries":["apples"]}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// The cause is logged, not leaked.
	assert.NotContains(t, rec.Body.String(), "redis")
	assert.Len(t, env.store.records, 1)
}

func TestGetInquiryErrors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/inquiries/7f1c7a4e-1b7e-4a55-9d39-2f0c2f6a6a10", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var httpErr errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &httpErr))
	assert.Equal(t, "Inquiry not found", httpErr.Message)

	rec = env.do(http.MethodGet, "/inquiries/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var httpErr errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &httpErr))
	assert.Equal(t, "Route not found", httpErr.Message)
}

func TestStatusWithoutDependencies(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestMetricsRoute(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func mustField(t *testing.T, body []byte, path ...string) json.RawMessage {
	t.Helper()

	raw := json.RawMessage(body)
	for _, key := range path {
		var obj map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &obj))
		raw = obj[key]
	}
	return raw
}
