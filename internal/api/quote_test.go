// internal/api/quote_test.go
package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quote-orchestrator/internal/common/config"
	"quote-orchestrator/internal/common/logger"
	"quote-orchestrator/internal/models"
	"quote-orchestrator/internal/orchestrator"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

type fakeRunner struct {
	events []models.StreamEvent
	err    error
	// errBeforeEvents fails without emitting anything
	errBeforeEvents bool
}

func (f *fakeRunner) Run(ctx context.Context, req *models.QuoteRunRequest, sink orchestrator.EventSink) error {
	if f.errBeforeEvents {
		return f.err
	}
	for _, ev := range f.events {
		if err := sink(ev); err != nil {
			return err
		}
	}
	return f.err
}

func testRouter(t *testing.T, runner Runner) http.Handler {
	return testRouterWithHealth(t, runner, HealthDeps{})
}

func testRouterWithHealth(t *testing.T, runner Runner, health HealthDeps) http.Handler {
	cfg := &config.Config{}
	cfg.App.Name = "quote-orchestrator"
	cfg.App.Version = "test"
	return NewRouter(cfg, runner, health, newTestLogger(t))
}

// ==========================
// Stream Endpoint Tests
// ==========================

func TestStream_EmitsFramedEvents(t *testing.T) {
	runner := &fakeRunner{events: []models.StreamEvent{
		{Type: models.EventStarted, RunID: "run-1"},
		{Type: models.EventDone, RunID: "run-1", DurationMS: 42},
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/quote/stream",
		strings.NewReader(`{"items":[{"query":"toner","qty":1}],"input_type":"text"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	testRouter(t, runner).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	frames := strings.Split(strings.TrimSpace(rec.Body.String()), "\n\n")
	assert.Len(t, frames, 2)
	assert.Contains(t, frames[0], `"type":"started"`)
	assert.Contains(t, frames[1], `"type":"done"`)
	for _, f := range frames {
		assert.True(t, strings.HasPrefix(f, "data: "))
	}
}

func TestStream_EmptyItemsRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/quote/stream",
		strings.NewReader(`{"items":[],"input_type":"text"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	testRouter(t, &fakeRunner{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStream_MalformedBodyRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/quote/stream",
		strings.NewReader(`{"items": 42}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	testRouter(t, &fakeRunner{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStream_PreStreamFailureIsPlainError(t *testing.T) {
	runner := &fakeRunner{errBeforeEvents: true, err: errors.New("NO_USABLE_ITEMS")}

	req := httptest.NewRequest(http.MethodPost, "/api/quote/stream",
		strings.NewReader(`{"items":[{"query":"  ","qty":1}],"input_type":"text"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	testRouter(t, runner).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "NO_USABLE_ITEMS")
}

func TestStream_MidStreamFailureKeepsStream(t *testing.T) {
	runner := &fakeRunner{
		events: []models.StreamEvent{
			{Type: models.EventStarted, RunID: "run-1"},
			{Type: models.EventError, RunID: "run-1", Message: "probe transport failed"},
		},
		err: errors.New("probe transport failed"),
	}

	req := httptest.NewRequest(http.MethodPost, "/api/quote/stream",
		strings.NewReader(`{"items":[{"query":"toner","qty":1}],"input_type":"text"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	testRouter(t, runner).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"error"`)
}

// ==========================
// Ancillary Endpoint Tests
// ==========================

func TestHealthz_AllStoresUp(t *testing.T) {
	health := HealthDeps{
		Postgres: func(ctx context.Context) error { return nil },
		Redis:    func(ctx context.Context) error { return nil },
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	testRouterWithHealth(t, &fakeRunner{}, health).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHealthz_StoreDownIsDegraded(t *testing.T) {
	health := HealthDeps{
		Postgres: func(ctx context.Context) error { return nil },
		Redis:    func(ctx context.Context) error { return errors.New("connection refused") },
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	testRouterWithHealth(t, &fakeRunner{}, health).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
	assert.Contains(t, rec.Body.String(), "redis")
}

func TestMetricsEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	testRouter(t, &fakeRunner{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
