// internal/pipeline/classify/handler_test.go
package classify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quote-orchestrator/internal/common/logger"
	"quote-orchestrator/internal/models"

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

func createTestConfig(baseURL string) *Config {
	return &Config{
		BaseURL:            baseURL,
		Timeout:            2 * time.Second,
		FallbackConfidence: 0.38,
	}
}

func items(queries ...string) []models.LineItem {
	out := make([]models.LineItem, 0, len(queries))
	for _, q := range queries {
		out = append(out, models.LineItem{Query: q, Qty: 1})
	}
	return out
}

// ==========================
// Fallback Classifier Tests
// ==========================

func TestFallback_PaperTowelsIsOffice(t *testing.T) {
	h := NewHandler(createTestConfig(""), newTestLogger(t))

	result := h.Execute(context.Background(), &Input{Items: items("paper towels")})

	assert.Equal(t, models.CategoryOffice, result.Category)
	assert.Equal(t, models.SourceFallback, result.Source)
	assert.Equal(t, 0.38, result.Confidence)
}

func TestFallback_NoTermHitsIsUnknown(t *testing.T) {
	h := NewHandler(createTestConfig(""), newTestLogger(t))

	result := h.Execute(context.Background(), &Input{Items: items("mystery widget")})

	assert.Equal(t, models.CategoryUnknown, result.Category)
}

func TestFallback_TieIsUnknown(t *testing.T) {
	h := NewHandler(createTestConfig(""), newTestLogger(t))

	// one office term and one electronics term
	result := h.Execute(context.Background(), &Input{Items: items("toner", "laptop")})

	assert.Equal(t, models.CategoryUnknown, result.Category)
	// both matched categories still surface as candidates
	assert.Contains(t, result.CategoryCandidates, models.CategoryOffice)
	assert.Contains(t, result.CategoryCandidates, models.CategoryElectronics)
}

func TestFallback_CandidatesExcludeWinner(t *testing.T) {
	h := NewHandler(createTestConfig(""), newTestLogger(t))

	result := h.Execute(context.Background(), &Input{Items: items("printer paper toner", "hdmi cable")})

	assert.Equal(t, models.CategoryOffice, result.Category)
	assert.NotContains(t, result.CategoryCandidates, models.CategoryOffice)
	assert.Contains(t, result.CategoryCandidates, models.CategoryElectronics)
}

// ==========================
// Advisory Path Tests
// ==========================

func TestAdvisory_HappyPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, advisoryPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"category": "electronics",
			"category_candidates": ["office", "electronics"],
			"confidence": 0.91,
			"query_variants": ["27 inch monitor"],
			"site_plan": ["bestbuy", "newegg"],
			"normalized_items": [{"query": "27in monitor", "qty": 2}]
		}`))
	}))
	defer server.Close()

	h := NewHandler(createTestConfig(server.URL), newTestLogger(t))
	result := h.Execute(context.Background(), &Input{Items: items("27 in monitor")})

	assert.Equal(t, models.CategoryElectronics, result.Category)
	assert.Equal(t, models.SourceAdvisory, result.Source)
	assert.Equal(t, 0.91, result.Confidence)
	assert.Equal(t, []models.Category{models.CategoryOffice, models.CategoryElectronics}, result.CategoryCandidates)
	assert.Equal(t, []string{"bestbuy", "newegg"}, result.SitePlanHints)
	assert.Equal(t, []models.LineItem{{Query: "27in monitor", Qty: 2}}, result.NormalizedItems)
}

func TestAdvisory_ConfidenceClamped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"category": "office", "confidence": 3.5}`))
	}))
	defer server.Close()

	h := NewHandler(createTestConfig(server.URL), newTestLogger(t))
	result := h.Execute(context.Background(), &Input{Items: items("toner")})

	assert.Equal(t, 1.0, result.Confidence)
}

func TestAdvisory_SchemaMismatchFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// confidence has the wrong type
		w.Write([]byte(`{"category": "office", "confidence": "high"}`))
	}))
	defer server.Close()

	h := NewHandler(createTestConfig(server.URL), newTestLogger(t))
	result := h.Execute(context.Background(), &Input{Items: items("paper towels")})

	assert.Equal(t, models.SourceFallback, result.Source)
	assert.Equal(t, models.CategoryOffice, result.Category)
}

func TestAdvisory_ServerErrorFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	h := NewHandler(createTestConfig(server.URL), newTestLogger(t))
	result := h.Execute(context.Background(), &Input{Items: items("paper towels")})

	assert.Equal(t, models.SourceFallback, result.Source)
}

func TestAdvisory_UnknownCategoryStringMapsToUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"category": "groceries", "confidence": 0.8}`))
	}))
	defer server.Close()

	h := NewHandler(createTestConfig(server.URL), newTestLogger(t))
	result := h.Execute(context.Background(), &Input{Items: items("paper towels")})

	assert.Equal(t, models.CategoryUnknown, result.Category)
	assert.Equal(t, models.SourceAdvisory, result.Source)
}
