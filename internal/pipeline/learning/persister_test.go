// internal/pipeline/learning/persister_test.go
package learning

import (
	"context"
	"errors"
	"testing"

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

type fakeCatalogFolder struct {
	folds []models.SiteOutcome
	err   error
}

func (f *fakeCatalogFolder) FoldOutcome(ctx context.Context, outcome models.SiteOutcome) error {
	f.folds = append(f.folds, outcome)
	return f.err
}

type fakeStatFolder struct {
	keys  []string
	folds []models.SiteOutcome
	err   error
}

func (f *fakeStatFolder) FoldOutcome(ctx context.Context, clusterKey string, outcome models.SiteOutcome) error {
	f.keys = append(f.keys, clusterKey)
	f.folds = append(f.folds, outcome)
	return f.err
}

type fakeIndexer struct {
	records []models.InteractionRecord
	err     error
}

func (f *fakeIndexer) IndexInteraction(ctx context.Context, record models.InteractionRecord) error {
	f.records = append(f.records, record)
	return f.err
}

func outcome(site string, runs, success int64) models.SiteOutcome {
	return models.SiteOutcome{
		SiteID:   site,
		Counters: models.OutcomeCounters{Runs: runs, Success: success},
	}
}

// ==========================
// Persister Tests
// ==========================

func TestPersist_FoldsBothStoresAndIndexes(t *testing.T) {
	catalog := &fakeCatalogFolder{}
	stats := &fakeStatFolder{}
	indexer := &fakeIndexer{}

	p := NewPersister(catalog, stats, indexer, newTestLogger(t))
	p.Persist(context.Background(), "run-1", "c_office_toner", []models.SiteOutcome{
		outcome("staples", 3, 2),
		outcome("quill", 2, 1),
	})

	assert.Len(t, catalog.folds, 2)
	assert.Len(t, stats.folds, 2)
	assert.Equal(t, []string{"c_office_toner", "c_office_toner"}, stats.keys)
	assert.Len(t, indexer.records, 2)
	assert.Equal(t, "run-1", indexer.records[0].RunID)
}

func TestPersist_SkipsEmptyOutcomes(t *testing.T) {
	catalog := &fakeCatalogFolder{}
	stats := &fakeStatFolder{}

	p := NewPersister(catalog, stats, nil, newTestLogger(t))
	p.Persist(context.Background(), "run-1", "key", []models.SiteOutcome{
		outcome("staples", 0, 0),
	})

	assert.Empty(t, catalog.folds)
	assert.Empty(t, stats.folds)
}

func TestPersist_FailuresAreSwallowed(t *testing.T) {
	catalog := &fakeCatalogFolder{err: errors.New("pg down")}
	stats := &fakeStatFolder{err: errors.New("redis down")}
	indexer := &fakeIndexer{err: errors.New("es down")}

	p := NewPersister(catalog, stats, indexer, newTestLogger(t))

	// must not panic or abort; each store is still attempted
	p.Persist(context.Background(), "run-1", "key", []models.SiteOutcome{
		outcome("staples", 1, 1),
		outcome("quill", 1, 0),
	})

	assert.Len(t, catalog.folds, 2)
	assert.Len(t, stats.folds, 2)
	assert.Len(t, indexer.records, 2)
}

func TestPersist_NilIndexerIsOptional(t *testing.T) {
	catalog := &fakeCatalogFolder{}
	stats := &fakeStatFolder{}

	p := NewPersister(catalog, stats, nil, newTestLogger(t))
	p.Persist(context.Background(), "run-1", "key", []models.SiteOutcome{outcome("staples", 1, 1)})

	assert.Len(t, catalog.folds, 1)
}
