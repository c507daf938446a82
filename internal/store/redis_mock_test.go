// internal/store/redis_mock_test.go
package store

import (
	"context"
	"errors"
	"testing"

	"quote-orchestrator/internal/models"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

// Command-level assertions miniredis cannot express: exact HINCRBY fields
// issued inside the transaction, and transport failures surfacing.

func TestFoldOutcome_SkipsZeroDeltas(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewIntentStatStore(client, newTestLogger(t))

	key := "intent:c_office_toner:staples"
	mock.ExpectTxPipeline()
	mock.ExpectHIncrBy(key, "runs_count", 2).SetVal(2)
	mock.ExpectHIncrBy(key, "success_count", 1).SetVal(1)
	mock.ExpectHIncrBy(key, "blocked_count", 1).SetVal(1)
	mock.ExpectHIncrBy(key, "latency_ms_total", 1800).SetVal(1800)
	mock.ExpectHIncrBy(key, "latency_samples", 1).SetVal(1)
	mock.ExpectTxPipelineExec()

	err := s.FoldOutcome(context.Background(), "c_office_toner", models.SiteOutcome{
		SiteID: "staples",
		Counters: models.OutcomeCounters{
			Runs:    2,
			Success: 1,
			Blocked: 1,
			// unsupported, error and not_found deltas are zero and must
			// not reach the wire
		},
		LatencySumMS:   1800,
		LatencySamples: 1,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFoldOutcome_TransportFailureSurfaces(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewIntentStatStore(client, newTestLogger(t))

	mock.ExpectTxPipeline()
	mock.ExpectHIncrBy("intent:c_office_toner:staples", "runs_count", 1).
		SetErr(errors.New("connection reset"))

	err := s.FoldOutcome(context.Background(), "c_office_toner", models.SiteOutcome{
		SiteID:   "staples",
		Counters: models.OutcomeCounters{Runs: 1},
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fold intent stats")
}

func TestLoad_TransportFailureSurfaces(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewIntentStatStore(client, newTestLogger(t))

	mock.ExpectHGetAll("intent:c_office_toner:staples").
		SetErr(errors.New("connection reset"))

	_, err := s.Load(context.Background(), "c_office_toner", []string{"staples"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "load intent stats")
}
