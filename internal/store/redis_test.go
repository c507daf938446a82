// internal/store/redis_test.go
package store

import (
	"context"
	"testing"

	"quote-orchestrator/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func siteOutcome(site string, runs, success, blocked int64) models.SiteOutcome {
	return models.SiteOutcome{
		SiteID: site,
		Counters: models.OutcomeCounters{
			Runs:    runs,
			Success: success,
			Blocked: blocked,
		},
	}
}

// ==========================
// IntentStatStore Tests
// ==========================

func TestFoldOutcome_CountersAccumulateAcrossRuns(t *testing.T) {
	_, client := setupMiniredis(t)
	s := NewIntentStatStore(client, newTestLogger(t))
	ctx := context.Background()

	// run A: runs=3 success=2, then run B: runs=2 success=1
	assert.NoError(t, s.FoldOutcome(ctx, "c_office_toner", siteOutcome("staples", 3, 2, 0)))
	assert.NoError(t, s.FoldOutcome(ctx, "c_office_toner", siteOutcome("staples", 2, 1, 0)))

	stats, err := s.Load(ctx, "c_office_toner", []string{"staples"})
	assert.NoError(t, err)

	stat := stats["staples"]
	assert.Equal(t, int64(5), stat.Counters.Runs)
	assert.Equal(t, int64(3), stat.Counters.Success)
	assert.InDelta(t, 0.6, stat.SuccessRate, 0.001)
}

func TestLoad_SuccessRateClampedAtExtremes(t *testing.T) {
	_, client := setupMiniredis(t)
	s := NewIntentStatStore(client, newTestLogger(t))
	ctx := context.Background()

	assert.NoError(t, s.FoldOutcome(ctx, "key", siteOutcome("allfail", 5, 0, 5)))
	assert.NoError(t, s.FoldOutcome(ctx, "key", siteOutcome("allwin", 5, 5, 0)))

	stats, err := s.Load(ctx, "key", []string{"allfail", "allwin"})
	assert.NoError(t, err)

	assert.Equal(t, 0.02, stats["allfail"].SuccessRate)
	assert.Equal(t, 0.99, stats["allwin"].SuccessRate)
	assert.Equal(t, 1.0, stats["allfail"].BlockRate)
}

func TestLoad_LatencyAverageFromSamples(t *testing.T) {
	_, client := setupMiniredis(t)
	s := NewIntentStatStore(client, newTestLogger(t))
	ctx := context.Background()

	outcome := siteOutcome("staples", 2, 2, 0)
	outcome.LatencySumMS = 3000
	outcome.LatencySamples = 2
	assert.NoError(t, s.FoldOutcome(ctx, "key", outcome))

	stats, err := s.Load(ctx, "key", []string{"staples"})
	assert.NoError(t, err)
	assert.Equal(t, int64(1500), stats["staples"].AvgLatencyMS)
}

func TestLoad_NoHistoryMeansAbsent(t *testing.T) {
	_, client := setupMiniredis(t)
	s := NewIntentStatStore(client, newTestLogger(t))

	stats, err := s.Load(context.Background(), "key", []string{"staples", "quill"})
	assert.NoError(t, err)
	assert.Empty(t, stats)
}

func TestLoad_KeysAreClusterScoped(t *testing.T) {
	_, client := setupMiniredis(t)
	s := NewIntentStatStore(client, newTestLogger(t))
	ctx := context.Background()

	assert.NoError(t, s.FoldOutcome(ctx, "cluster-a", siteOutcome("staples", 4, 4, 0)))

	stats, err := s.Load(ctx, "cluster-b", []string{"staples"})
	assert.NoError(t, err)
	assert.Empty(t, stats)
}
