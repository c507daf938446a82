// internal/store/redis.go
package store

import (
	"context"
	"fmt"
	"strconv"

	"quote-orchestrator/internal/common/logger"
	"quote-orchestrator/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	// Stat defaults applied when a (cluster, site) hash has no samples.
	defaultStatLatencyMS = 2200
)

// IntentStatStore keeps the per-cluster learning counters in Redis hashes,
// one hash per (cluster_key, site_id). Folds use HINCRBY so concurrent
// runs touching the same key cannot lose increments.
type IntentStatStore struct {
	client *redis.Client
	logger logger.Logger
}

func NewIntentStatStore(client *redis.Client, log logger.Logger) *IntentStatStore {
	return &IntentStatStore{client: client, logger: log}
}

func statKey(clusterKey, siteID string) string {
	return fmt.Sprintf("intent:%s:%s", clusterKey, siteID)
}

// Load reads the stat rows for the candidate set. Sites with no history
// are absent from the map; the ranker applies its own defaults.
func (s *IntentStatStore) Load(ctx context.Context, clusterKey string, siteIDs []string) (map[string]models.IntentSiteStat, error) {
	if len(siteIDs) == 0 {
		return map[string]models.IntentSiteStat{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(siteIDs))
	for i, siteID := range siteIDs {
		cmds[i] = pipe.HGetAll(ctx, statKey(clusterKey, siteID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("load intent stats: %w", err)
	}

	out := make(map[string]models.IntentSiteStat, len(siteIDs))
	for i, siteID := range siteIDs {
		fields, err := cmds[i].Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		stat := parseStat(clusterKey, siteID, fields)
		if stat.Counters.Runs > 0 {
			out[siteID] = stat
		}
	}
	return out, nil
}

// FoldOutcome atomically increments the counters for one site within the
// cluster bucket.
func (s *IntentStatStore) FoldOutcome(ctx context.Context, clusterKey string, o models.SiteOutcome) error {
	key := statKey(clusterKey, o.SiteID)
	c := o.Counters

	pipe := s.client.TxPipeline()
	incr := func(field string, by int64) {
		if by != 0 {
			pipe.HIncrBy(ctx, key, field, by)
		}
	}
	incr("runs_count", c.Runs)
	incr("success_count", c.Success)
	incr("blocked_count", c.Blocked)
	incr("unsupported_count", c.Unsupported)
	incr("error_count", c.Errors)
	incr("not_found_count", c.NotFound)
	incr("latency_ms_total", o.LatencySumMS)
	incr("latency_samples", o.LatencySamples)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("fold intent stats: %w", err)
	}
	return nil
}

// parseStat derives the rate fields from raw counters, clamped the same
// way the catalog rates are.
func parseStat(clusterKey, siteID string, fields map[string]string) models.IntentSiteStat {
	get := func(field string) int64 {
		v, _ := strconv.ParseInt(fields[field], 10, 64)
		return v
	}

	counters := models.OutcomeCounters{
		Runs:        get("runs_count"),
		Success:     get("success_count"),
		Blocked:     get("blocked_count"),
		Unsupported: get("unsupported_count"),
		Errors:      get("error_count"),
		NotFound:    get("not_found_count"),
	}

	stat := models.IntentSiteStat{
		ClusterKey:   clusterKey,
		SiteID:       siteID,
		AvgLatencyMS: defaultStatLatencyMS,
		Counters:     counters,
	}

	if counters.Runs > 0 {
		stat.SuccessRate = models.ClampReliability(float64(counters.Success) / float64(counters.Runs))
		stat.BlockRate = models.Clamp01(float64(counters.Blocked+counters.Unsupported) / float64(counters.Runs))
	}

	if samples := get("latency_samples"); samples > 0 {
		stat.AvgLatencyMS = get("latency_ms_total") / samples
	}
	return stat
}
