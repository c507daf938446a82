// internal/pipeline/ranking/handler.go
package ranking

import (
	"context"
	"hash/fnv"
	"math"
	"sort"

	"quote-orchestrator/internal/common/logger"
	"quote-orchestrator/internal/models"
)

const (
	StageName = "bandit-rank"

	// Per-cluster stat defaults when a (cluster, site) pair has no history.
	DefaultSuccessRate    = 0.55
	DefaultStatBlockRate  = 0.35
	DefaultStatLatencyMS  = 2200

	exploreSpliceMinSize = 5 // shuffle only when more than 4 candidates
	exploreColdPicks     = 2
	exploreWarmPrefix    = 3
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

// Execute ranks the candidate set by blended score: static catalog score,
// per-cluster intent signal, and a UCB1-style exploration bonus. Disabled
// sites are filtered out entirely. The result is fully deterministic for a
// given run id, catalog state, and cluster stats.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var totalClusterRuns int64
	for _, siteID := range input.Candidates {
		if stat, ok := input.Stats[siteID]; ok {
			totalClusterRuns += stat.Counters.Runs
		}
	}

	scored := make([]ScoredSite, 0, len(input.Candidates))
	for _, siteID := range input.Candidates {
		var entry *models.SiteCatalogEntry
		if e, ok := input.Catalog[siteID]; ok {
			if !e.Enabled {
				continue
			}
			entry = &e
		}

		successRate := DefaultSuccessRate
		blockRate := DefaultStatBlockRate
		latency := float64(DefaultStatLatencyMS)
		var siteRuns int64
		if stat, ok := input.Stats[siteID]; ok {
			successRate = stat.SuccessRate
			blockRate = stat.BlockRate
			latency = float64(stat.AvgLatencyMS)
			siteRuns = stat.Counters.Runs
		}

		static := StaticScore(siteID, entry)
		intent := successRate*260 - blockRate*200 - latency/80
		explore := 95 * math.Sqrt(math.Log(float64(totalClusterRuns)+2)/float64(siteRuns+1))

		scored = append(scored, ScoredSite{
			SiteID:       siteID,
			StaticScore:  static,
			IntentSignal: intent,
			ExploreBonus: explore,
			TotalScore:   static + intent + explore,
			ClusterRuns:  siteRuns,
		})
	}

	// Stable sort keeps candidate resolution order on exact ties, which
	// keeps the ranking reproducible.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].TotalScore > scored[j].TotalScore
	})

	explored := false
	if len(scored) >= exploreSpliceMinSize && hashFloat(input.RunID) < h.config.ExploreRate {
		scored, explored = h.exploreSplice(scored)
	}

	ranked := make([]string, len(scored))
	for i, s := range scored {
		ranked[i] = s.SiteID
	}

	h.logger.Debug("ranked candidates", map[string]interface{}{
		"runId":    input.RunID,
		"count":    len(ranked),
		"explored": explored,
	})

	return &Output{Ranked: ranked, Scores: scored, Explored: explored}, nil
}

// exploreSplice pulls up to 2 of the best-scored cold sites and reinserts
// them immediately after the top 3 warm sites. Everything else keeps its
// relative order.
func (h *Handler) exploreSplice(sorted []ScoredSite) ([]ScoredSite, bool) {
	cold := func(s ScoredSite) bool { return s.ClusterRuns < h.config.ColdRunThreshold }

	chosen := make([]ScoredSite, 0, exploreColdPicks)
	rest := make([]ScoredSite, 0, len(sorted))
	for _, s := range sorted {
		if cold(s) && len(chosen) < exploreColdPicks {
			chosen = append(chosen, s)
			continue
		}
		rest = append(rest, s)
	}
	if len(chosen) == 0 {
		return sorted, false
	}

	cut := len(rest)
	warmSeen := 0
	for i, s := range rest {
		if !cold(s) {
			warmSeen++
			if warmSeen == exploreWarmPrefix {
				cut = i + 1
				break
			}
		}
	}

	out := make([]ScoredSite, 0, len(sorted))
	out = append(out, rest[:cut]...)
	out = append(out, chosen...)
	out = append(out, rest[cut:]...)
	return out, true
}

// hashFloat maps a run id onto [0,1) through a pure FNV-1a hash, so the
// exploration decision is reproducible from the run id alone.
func hashFloat(runID string) float64 {
	h := fnv.New64a()
	h.Write([]byte(runID))
	return float64(h.Sum64()>>11) / float64(uint64(1)<<53)
}
