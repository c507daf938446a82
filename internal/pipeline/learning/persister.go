// internal/pipeline/learning/persister.go
package learning

import (
	"context"
	"time"

	"quote-orchestrator/internal/common/logger"
	"quote-orchestrator/internal/common/metrics"
	"quote-orchestrator/internal/models"
)

const (
	StageName = "learning-fold"
)

// CatalogFolder additively folds one run's counters into the global
// catalog row for a site.
type CatalogFolder interface {
	FoldOutcome(ctx context.Context, outcome models.SiteOutcome) error
}

// StatFolder applies the same fold to the per-cluster stat row keyed by
// (cluster_key, site_id).
type StatFolder interface {
	FoldOutcome(ctx context.Context, clusterKey string, outcome models.SiteOutcome) error
}

// InteractionIndexer appends interaction-log documents. Optional.
type InteractionIndexer interface {
	IndexInteraction(ctx context.Context, record models.InteractionRecord) error
}

// Persister runs once per completed run, success or partial. Every write
// is best effort: the caller-facing stream never depends on it, so
// failures are counted and swallowed rather than retried.
type Persister struct {
	catalog CatalogFolder
	stats   StatFolder
	indexer InteractionIndexer
	logger  logger.Logger
}

func NewPersister(catalog CatalogFolder, stats StatFolder, indexer InteractionIndexer, log logger.Logger) *Persister {
	return &Persister{
		catalog: catalog,
		stats:   stats,
		indexer: indexer,
		logger:  log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

// Persist folds the run's per-site outcomes into the catalog and the
// cluster-scoped stats, then appends interaction-log records.
func (p *Persister) Persist(ctx context.Context, runID, clusterKey string, outcomes []models.SiteOutcome) {
	now := time.Now().UTC()

	for _, outcome := range outcomes {
		if outcome.Counters.Runs == 0 {
			continue
		}

		if err := p.catalog.FoldOutcome(ctx, outcome); err != nil {
			metrics.LearningFoldFailures.WithLabelValues("catalog").Inc()
			p.logger.Warn("catalog fold failed", map[string]interface{}{
				"runId": runID,
				"site":  outcome.SiteID,
				"error": err.Error(),
			})
		}

		if err := p.stats.FoldOutcome(ctx, clusterKey, outcome); err != nil {
			metrics.LearningFoldFailures.WithLabelValues("intent_stats").Inc()
			p.logger.Warn("cluster stat fold failed", map[string]interface{}{
				"runId":      runID,
				"clusterKey": clusterKey,
				"site":       outcome.SiteID,
				"error":      err.Error(),
			})
		}

		if p.indexer != nil {
			record := models.InteractionRecord{
				RunID:      runID,
				ClusterKey: clusterKey,
				SiteID:     outcome.SiteID,
				Counters:   outcome.Counters,
				Timestamp:  now,
			}
			if err := p.indexer.IndexInteraction(ctx, record); err != nil {
				metrics.LearningFoldFailures.WithLabelValues("interactions").Inc()
				p.logger.Warn("interaction index failed", map[string]interface{}{
					"runId": runID,
					"site":  outcome.SiteID,
					"error": err.Error(),
				})
			}
		}
	}
}
