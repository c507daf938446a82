// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"time"

	"quote-orchestrator/internal/common/config"
	"quote-orchestrator/internal/common/logger"
	"quote-orchestrator/internal/common/metrics"
	"quote-orchestrator/internal/common/observability"
	"quote-orchestrator/internal/models"
	"quote-orchestrator/internal/pipeline/aggregate"
	"quote-orchestrator/internal/pipeline/candidates"
	"quote-orchestrator/internal/pipeline/classify"
	"quote-orchestrator/internal/pipeline/dispatch"
	"quote-orchestrator/internal/pipeline/intake"
	"quote-orchestrator/internal/pipeline/intentcluster"
	"quote-orchestrator/internal/pipeline/learning"
	"quote-orchestrator/internal/pipeline/ranking"
	"quote-orchestrator/internal/pipeline/rerank"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// EventSink receives the caller-facing framed events in order.
type EventSink func(ev models.StreamEvent) error

// StatLoader reads per-cluster learning stats for the candidate set.
type StatLoader interface {
	Load(ctx context.Context, clusterKey string, siteIDs []string) (map[string]models.IntentSiteStat, error)
}

// RunRecorder persists run lifecycle and per-match rows. All writes are
// best effort relative to the caller stream.
type RunRecorder interface {
	aggregate.MatchRecorder
	InsertRun(ctx context.Context, runID string, sitePlan []string) error
	UpdateRunStatus(ctx context.Context, runID string, status models.RunStatus, durationMS int64) error
}

// Orchestrator walks one quote run through the pipeline: normalize,
// classify, cluster, resolve candidates, rank, rerank, staged dispatch,
// and the learning fold.
type Orchestrator struct {
	intake     *intake.Handler
	classifier *classify.Handler
	clusterer  *intentcluster.Handler
	resolver   *candidates.Handler
	ranker     *ranking.Handler
	reranker   *rerank.Handler
	controller *dispatch.Controller
	stats      StatLoader
	runs       RunRecorder
	persister  *learning.Persister
	obs        *observability.Observability
	logger     logger.Logger
}

// Deps carries the wired collaborators into New. Obs is optional.
type Deps struct {
	Plans     candidates.PlanStore
	Catalog   candidates.CatalogStore
	Stats     StatLoader
	Runs      RunRecorder
	Persister *learning.Persister
	Obs       *observability.Observability
}

func New(cfg *config.Config, deps Deps, log logger.Logger) *Orchestrator {
	advisoryTimeout := cfg.Advisory.GetTimeout()

	classifyCfg := classify.LoadConfig()
	classifyCfg.BaseURL = cfg.Advisory.BaseURL
	classifyCfg.APIKey = cfg.Advisory.APIKey
	classifyCfg.Timeout = advisoryTimeout

	clusterCfg := intentcluster.LoadConfig()
	clusterCfg.BaseURL = cfg.Advisory.BaseURL
	clusterCfg.APIKey = cfg.Advisory.APIKey
	clusterCfg.Timeout = advisoryTimeout

	candidatesCfg := candidates.LoadConfig()
	candidatesCfg.HighConfidence = cfg.Ranking.HighConfidence

	rankingCfg := ranking.LoadConfig()
	rankingCfg.ExploreRate = cfg.Ranking.ExploreRate
	rankingCfg.ColdRunThreshold = cfg.Ranking.ColdRunThreshold

	rerankCfg := rerank.LoadConfig()
	rerankCfg.BaseURL = cfg.Advisory.BaseURL
	rerankCfg.APIKey = cfg.Advisory.APIKey
	rerankCfg.Timeout = advisoryTimeout
	rerankCfg.Cap = cfg.Ranking.RerankCap

	dispatchCfg := dispatch.LoadConfig()
	dispatchCfg.StreamURL = cfg.Scrape.StreamURL
	dispatchCfg.BulkURL = cfg.Scrape.BulkURL
	dispatchCfg.Timeout = cfg.Scrape.GetTimeout()
	dispatchCfg.HighConfidence = cfg.Ranking.HighConfidence
	dispatchCfg.CacheTTL = cfg.Scrape.CacheTTL

	controller := dispatch.NewController(dispatchCfg, log)
	if deps.Obs != nil {
		controller.SetWaveRecorder(deps.Obs)
	}

	return &Orchestrator{
		intake:     intake.NewHandler(log),
		classifier: classify.NewHandler(classifyCfg, log),
		clusterer:  intentcluster.NewHandler(clusterCfg, log),
		resolver:   candidates.NewHandler(candidatesCfg, deps.Plans, deps.Catalog, log),
		ranker:     ranking.NewHandler(rankingCfg, log),
		reranker:   rerank.NewHandler(rerankCfg, log),
		controller: controller,
		stats:      deps.Stats,
		runs:       deps.Runs,
		persister:  deps.Persister,
		obs:        deps.Obs,
		logger:     log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// Run executes one quote run, streaming events to the sink. A returned
// error before the first event means the request never started; after the
// started event, failures surface as a terminal error event instead.
func (o *Orchestrator) Run(ctx context.Context, req *models.QuoteRunRequest, sink EventSink) error {
	tracer := otel.Tracer("quote-orchestrator")
	ctx, span := tracer.Start(ctx, "quote.run")
	defer span.End()

	normalized, err := o.intake.Execute(ctx, &intake.Input{Items: req.Items, InputType: req.InputType})
	if err != nil {
		return err
	}
	items := normalized.Items

	runID := req.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	span.SetAttributes(
		attribute.String("run.id", runID),
		attribute.Int("run.items", len(items)),
	)
	log := o.logger.WithFields(map[string]interface{}{"runId": runID})
	started := time.Now()

	if err := sink(models.StreamEvent{
		Type:      models.EventStarted,
		RunID:     runID,
		StartedAt: started.UTC().Format(time.RFC3339),
	}); err != nil {
		return err
	}

	cls := o.classifier.Execute(ctx, &classify.Input{Items: items})
	span.SetAttributes(attribute.String("run.category", string(cls.Category)))

	cluster := o.clusterer.Execute(ctx, &intentcluster.Input{Category: cls.Category, Items: cls.NormalizedItems})

	resolved, err := o.resolver.Execute(ctx, &candidates.Input{Classification: cls})
	if err != nil {
		return o.fail(ctx, log, sink, runID, started, err)
	}

	stats, err := o.stats.Load(ctx, cluster.ClusterKey, resolved.Candidates)
	if err != nil {
		log.Warn("stat load failed, ranking without cluster history", map[string]interface{}{
			"clusterKey": cluster.ClusterKey,
			"error":      err.Error(),
		})
		stats = map[string]models.IntentSiteStat{}
	}

	ranked, err := o.ranker.Execute(ctx, &ranking.Input{
		RunID:      runID,
		Candidates: resolved.Candidates,
		Catalog:    resolved.Catalog,
		Stats:      stats,
	})
	if err != nil {
		return o.fail(ctx, log, sink, runID, started, err)
	}

	plan := o.reranker.Execute(ctx, &rerank.Input{
		Items:    cls.NormalizedItems,
		Category: cls.Category,
		Ranked:   ranked.Ranked,
	})

	if err := o.runs.InsertRun(ctx, runID, plan); err != nil {
		log.Warn("run insert failed", map[string]interface{}{"error": err.Error()})
	}

	agg := aggregate.NewAggregator(ctx, runID, items, sink, o.runs, log)

	result, dispatchErr := o.controller.Execute(ctx, &dispatch.Request{
		RunID:         runID,
		Items:         items,
		Category:      cls.Category,
		Confidence:    cls.Confidence,
		SiteOverrides: req.SiteOverrides,
		CacheTTL:      req.CacheTTL,
	}, plan, agg)

	// the learning fold runs on success or partial results alike; a probe
	// failure simply has nothing to fold
	o.persister.Persist(ctx, runID, cluster.ClusterKey, agg.Outcomes())

	if dispatchErr != nil {
		return o.fail(ctx, log, sink, runID, started, dispatchErr)
	}

	duration := time.Since(started)
	metrics.QuoteRunsTotal.WithLabelValues(string(models.RunStatusDone)).Inc()
	metrics.QuoteRunDuration.Observe(duration.Seconds())
	if o.obs != nil {
		o.obs.RecordRun(ctx, string(models.RunStatusDone))
	}

	if err := o.runs.UpdateRunStatus(ctx, runID, models.RunStatusDone, duration.Milliseconds()); err != nil {
		log.Warn("run status update failed", map[string]interface{}{"error": err.Error()})
	}

	log.Info("run finished", map[string]interface{}{
		"durationMs": duration.Milliseconds(),
		"expanded":   result.Expanded,
		"sites":      len(plan),
	})

	return sink(models.StreamEvent{
		Type:       models.EventDone,
		RunID:      runID,
		DurationMS: duration.Milliseconds(),
	})
}

// fail emits the terminal error event and persists the error status.
func (o *Orchestrator) fail(ctx context.Context, log logger.Logger, sink EventSink, runID string, started time.Time, cause error) error {
	duration := time.Since(started)
	metrics.QuoteRunsTotal.WithLabelValues(string(models.RunStatusError)).Inc()
	if o.obs != nil {
		o.obs.RecordRun(ctx, string(models.RunStatusError))
	}

	log.Error("run failed", map[string]interface{}{
		"durationMs": duration.Milliseconds(),
		"error":      cause.Error(),
	})

	if err := o.runs.UpdateRunStatus(ctx, runID, models.RunStatusError, duration.Milliseconds()); err != nil {
		log.Warn("run status update failed", map[string]interface{}{"error": err.Error()})
	}

	if err := sink(models.StreamEvent{
		Type:    models.EventError,
		RunID:   runID,
		Message: cause.Error(),
	}); err != nil {
		return err
	}
	return cause
}
