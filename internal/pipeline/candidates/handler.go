// internal/pipeline/candidates/handler.go
package candidates

import (
	"context"

	"quote-orchestrator/internal/common/logger"
	"quote-orchestrator/internal/models"
	"quote-orchestrator/internal/sites"
)

const (
	StageName = "resolve-candidates"
)

type Handler struct {
	config  *Config
	plans   PlanStore
	catalog CatalogStore
	logger  logger.Logger
}

func NewHandler(config *Config, plans PlanStore, catalog CatalogStore, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		plans:   plans,
		catalog: catalog,
		logger:  log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

// Execute unions the persisted per-category site plans with the generic
// fallback list and any advisory hints, sanitizes against the known-site
// whitelist, and loads catalog rows for the survivors. Store failures
// degrade rather than abort: a failed plan read contributes nothing, a
// failed catalog read yields an empty map so scoring runs on defaults.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	cls := input.Classification

	union := make([]string, 0, 16)
	union = append(union, h.planFor(ctx, cls.Category)...)

	if cls.Confidence < h.config.HighConfidence {
		alternates := cls.CategoryCandidates
		if len(alternates) > h.config.MaxAlternates {
			alternates = alternates[:h.config.MaxAlternates]
		}
		for _, alt := range alternates {
			union = append(union, h.planFor(ctx, alt)...)
		}
	}

	union = append(union, sites.FallbackPlan()...)
	union = append(union, cls.SitePlanHints...)

	candidates := sites.Sanitize(union)
	if len(candidates) == 0 {
		candidates = sites.Sanitize(sites.FallbackPlan())
	}

	catalog, err := h.catalog.GetEntries(ctx, candidates)
	if err != nil {
		h.logger.Warn("catalog load failed, scoring on defaults", map[string]interface{}{
			"error":      err.Error(),
			"candidates": len(candidates),
		})
		catalog = map[string]models.SiteCatalogEntry{}
	}

	return &Output{Candidates: candidates, Catalog: catalog}, nil
}

func (h *Handler) planFor(ctx context.Context, category models.Category) []string {
	if category == models.CategoryUnknown {
		return nil
	}
	plan, err := h.plans.GetCategorySites(ctx, category)
	if err != nil {
		h.logger.Warn("category plan load failed", map[string]interface{}{
			"category": category,
			"error":    err.Error(),
		})
		return nil
	}
	return plan
}
