// internal/pipeline/classify/handler.go
package classify

import (
	"context"
	"encoding/json"
	"strings"

	commonhttp "quote-orchestrator/internal/common/http"
	"quote-orchestrator/internal/common/logger"
	"quote-orchestrator/internal/common/metrics"
	"quote-orchestrator/internal/common/validation"
	"quote-orchestrator/internal/models"
	"quote-orchestrator/internal/sites"
)

const (
	StageName = "classify-items"

	advisoryPath = "/api/ai/classify-items"
)

// advisorySchema is the strict contract for the classifier service. Any
// deviation routes to the keyword fallback.
var advisorySchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"category", "confidence"},
	"properties": map[string]interface{}{
		"category":            map[string]interface{}{"type": "string"},
		"confidence":          map[string]interface{}{"type": "number"},
		"category_candidates": validation.StringArray(),
		"query_variants":      validation.StringArray(),
		"site_plan":           validation.StringArray(),
		"normalized_items": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"query"},
				"properties": map[string]interface{}{
					"query": map[string]interface{}{"type": "string"},
					"qty":   map[string]interface{}{"type": "integer"},
				},
			},
		},
	},
}

type Handler struct {
	config *Config
	client *commonhttp.Client
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: commonhttp.NewClient(config.Timeout),
		logger: log.WithFields(map[string]interface{}{"stage": StageName}),
	}
}

// Execute classifies the normalized items. The advisory service is
// consulted first; on any failure the deterministic keyword fallback
// answers instead, so this stage never fails the run.
func (h *Handler) Execute(ctx context.Context, input *Input) *models.ClassificationResult {
	if h.config.BaseURL != "" {
		result, err := h.callAdvisory(ctx, input)
		if err == nil {
			return result
		}
		h.logger.Warn("advisory classify failed, using keyword fallback", map[string]interface{}{
			"error": err.Error(),
		})
		metrics.AdvisoryFallbacksTotal.WithLabelValues(StageName).Inc()
	}

	return h.fallback(input)
}

func (h *Handler) callAdvisory(ctx context.Context, input *Input) (*models.ClassificationResult, error) {
	raw, err := h.client.PostJSON(ctx, h.config.BaseURL+advisoryPath, h.config.APIKey, advisoryRequest{Items: input.Items})
	if err != nil {
		return nil, err
	}

	if err := validation.Validate(advisorySchema, raw); err != nil {
		return nil, err
	}

	rawBytes, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var adv advisoryResponse
	if err := json.Unmarshal(rawBytes, &adv); err != nil {
		return nil, err
	}

	normalized := input.Items
	if len(adv.NormalizedItems) > 0 {
		normalized = adv.NormalizedItems
	}

	return &models.ClassificationResult{
		Category:           sites.ParseCategory(adv.Category),
		CategoryCandidates: parseCandidates(adv.CategoryCandidates),
		Confidence:         models.Clamp01(adv.Confidence),
		NormalizedItems:    normalized,
		QueryVariants:      adv.QueryVariants,
		SitePlanHints:      adv.SitePlan,
		Source:             models.SourceAdvisory,
	}, nil
}

// fallback is the deterministic keyword-overlap classifier over the fixed
// term table. Ties resolve to unknown.
func (h *Handler) fallback(input *Input) *models.ClassificationResult {
	counts := make(map[models.Category]int)
	for _, category := range sites.Categories() {
		counts[category] = overlapCount(input.Items, sites.CategoryTerms(category))
	}

	winner := models.CategoryUnknown
	best := 0
	tied := false
	for _, category := range sites.Categories() {
		switch {
		case counts[category] > best:
			winner = category
			best = counts[category]
			tied = false
		case counts[category] == best && best > 0:
			tied = true
		}
	}
	if tied || best == 0 {
		winner = models.CategoryUnknown
	}

	candidates := make([]models.Category, 0, 3)
	for _, category := range sites.Categories() {
		if category != winner && counts[category] > 0 && len(candidates) < 3 {
			candidates = append(candidates, category)
		}
	}

	return &models.ClassificationResult{
		Category:           winner,
		CategoryCandidates: candidates,
		Confidence:         h.config.FallbackConfidence,
		NormalizedItems:    input.Items,
		Source:             models.SourceFallback,
	}
}

// overlapCount counts term hits across all item queries, token-exact.
func overlapCount(items []models.LineItem, terms []string) int {
	termSet := make(map[string]bool, len(terms))
	for _, t := range terms {
		termSet[t] = true
	}

	count := 0
	for _, item := range items {
		for _, token := range strings.Fields(strings.ToLower(item.Query)) {
			token = strings.Trim(token, ".,;:!?()[]\"'")
			if termSet[token] {
				count++
			}
		}
	}
	return count
}

func parseCandidates(raw []string) []models.Category {
	seen := make(map[models.Category]bool)
	out := make([]models.Category, 0, len(raw))
	for _, r := range raw {
		c := sites.ParseCategory(r)
		if c == models.CategoryUnknown || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
