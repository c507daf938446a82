// internal/pipeline/intentcluster/handler.go
package intentcluster

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	commonhttp "quote-orchestrator/internal/common/http"
	"quote-orchestrator/internal/common/logger"
	"quote-orchestrator/internal/common/metrics"
	"quote-orchestrator/internal/common/validation"
	"quote-orchestrator/internal/models"
)

const (
	StageName = "cluster-intent"

	advisoryPath = "/api/ai/cluster-intent"

	// maxKeyTokens bounds the fallback cluster key length.
	maxKeyTokens = 4
)

var advisorySchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"cluster_key"},
	"properties": map[string]interface{}{
		"cluster_key": map[string]interface{}{"type": "string"},
		"labels":      validation.StringArray(),
		"confidence":  map[string]interface{}{"type": "number"},
	},
}

// stopwords are skipped when building the fallback cluster key.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"for": true, "with": true, "of": true, "to": true, "in": true,
	"on": true, "per": true, "new": true, "buy": true, "bulk": true,
	"pack": true, "pcs": true, "set": true,
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

// Execute resolves the statistics bucket key for this request. The advisory
// service is tried first; the fallback is a pure function of category and
// normalized items so identical requests always land in the same bucket.
func (h *Handler) Execute(ctx context.Context, input *Input) *models.IntentCluster {
	if h.config.BaseURL != "" {
		cluster, err := h.callAdvisory(ctx, input)
		if err == nil {
			return cluster
		}
		h.logger.Warn("advisory clustering failed, using token fallback", map[string]interface{}{
			"error": err.Error(),
		})
		metrics.AdvisoryFallbacksTotal.WithLabelValues(StageName).Inc()
	}

	return h.fallback(input)
}

func (h *Handler) callAdvisory(ctx context.Context, input *Input) (*models.IntentCluster, error) {
	raw, err := h.client.PostJSON(ctx, h.config.BaseURL+advisoryPath, h.config.APIKey, advisoryRequest{Category: input.Category, Items: input.Items})
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

	key := strings.TrimSpace(adv.ClusterKey)
	if key == "" {
		return nil, fmt.Errorf("advisory clustering returned empty key")
	}

	return &models.IntentCluster{
		ClusterKey: key,
		Labels:     adv.Labels,
		Confidence: models.Clamp01(adv.Confidence),
		Source:     models.SourceAdvisory,
	}, nil
}

// fallback derives the key from the category plus the 4 most significant
// tokens across all item queries. Significance ranks by frequency, then
// token length, then lexicographic order; the chosen tokens are sorted
// before joining so wording order does not change the bucket.
func (h *Handler) fallback(input *Input) *models.IntentCluster {
	counts := make(map[string]int)
	for _, item := range input.Items {
		for _, token := range strings.Fields(strings.ToLower(item.Query)) {
			token = strings.Trim(token, ".,;:!?()[]\"'-")
			if len(token) < 3 || stopwords[token] {
				continue
			}
			counts[token]++
		}
	}

	ranked := make([]string, 0, len(counts))
	for token := range counts {
		ranked = append(ranked, token)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		if len(ranked[i]) != len(ranked[j]) {
			return len(ranked[i]) > len(ranked[j])
		}
		return ranked[i] < ranked[j]
	})

	if len(ranked) > maxKeyTokens {
		ranked = ranked[:maxKeyTokens]
	}
	chosen := append([]string(nil), ranked...)
	sort.Strings(chosen)

	parts := append([]string{"c", string(input.Category)}, chosen...)

	return &models.IntentCluster{
		ClusterKey: strings.Join(parts, "_"),
		Labels:     chosen,
		Confidence: h.config.FallbackConfidence,
		Source:     models.SourceFallback,
	}
}
