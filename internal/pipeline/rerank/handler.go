// internal/pipeline/rerank/handler.go
package rerank

import (
	"context"
	"encoding/json"

	commonhttp "quote-orchestrator/internal/common/http"
	"quote-orchestrator/internal/common/logger"
	"quote-orchestrator/internal/common/metrics"
	"quote-orchestrator/internal/common/validation"
)

const (
	StageName = "rerank-sites"

	advisoryPath = "/api/ai/rerank-sites"
)

var advisorySchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"site_order"},
	"properties": map[string]interface{}{
		"site_order": validation.StringArray(),
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

// Execute offers the top-ranked sites to the advisory service for
// reordering. The merge can reorder but never drop a candidate, never
// admits an identifier outside the offered set, and never touches the tail
// beyond the cap. Any advisory failure returns the ranking unchanged.
func (h *Handler) Execute(ctx context.Context, input *Input) []string {
	if h.config.BaseURL == "" || len(input.Ranked) < 2 {
		return input.Ranked
	}

	head := input.Ranked
	var tail []string
	if len(head) > h.config.Cap {
		tail = head[h.config.Cap:]
		head = head[:h.config.Cap]
	}

	order, err := h.callAdvisory(ctx, input, head)
	if err != nil {
		h.logger.Warn("advisory rerank failed, keeping bandit order", map[string]interface{}{
			"error": err.Error(),
		})
		metrics.AdvisoryFallbacksTotal.WithLabelValues(StageName).Inc()
		return input.Ranked
	}

	merged := merge(head, order)
	return append(merged, tail...)
}

func (h *Handler) callAdvisory(ctx context.Context, input *Input, head []string) ([]string, error) {
	raw, err := h.client.PostJSON(ctx, h.config.BaseURL+advisoryPath, h.config.APIKey, advisoryRequest{
		Items:      input.Items,
		Category:   input.Category,
		Candidates: head,
	})
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
	return adv.SiteOrder, nil
}

// merge prepends the advisory ordering filtered to the offered set, then
// appends every omitted candidate in its original rank order.
func merge(head, order []string) []string {
	offered := make(map[string]bool, len(head))
	for _, s := range head {
		offered[s] = true
	}

	out := make([]string, 0, len(head))
	taken := make(map[string]bool, len(head))
	for _, s := range order {
		if offered[s] && !taken[s] {
			out = append(out, s)
			taken[s] = true
		}
	}
	for _, s := range head {
		if !taken[s] {
			out = append(out, s)
		}
	}
	return out
}
