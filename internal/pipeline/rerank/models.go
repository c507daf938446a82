// internal/pipeline/rerank/models.go
package rerank

import "quote-orchestrator/internal/models"

type Input struct {
	Items    []models.LineItem
	Category models.Category
	Ranked   []string
}

type advisoryRequest struct {
	Items      []models.LineItem `json:"items"`
	Category   models.Category   `json:"category"`
	Candidates []string          `json:"candidates"`
}

type advisoryResponse struct {
	SiteOrder []string `json:"site_order"`
}
