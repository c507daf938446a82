// internal/pipeline/classify/models.go
package classify

import "quote-orchestrator/internal/models"

type Input struct {
	Items []models.LineItem `json:"items"`
}

type advisoryRequest struct {
	Items []models.LineItem `json:"items"`
}

type advisoryResponse struct {
	NormalizedItems    []models.LineItem `json:"normalized_items"`
	Category           string            `json:"category"`
	CategoryCandidates []string          `json:"category_candidates"`
	QueryVariants      []string          `json:"query_variants"`
	Confidence         float64           `json:"confidence"`
	SitePlan           []string          `json:"site_plan"`
}
