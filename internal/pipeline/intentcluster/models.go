// internal/pipeline/intentcluster/models.go
package intentcluster

import "quote-orchestrator/internal/models"

type Input struct {
	Category models.Category   `json:"category"`
	Items    []models.LineItem `json:"items"`
}

type advisoryRequest struct {
	Category models.Category   `json:"category"`
	Items    []models.LineItem `json:"items"`
}

type advisoryResponse struct {
	ClusterKey string   `json:"cluster_key"`
	Labels     []string `json:"labels"`
	Confidence float64  `json:"confidence"`
}
