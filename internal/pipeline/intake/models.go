// internal/pipeline/intake/models.go
package intake

import "quote-orchestrator/internal/models"

type Input struct {
	Items     []models.LineItem `json:"items"`
	InputType models.InputType  `json:"input_type"`
}

type Output struct {
	Items []models.LineItem `json:"items"`
}
