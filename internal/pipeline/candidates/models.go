// internal/pipeline/candidates/models.go
package candidates

import (
	"context"

	"quote-orchestrator/internal/models"
)

// PlanStore reads the persisted category to site-list mapping. Injected so
// tests can substitute fixtures.
type PlanStore interface {
	GetCategorySites(ctx context.Context, category models.Category) ([]string, error)
}

// CatalogStore reads per-site metadata rows for a candidate set.
type CatalogStore interface {
	GetEntries(ctx context.Context, siteIDs []string) (map[string]models.SiteCatalogEntry, error)
}

type Input struct {
	Classification *models.ClassificationResult
}

type Output struct {
	// Candidates is the sanitized, deduplicated union in resolution order.
	Candidates []string
	// Catalog holds the rows found for the candidate set; missing sites
	// score on defaults.
	Catalog map[string]models.SiteCatalogEntry
}
