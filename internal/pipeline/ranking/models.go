// internal/pipeline/ranking/models.go
package ranking

import "quote-orchestrator/internal/models"

type Input struct {
	RunID      string
	Candidates []string
	Catalog    map[string]models.SiteCatalogEntry
	Stats      map[string]models.IntentSiteStat
}

// ScoredSite carries the score decomposition for one candidate, mostly for
// logging and tests.
type ScoredSite struct {
	SiteID       string
	StaticScore  float64
	IntentSignal float64
	ExploreBonus float64
	TotalScore   float64
	ClusterRuns  int64
}

type Output struct {
	// Ranked is a permutation of the enabled candidates, best first.
	Ranked []string
	// Scores mirrors Ranked.
	Scores []ScoredSite
	// Explored reports whether the cold-site splice fired for this run.
	Explored bool
}
