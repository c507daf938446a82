// internal/pipeline/ranking/static.go
package ranking

import (
	"quote-orchestrator/internal/models"
	"quote-orchestrator/internal/sites"
)

// Defaults used when a candidate has no catalog row. Tuned to sit below an
// averagely healthy known site so observed sites outrank unobserved ones.
const (
	DefaultPriority     = 100
	DefaultReliability  = 0.62
	DefaultLatencyMS    = 2200
	DefaultBlockRate    = 0.35
	jsHeavyPenalty      = 180
)

// StaticScore computes the catalog-only score for a site. Disabled sites
// never reach this; callers filter them out first.
func StaticScore(siteID string, entry *models.SiteCatalogEntry) float64 {
	priority := float64(DefaultPriority)
	reliability := DefaultReliability
	blockRate := DefaultBlockRate
	latency := float64(DefaultLatencyMS)

	if entry != nil {
		priority = float64(entry.Priority)
		reliability = models.ClampReliability(entry.ReliabilityScore)
		blockRate = models.Clamp01(entry.BlockRate)
		latency = float64(entry.AvgLatencyMS)
	}

	score := 1000 - priority*3 + reliability*420 - blockRate*240 - latency/45
	if sites.IsJSHeavy(siteID) {
		score -= jsHeavyPenalty
	}
	return score
}
