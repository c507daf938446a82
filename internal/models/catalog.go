// internal/models/catalog.go
package models

import "time"

// Category is the closed classification set plus "unknown".
type Category string

const (
	CategoryOffice       Category = "office"
	CategoryElectronics  Category = "electronics"
	CategoryRestaurant   Category = "restaurant"
	CategoryIndustrial   Category = "industrial"
	CategoryConstruction Category = "construction"
	CategoryUnknown      Category = "unknown"
)

// ClassificationSource tags whether a classification came from the advisory
// service or from the deterministic fallback.
type ClassificationSource string

const (
	SourceAdvisory ClassificationSource = "advisory"
	SourceFallback ClassificationSource = "fallback"
)

// ClassificationResult is the output of the category classifier.
type ClassificationResult struct {
	Category           Category             `json:"category"`
	CategoryCandidates []Category           `json:"category_candidates"`
	Confidence         float64              `json:"confidence"`
	NormalizedItems    []LineItem           `json:"normalized_items"`
	QueryVariants      []string             `json:"query_variants,omitempty"`
	SitePlanHints      []string             `json:"site_plan,omitempty"`
	Source             ClassificationSource `json:"source"`
}

// IntentCluster buckets semantically similar requests for learning.
type IntentCluster struct {
	ClusterKey string               `json:"cluster_key"`
	Labels     []string             `json:"labels"`
	Confidence float64              `json:"confidence"`
	Source     ClassificationSource `json:"source"`
}

// OutcomeCounters is the additive counter block shared by the global catalog
// entry and the per-cluster stat row. All counters are monotonically
// non-decreasing across a row's lifetime.
type OutcomeCounters struct {
	Runs        int64 `json:"runs_count"`
	Success     int64 `json:"success_count"`
	Blocked     int64 `json:"blocked_count"`
	Unsupported int64 `json:"unsupported_count"`
	Errors      int64 `json:"error_count"`
	NotFound    int64 `json:"not_found_count"`
}

// Add folds another counter block into this one.
func (c *OutcomeCounters) Add(o OutcomeCounters) {
	c.Runs += o.Runs
	c.Success += o.Success
	c.Blocked += o.Blocked
	c.Unsupported += o.Unsupported
	c.Errors += o.Errors
	c.NotFound += o.NotFound
}

// SiteCatalogEntry is the persisted per-site metadata row.
type SiteCatalogEntry struct {
	SiteID            string    `json:"site_id"`
	Category          Category  `json:"category"`
	Domain            string    `json:"domain"`
	SearchURLTemplate string    `json:"search_url_template"`
	Enabled           bool      `json:"enabled"`
	Priority          int       `json:"priority"`
	ReliabilityScore  float64   `json:"reliability_score"`
	BlockRate         float64   `json:"block_rate"`
	AvgLatencyMS      int64     `json:"avg_latency_ms"`
	Counters          OutcomeCounters
	LastSeenAt        time.Time `json:"last_seen_at"`
}

// IntentSiteStat is scoped learning for one (cluster_key, site_id) pair.
type IntentSiteStat struct {
	ClusterKey   string  `json:"cluster_key"`
	SiteID       string  `json:"site_id"`
	SuccessRate  float64 `json:"success_rate"`
	BlockRate    float64 `json:"block_rate"`
	AvgLatencyMS int64   `json:"avg_latency_ms"`
	Counters     OutcomeCounters
}

// SiteOutcome is what one run observed for one site, fed to the learning
// persister at the end of the run.
type SiteOutcome struct {
	SiteID         string
	Counters       OutcomeCounters
	LatencySumMS   int64
	LatencySamples int64
}

// InteractionRecord is the append-only interaction-log document written
// per (run, site) after the learning fold.
type InteractionRecord struct {
	RunID      string          `json:"run_id"`
	ClusterKey string          `json:"cluster_key"`
	SiteID     string          `json:"site_id"`
	Counters   OutcomeCounters `json:"counters"`
	Timestamp  time.Time       `json:"timestamp"`
}

// RankedSitePlan is the ordered, deduplicated dispatch plan split into the
// probe prefix and expansion remainder.
type RankedSitePlan struct {
	Probe     []string `json:"probe"`
	Expansion []string `json:"expansion"`
}

// All returns probe followed by expansion.
func (p RankedSitePlan) All() []string {
	out := make([]string, 0, len(p.Probe)+len(p.Expansion))
	out = append(out, p.Probe...)
	out = append(out, p.Expansion...)
	return out
}

// Clamp01 clamps confidence and rate fields before storage or use.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampReliability keeps reliability away from exactly 0 and 1 so the
// scorer stays well-behaved.
func ClampReliability(v float64) float64 {
	if v < 0.02 {
		return 0.02
	}
	if v > 0.99 {
		return 0.99
	}
	return v
}
